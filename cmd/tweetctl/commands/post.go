package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/counter"
	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/twitter"
)

func postCommand() *cli.Command {
	return &cli.Command{
		Name:      "post",
		Usage:     "Post a tweet from the authenticated account",
		ArgsUsage: "<text>",
		Action:    postAction,
	}
}

func postAction(ctx context.Context, cmd *cli.Command) error {
	text := strings.Join(cmd.Args().Slice(), " ")
	if text == "" {
		return fmt.Errorf("nothing to post, pass the tweet text as an argument")
	}
	if remaining := counter.Remaining(text); remaining < 0 {
		return fmt.Errorf("tweet is %d characters over the %d limit", -remaining, counter.MaxTweetLength)
	}

	application, err := setup(cmd, true)
	if err != nil {
		return err
	}

	token, err := application.Manager.AccessToken(ctx)
	if err != nil {
		if errors.Is(err, twitter.ErrRefreshTokenNotFound) {
			return fmt.Errorf("not logged in, run `tweetctl login` first")
		}
		return fmt.Errorf("failed to obtain access token: %w", err)
	}

	resp, err := application.Poster.PostTweet(ctx, text, token)
	if err != nil {
		return fmt.Errorf("failed to post tweet: %w", err)
	}

	slog.InfoContext(ctx, "tweet posted", "tweet_id", resp.TweetID)
	fmt.Printf("Posted: https://twitter.com/i/web/status/%s\n", resp.TweetID)
	return nil
}
