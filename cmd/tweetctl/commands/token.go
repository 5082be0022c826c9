package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/twitter"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "Print a valid access token, refreshing it if necessary",
		Action: tokenAction,
	}
}

func tokenAction(ctx context.Context, cmd *cli.Command) error {
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

	fmt.Println(token)
	return nil
}
