package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/twitter"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Authorize this machine to act on a Twitter account",
		Action: loginAction,
	}
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	application, err := setup(cmd, true)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "starting browser authentication")

	if err := application.Manager.Authenticate(ctx); err != nil {
		if errors.Is(err, twitter.ErrUserCancelled) {
			return fmt.Errorf("authorization was declined in the browser")
		}
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Println("Logged in. Credentials saved.")
	return nil
}
