// Package commands implements the tweetctl command line interface.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/app"
	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "tweetctl",
		Usage: "Authenticate a Twitter account and post tweets from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "auth--client-id",
				Usage: "OAuth client ID",
			},
			&cli.StringFlag{
				Name:  "auth--redirect-uri",
				Usage: "OAuth redirect URI (loopback)",
				Value: app.DefaultConfigRedirectURI,
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "credential storage backend (file|keyring|memory)",
				Value: string(app.DefaultConfigAuthStorage),
			},
			&cli.StringFlag{
				Name:  "auth--file",
				Usage: "credential file path (file storage only)",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			tokenCommand(),
			postCommand(),
			countCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads configuration, instruments logging, and assembles the
// application. Commands that exchange or refresh tokens need the client
// secret and set requireSecret so a missing one is prompted for.
func setup(cmd *cli.Command, requireSecret bool) (*app.App, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	err = observability.Instrument(cfg.LogLevel, string(cfg.LogFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	if requireSecret && cfg.Auth.ClientSecret == "" {
		secret, err := promptSecret("Client secret: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read client secret: %w", err)
		}
		cfg.Auth.ClientSecret = secret
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}
	return application, nil
}

// promptSecret reads a secret from the terminal without echoing it. The
// secret never transits argv or the process environment this way.
func promptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; set TWEETCTL_AUTH__CLIENT_SECRET or auth.client_secret instead")
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
