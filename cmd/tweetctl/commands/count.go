package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/counter"
)

func countCommand() *cli.Command {
	return &cli.Command{
		Name:      "count",
		Usage:     "Show the platform character count for a draft tweet",
		ArgsUsage: "<text>",
		Action:    countAction,
	}
}

func countAction(ctx context.Context, cmd *cli.Command) error {
	text := strings.Join(cmd.Args().Slice(), " ")

	count := counter.Count(text)
	fmt.Printf("characters: %d/%d\n", count, counter.MaxTweetLength)
	fmt.Printf("remaining:  %d\n", counter.Remaining(text))
	if !counter.Submittable(text) {
		if count == 0 {
			fmt.Println("not submittable: empty")
		} else {
			fmt.Println("not submittable: over limit")
		}
	}
	return nil
}
