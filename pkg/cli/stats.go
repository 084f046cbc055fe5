package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func statsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "stats",
		Usage: "Show memory counts for the user",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setup(c); err != nil {
				return err
			}

			uc, closer, err := cfg.newLocalUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			stats, err := uc.Stats(ctx, cfg.user)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "User:    %s\n", cfg.user)
			fmt.Fprintf(w, "Total:   %d\n", stats.Total)
			fmt.Fprintf(w, "Active:  %d\n", stats.Active)
			fmt.Fprintf(w, "Deleted: %d\n", stats.Deleted)
			if stats.First != nil {
				fmt.Fprintf(w, "First:   %s\n", stats.First.Format("2006-01-02 15:04"))
			}
			if stats.Last != nil {
				fmt.Fprintf(w, "Last:    %s\n", stats.Last.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
