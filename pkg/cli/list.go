package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var (
		cfg   config
		all   bool
		limit int64
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "Include deleted memories",
			Destination: &all,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of memories to show (0 = no limit)",
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List stored memories in insertion order",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setup(c); err != nil {
				return err
			}

			uc, closer, err := cfg.newLocalUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			memories, err := uc.List(ctx, cfg.user, all, int(limit))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if len(memories) == 0 {
				fmt.Fprintf(w, "No memories\n")
				return nil
			}

			for _, mem := range memories {
				mark := " "
				if mem.Deleted {
					mark = "D"
				}
				fmt.Fprintf(w, "%s %s  %s  %s\n",
					mark, mem.ID, mem.CreatedAt.Format("2006-01-02 15:04"), mem.Content)
			}
			return nil
		},
	}
}
