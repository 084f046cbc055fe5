package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func rememberCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "remember",
		Usage:     "Extract the facts from a message and store them",
		ArgsUsage: "<message>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			message := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if message == "" {
				return goerr.New("message is required")
			}

			if err := cfg.setup(c); err != nil {
				return err
			}

			uc, closer, err := cfg.newSessionUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			sp := newSpinner("remembering...")
			sp.Start()
			result, err := uc.Remember(ctx, cfg.user, message)
			sp.Stop()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if len(result.Stored) == 0 {
				fmt.Fprintf(w, "Nothing to remember\n")
			} else {
				fmt.Fprintf(w, "Remembered %d fact(s):\n", len(result.Stored))
				for _, mem := range result.Stored {
					fmt.Fprintf(w, "  %s  %s\n", mem.ID, mem.Content)
				}
			}
			for _, fact := range result.Skipped {
				fmt.Fprintf(w, "Refused by policy: %s\n", fact)
			}
			for _, id := range result.NeedsRepair {
				fmt.Fprintf(w, "Stored but not indexed, run: recollect repair %s\n", id)
			}
			return nil
		},
	}
}
