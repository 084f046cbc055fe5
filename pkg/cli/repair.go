package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/recollect-dev/recollect/pkg/model"
)

func repairCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "repair",
		Usage:     "Reconcile index entries with their records after a partial write",
		ArgsUsage: "<memory-id>...",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ids := c.Args().Slice()
			if len(ids) == 0 {
				return goerr.New("at least one memory ID is required")
			}

			if err := cfg.setup(c); err != nil {
				return err
			}

			uc, _, closer, err := cfg.newMemoryUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			w := c.Root().Writer
			for _, id := range ids {
				if err := uc.RepairIndex(ctx, model.MemoryID(id)); err != nil {
					return goerr.Wrap(err, "failed to repair memory", goerr.V("memory_id", id))
				}
				fmt.Fprintf(w, "Repaired %s\n", id)
			}
			return nil
		},
	}
}
