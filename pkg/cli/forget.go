package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func forgetCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "forget",
		Usage:     "Delete the stored memories a message asks to forget",
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

			sp := newSpinner("forgetting...")
			sp.Start()
			deleted, err := uc.Forget(ctx, cfg.user, message)
			sp.Stop()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if len(deleted) == 0 {
				fmt.Fprintf(w, "Nothing matched\n")
				return nil
			}
			fmt.Fprintf(w, "Forgot %d memories:\n", len(deleted))
			for _, mem := range deleted {
				fmt.Fprintf(w, "  %s  %s\n", mem.ID, mem.Content)
			}
			return nil
		},
	}
}
