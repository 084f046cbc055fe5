package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var (
		cfg         config
		limit       int64
		showSources bool
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"k"},
			Usage:       "Number of memories used to answer",
			Value:       5,
			Destination: &limit,
		},
		&cli.BoolFlag{
			Name:        "show-sources",
			Aliases:     []string{"s"},
			Usage:       "Show the memories the answer was grounded on",
			Destination: &showSources,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a question from stored memories",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return goerr.New("question is required")
			}

			if err := cfg.setup(c); err != nil {
				return err
			}

			uc, closer, err := cfg.newSessionUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			sp := newSpinner("thinking...")
			sp.Start()
			answer, err := uc.Ask(ctx, cfg.user, question, int(limit))
			sp.Stop()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "%s\n", answer.Text)
			if showSources && len(answer.Sources) > 0 {
				fmt.Fprintf(w, "\nBased on:\n")
				for _, s := range answer.Sources {
					fmt.Fprintf(w, "  [%.3f] %s\n", s.Score, s.Content)
				}
			}
			return nil
		},
	}
}
