package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/recollect-dev/recollect/pkg/usecase/session"
)

func chatCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"k"},
			Usage:       "Number of memories used to answer questions",
			Value:       5,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive session: statements are remembered, questions answered",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setup(c); err != nil {
				return err
			}

			uc, closer, err := cfg.newSessionUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "recollect> ",
				HistoryFile: filepath.Join(baseDir(), "chat_history"),
			})
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			w := c.Root().Writer
			fmt.Fprintf(w, "Statements are remembered, questions (ending in '?') answered.\n")
			fmt.Fprintf(w, "Commands: /forget <fact>, /quit\n\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "/quit" || line == "/exit" {
					break
				}

				if err := handleChatLine(ctx, uc, w, cfg.user, line, int(limit)); err != nil {
					fmt.Fprintf(w, "error: %v\n", err)
				}
			}

			fmt.Fprintf(w, "\nBye\n")
			return nil
		},
	}
}

func handleChatLine(ctx context.Context, uc *session.UseCase, w io.Writer, userID, line string, limit int) error {
	switch {
	case strings.HasPrefix(line, "/forget "):
		sp := newSpinner("forgetting...")
		sp.Start()
		deleted, err := uc.Forget(ctx, userID, strings.TrimPrefix(line, "/forget "))
		sp.Stop()
		if err != nil {
			return err
		}
		if len(deleted) == 0 {
			fmt.Fprintf(w, "nothing matched\n")
			return nil
		}
		for _, mem := range deleted {
			fmt.Fprintf(w, "forgot: %s\n", mem.Content)
		}
		return nil

	case strings.HasSuffix(line, "?"):
		sp := newSpinner("thinking...")
		sp.Start()
		answer, err := uc.Ask(ctx, userID, line, limit)
		sp.Stop()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", answer.Text)
		return nil

	default:
		sp := newSpinner("remembering...")
		sp.Start()
		result, err := uc.Remember(ctx, userID, line)
		sp.Stop()
		if err != nil {
			return err
		}
		for _, mem := range result.Stored {
			fmt.Fprintf(w, "remembered: %s\n", mem.Content)
		}
		for _, fact := range result.Skipped {
			fmt.Fprintf(w, "refused by policy: %s\n", fact)
		}
		for _, id := range result.NeedsRepair {
			fmt.Fprintf(w, "stored but not indexed, run: recollect repair %s\n", id)
		}
		return nil
	}
}
