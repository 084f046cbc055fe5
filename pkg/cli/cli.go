package cli

import (
	"context"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "recollect",
		Usage: "Personal memory agent with similarity-based recall",
		Commands: []*cli.Command{
			rememberCommand(),
			forgetCommand(),
			askCommand(),
			chatCommand(),
			listCommand(),
			statsCommand(),
			repairCommand(),
			exportCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// newSpinner shows progress while a model call is in flight
func newSpinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	return s
}
