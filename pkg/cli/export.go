package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/recollect-dev/recollect/pkg/adapter"
)

func exportCommand() *cli.Command {
	var (
		cfg    config
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Destination: a local path or gs://bucket/key",
			Required:    true,
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export all memories of the user as JSON Lines",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setup(c); err != nil {
				return err
			}

			storage, key, err := cfg.exportTarget(ctx, output)
			if err != nil {
				return err
			}

			uc, closer, err := cfg.newLocalUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			n, err := uc.Export(ctx, storage, cfg.user, key)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Exported %d memories to %s\n", n, output)
			return nil
		},
	}
}

// exportTarget resolves an output spec into a storage backend and an
// object key within it
func (cfg *config) exportTarget(ctx context.Context, output string) (adapter.Storage, string, error) {
	if rest, ok := strings.CutPrefix(output, "gs://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket == "" || key == "" {
			return nil, "", goerr.New("invalid GCS output, want gs://bucket/key", goerr.V("output", output))
		}
		storage, err := cfg.newStorage(ctx, bucket)
		if err != nil {
			return nil, "", err
		}
		return storage, key, nil
	}

	dir := filepath.Dir(output)
	key := filepath.Base(output)
	if key == "." || key == string(filepath.Separator) {
		return nil, "", goerr.New("invalid output path", goerr.V("output", output))
	}
	return adapter.NewLocalStorage(dir), key, nil
}
