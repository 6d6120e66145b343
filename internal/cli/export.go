package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/testa/internal/export"
)

var errExportNeedsOut = errors.New("export requires --out <database>")

func newExportCommand(cfg Config) *Command {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	out := flags.String("out", "", "SQLite database `path` to write")

	return &Command{
		Flags: flags,
		Usage: "export [file] [flags]",
		Short: "Export aggregates to a SQLite database",
		Long: `Write every test's day buckets into a SQLite database for ad-hoc SQL
querying. Each export is recorded as one import batch so repeated
exports of growing artifacts stay distinguishable.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if *out == "" {
				return errExportNeedsOut
			}

			path := cfg.ArtifactAbs
			if len(args) > 0 {
				path = cfg.resolvePath(args[0])
			}

			view, release, err := loadView(path)
			if err != nil {
				return err
			}
			defer release()

			importID, rows, err := export.ToSQLite(ctx, cfg.resolvePath(*out), path, view)
			if err != nil {
				return err
			}

			o.Printf("exported %d bucket rows to %s (import %s)\n", rows, *out, importID)

			return nil
		},
	}
}
