package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/testa/pkg/analytics"
)

var errMergeNeedsTwo = errors.New("merge requires exactly two artifact paths")

func newMergeCommand(cfg Config) *Command {
	flags := flag.NewFlagSet("merge", flag.ContinueOnError)
	out := flags.String("out", "", "Output `path` (default: the configured artifact)")

	return &Command{
		Flags: flags,
		Usage: "merge <a> <b> [flags]",
		Short: "Merge two artifacts into one",
		Long: `Combine two artifacts: counters of overlapping day buckets are summed
and day rings are realigned to the newer artifact's timestamp. The result
replaces the output file atomically.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 2 {
				return errMergeNeedsTwo
			}

			viewA, releaseA, err := loadView(cfg.resolvePath(args[0]))
			if err != nil {
				return err
			}
			defer releaseA()

			viewB, releaseB, err := loadView(cfg.resolvePath(args[1]))
			if err != nil {
				return err
			}
			defer releaseB()

			merged, err := analytics.Merge(viewA, viewB)
			if err != nil {
				return err
			}

			target := cfg.ArtifactAbs
			if *out != "" {
				target = cfg.resolvePath(*out)
			}

			if err := writeArtifact(target, merged); err != nil {
				return err
			}

			o.Printf("merged %d + %d tests into %d (%s)\n",
				viewA.NumTests(), viewB.NumTests(), merged.NumTests(), target)

			return nil
		},
	}
}
