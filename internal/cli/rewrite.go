package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/testa/pkg/analytics"
)

func newRewriteCommand(cfg Config) *Command {
	flags := flag.NewFlagSet("rewrite", flag.ContinueOnError)
	days := flags.Int("days", 0, "New day window (default: keep the current one)")
	timestamp := flags.Uint32("timestamp", 0, "New `day` anchor (unix days, default today)")
	threshold := flags.Int("threshold", analytics.DefaultGarbageThreshold,
		"Rewrite only when more tests than this have expired (default: a quarter of all tests)")

	return &Command{
		Flags: flags,
		Usage: "rewrite [flags]",
		Short: "Expire stale tests and reshape the day window",
		Long: `Garbage-collect the artifact: drop tests without activity inside the
day window, rebuild the interning tables, and optionally resize the
window. Without --days the window stays and the pass only runs when
enough tests expired.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			view, release, err := loadView(cfg.ArtifactAbs)
			if err != nil {
				return err
			}
			defer release()

			w, err := analytics.FromView(view)
			if err != nil {
				return err
			}

			newDays := *days
			if newDays == 0 {
				newDays = w.NumDays()
			}

			ts := *timestamp
			if ts == 0 {
				ts = currentDay()
			}

			before := w.NumTests()

			rewritten, err := w.Rewrite(newDays, ts, *threshold)
			if err != nil {
				return err
			}

			if !rewritten {
				o.Println("nothing to do")
				return nil
			}

			if err := writeArtifact(cfg.ArtifactAbs, w); err != nil {
				return err
			}

			o.Printf("rewrote %s: %d tests kept, %d dropped, window %d days\n",
				cfg.Artifact, w.NumTests(), before-w.NumTests(), w.NumDays())

			return nil
		},
	}
}
