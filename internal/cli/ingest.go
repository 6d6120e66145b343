package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/testa/pkg/analytics"
	"github.com/calvinalkan/testa/pkg/junit"
	"github.com/calvinalkan/testa/pkg/testrun"
	"github.com/calvinalkan/testa/pkg/vitest"
)

var (
	errReportRequired = errors.New("at least one report file is required")
	errUnknownFormat  = errors.New("cannot detect report format (use --format)")
)

// currentDay returns today's day index (unix time in day units).
func currentDay() uint32 {
	return uint32(time.Now().Unix() / 86400)
}

func newIngestCommand(cfg Config) *Command {
	flags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	format := flags.String("format", "auto", "Report format: auto, junit or vitest")
	timestamp := flags.Uint32("timestamp", 0, "Session `day` (unix days, default today)")
	runFlags := flags.StringArray("flag", nil, "Flag qualifying this session (repeatable)")
	days := flags.Int("days", 0, "Day window when creating a new artifact")

	return &Command{
		Flags: flags,
		Usage: "ingest <report>... [flags]",
		Short: "Parse CI reports into the artifact",
		Long: `Parse JUnit XML or Vitest JSON reports and aggregate every test run
into the artifact's day buckets under one session timestamp and flag set.
The artifact is created when missing and replaced atomically.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errReportRequired
			}

			w, err := openOrCreateWriter(cfg, *days)
			if err != nil {
				return err
			}

			ts := *timestamp
			if ts == 0 {
				ts = currentDay()
			}

			sessionFlags := *runFlags
			if sessionFlags == nil {
				sessionFlags = cfg.Flags
			}

			session := w.StartSession(ts, sessionFlags)
			total := 0

			for _, path := range args {
				runs, err := parseReport(cfg.resolvePath(path), *format, o)
				if err != nil {
					return err
				}

				for i := range runs {
					session.Insert(&runs[i])
				}

				total += len(runs)
			}

			if err := writeArtifact(cfg.ArtifactAbs, w); err != nil {
				return err
			}

			o.Printf("ingested %d runs into %s (%d tests tracked)\n", total, cfg.Artifact, w.NumTests())

			return nil
		},
	}
}

// openOrCreateWriter loads the configured artifact into a writer, or
// creates a fresh one when the artifact does not exist yet.
func openOrCreateWriter(cfg Config, days int) (*analytics.Writer, error) {
	view, release, err := loadView(cfg.ArtifactAbs)
	if errors.Is(err, errArtifactNotFound) {
		if days == 0 {
			days = cfg.NumDays
		}

		return analytics.NewWriter(days), nil
	}

	if err != nil {
		return nil, err
	}

	defer release()

	return analytics.FromView(view)
}

// parseReport parses one report file, sniffing the format when needed.
func parseReport(path, format string, o *IO) ([]testrun.Testrun, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}

	defer func() { _ = f.Close() }()

	if format == "auto" {
		format = sniffFormat(path)
		if format == "" {
			return nil, fmt.Errorf("%w: %s", errUnknownFormat, path)
		}
	}

	switch format {
	case "junit":
		res, err := junit.Parse(f)
		if err != nil {
			return nil, err
		}

		for _, warning := range res.Warnings {
			o.Warnf("%s:%d: %s", path, warning.Line, warning.Message)
		}

		return res.Testruns, nil

	case "vitest":
		return vitest.Parse(f)

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}

func sniffFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return "junit"
	case ".json":
		return "vitest"
	default:
		return ""
	}
}
