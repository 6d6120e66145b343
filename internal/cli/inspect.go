package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/testa/pkg/analytics"
)

func newInspectCommand(cfg Config) *Command {
	flags := flag.NewFlagSet("inspect", flag.ContinueOnError)
	interactive := flags.BoolP("interactive", "i", false, "Start an interactive prompt")
	match := flags.String("match", "", "Only list tests whose testsuite or name contains `substr`")

	return &Command{
		Flags: flags,
		Usage: "inspect [file] [flags]",
		Short: "Show an artifact's header and tests",
		Long: `Print the artifact header and a per-test summary across the whole day
window. With --interactive, open a prompt for digging into single tests
and flag sets.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			path := cfg.ArtifactAbs
			if len(args) > 0 {
				path = cfg.resolvePath(args[0])
			}

			view, release, err := loadView(path)
			if err != nil {
				return err
			}
			defer release()

			if *interactive {
				repl := &inspectREPL{view: view, path: path}
				return repl.run()
			}

			printHeader(o, view)

			return printTests(o, view, *match)
		},
	}
}

func printHeader(o *IO, v *analytics.View) {
	o.Printf("timestamp:  day %d\n", v.Timestamp())
	o.Printf("window:     %d days\n", v.NumDays())
	o.Printf("tests:      %d\n", v.NumTests())
}

// testRow is one resolved index entry for display.
type testRow struct {
	suite, name string
	flags       []string

	pass, fail, skip uint64
	lastSeen         uint32
}

func resolveRows(v *analytics.View, match string) ([]testRow, error) {
	rows := make([]testRow, 0, v.NumTests())

	for i := range v.NumTests() {
		test := v.Test(i)

		suite, err := v.ResolveString(test.TestsuiteOffset)
		if err != nil {
			return nil, err
		}

		name, err := v.ResolveString(test.NameOffset)
		if err != nil {
			return nil, err
		}

		if match != "" && !strings.Contains(name, match) && !strings.Contains(suite, match) {
			continue
		}

		flags, err := v.ResolveFlagSet(test.FlagSetOffset)
		if err != nil {
			return nil, err
		}

		row := testRow{suite: suite, name: name, flags: flags}

		for k := range v.NumDays() {
			b := v.Bucket(i, k)
			row.pass += uint64(b.TotalPassCount)
			row.fail += uint64(b.TotalFailCount)
			row.skip += uint64(b.TotalSkipCount)

			if b.LastTimestamp > row.lastSeen {
				row.lastSeen = b.LastTimestamp
			}
		}

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].suite != rows[j].suite {
			return rows[i].suite < rows[j].suite
		}

		return rows[i].name < rows[j].name
	})

	return rows, nil
}

func printTests(o *IO, v *analytics.View, match string) error {
	rows, err := resolveRows(v, match)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		return nil
	}

	o.Println()
	o.Printf("%-30s %-40s %6s %6s %6s  %s\n", "TESTSUITE", "NAME", "PASS", "FAIL", "SKIP", "FLAGS")

	for _, r := range rows {
		o.Printf("%-30s %-40s %6d %6d %6d  %s\n",
			r.suite, r.name, r.pass, r.fail, r.skip, strings.Join(r.flags, ","))
	}

	return nil
}

// formatBuckets renders one test's full day ring.
func formatBuckets(v *analytics.View, i int) string {
	var sb strings.Builder

	for k := range v.NumDays() {
		b := v.Bucket(i, k)
		if b == (analytics.TestData{}) {
			continue
		}

		fmt.Fprintf(&sb, "  day -%-3d pass=%-5d fail=%-5d skip=%-5d flaky=%-5d dur=%.3fs last=%.3fs@%d\n",
			k, b.TotalPassCount, b.TotalFailCount, b.TotalSkipCount, b.TotalFlakyFailCount,
			b.TotalDuration, b.LastDuration, b.LastTimestamp)
	}

	if sb.Len() == 0 {
		return "  (no activity in window)\n"
	}

	return sb.String()
}
