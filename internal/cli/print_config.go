package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"
)

func newPrintConfigCommand(cfg Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("config", flag.ContinueOnError),
		Usage: "config",
		Short: "Print the resolved configuration",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			o.Printf("artifact:  %s\n", cfg.ArtifactAbs)
			o.Printf("num_days:  %d\n", cfg.NumDays)
			o.Printf("flags:     %s\n", strings.Join(cfg.Flags, ","))

			if cfg.Sources.Global != "" {
				o.Printf("global:    %s\n", cfg.Sources.Global)
			}

			if cfg.Sources.Project != "" {
				o.Printf("project:   %s\n", cfg.Sources.Project)
			}

			return nil
		},
	}
}
