package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/testa/pkg/analytics"
)

// inspectREPL is the interactive artifact browser behind `inspect -i`.
type inspectREPL struct {
	view  *analytics.View
	path  string
	liner *liner.State
}

var replCommands = []string{"header", "tests", "show", "flags", "help", "quit"}

// historyFile returns the path to the prompt history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".testa_history")
}

func (r *inspectREPL) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(func(line string) []string {
		var out []string

		for _, c := range replCommands {
			if strings.HasPrefix(c, strings.ToLower(line)) {
				out = append(out, c)
			}
		}

		return out
	})

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = r.liner.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Printf("testa - %s (day %d, %d-day window, %d tests)\n",
		r.path, r.view.Timestamp(), r.view.NumDays(), r.view.NumTests())
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("testa> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "header":
			r.cmdHeader()

		case "tests", "ls":
			r.cmdTests(args)

		case "show":
			r.cmdShow(args)

		case "flags":
			r.cmdFlags()

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *inspectREPL) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		_, _ = r.liner.WriteHistory(f)
		_ = f.Close()
	}
}

func (r *inspectREPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  header            Show the artifact header")
	fmt.Println("  tests [substr]    List tests, optionally filtered")
	fmt.Println("  show <index>      Show one test's day ring")
	fmt.Println("  flags             List all interned flag sets")
	fmt.Println("  quit              Exit")
}

func (r *inspectREPL) cmdHeader() {
	fmt.Printf("timestamp:  day %d\n", r.view.Timestamp())
	fmt.Printf("window:     %d days\n", r.view.NumDays())
	fmt.Printf("tests:      %d\n", r.view.NumTests())
}

func (r *inspectREPL) cmdTests(args []string) {
	match := ""
	if len(args) > 0 {
		match = args[0]
	}

	for i := range r.view.NumTests() {
		test := r.view.Test(i)

		suite, err := r.view.ResolveString(test.TestsuiteOffset)
		if err != nil {
			fmt.Println("error:", err)
			return
		}

		name, err := r.view.ResolveString(test.NameOffset)
		if err != nil {
			fmt.Println("error:", err)
			return
		}

		if match != "" && !strings.Contains(name, match) && !strings.Contains(suite, match) {
			continue
		}

		fmt.Printf("%4d  %s / %s\n", i, suite, name)
	}
}

func (r *inspectREPL) cmdShow(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: show <index>")
		return
	}

	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i >= r.view.NumTests() {
		fmt.Printf("index must be 0..%d\n", r.view.NumTests()-1)
		return
	}

	test := r.view.Test(i)

	suite, _ := r.view.ResolveString(test.TestsuiteOffset)
	name, _ := r.view.ResolveString(test.NameOffset)
	flags, _ := r.view.ResolveFlagSet(test.FlagSetOffset)

	fmt.Printf("%s / %s  flags=%v\n", suite, name, flags)
	fmt.Print(formatBuckets(r.view, i))
}

func (r *inspectREPL) cmdFlags() {
	entries, err := r.view.FlagSets()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, e := range entries {
		fmt.Printf("%4d  [%s]\n", e.Offset, strings.Join(e.Flags, ", "))
	}
}
