package analytics_test

import (
	"errors"
	"testing"

	"github.com/calvinalkan/testa/pkg/analytics"
	"github.com/google/go-cmp/cmp"
)

func TestFlagSetCanonicalization(t *testing.T) {
	t.Parallel()

	st := analytics.NewStringTable()
	fs := analytics.NewFlagSet()

	ab := fs.Insert(st, []string{"linux", "py311"})
	ba := fs.Insert(st, []string{"py311", "linux"})

	if ab != ba {
		t.Errorf("order-insensitive sets got offsets %d and %d", ab, ba)
	}

	dup := fs.Insert(st, []string{"linux", "py311", "linux"})
	if dup != ab {
		t.Errorf("duplicate flag changed offset: %d, want %d", dup, ab)
	}

	flags, err := fs.Resolve(st.Bytes(), ab)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(flags) != 2 {
		t.Fatalf("resolved %d flags, want 2", len(flags))
	}
}

func TestFlagSetEmptyReserved(t *testing.T) {
	t.Parallel()

	st := analytics.NewStringTable()
	fs := analytics.NewFlagSet()

	if got := fs.Insert(st, nil); got != 0 {
		t.Errorf("empty set offset = %d, want 0", got)
	}

	flags, err := fs.Resolve(st.Bytes(), 0)
	if err != nil {
		t.Fatalf("Resolve(0): %v", err)
	}

	if len(flags) != 0 {
		t.Errorf("empty set resolved to %v", flags)
	}
}

func TestFlagSetAll(t *testing.T) {
	t.Parallel()

	st := analytics.NewStringTable()
	fs := analytics.NewFlagSet()

	linux := fs.Insert(st, []string{"linux"})
	both := fs.Insert(st, []string{"linux", "macos"})

	entries, err := fs.All(st.Bytes())
	if err != nil {
		t.Fatalf("All: %v", err)
	}

	want := []analytics.Entry{
		{Offset: 0, Flags: []string{}},
		{Offset: linux, Flags: []string{"linux"}},
		{Offset: both, Flags: []string{"linux", "macos"}},
	}

	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("All mismatch (-want +got):\n%s", diff)
	}
}

func TestFlagSetRoundTrip(t *testing.T) {
	t.Parallel()

	st := analytics.NewStringTable()
	orig := analytics.NewFlagSet()

	linux := orig.Insert(st, []string{"linux"})

	fs, err := analytics.FlagSetFromBytes(orig.Bytes())
	if err != nil {
		t.Fatalf("FlagSetFromBytes: %v", err)
	}

	if got := fs.Insert(st, []string{"linux"}); got != linux {
		t.Errorf("linux set offset after reload = %d, want %d", got, linux)
	}

	if got := fs.Insert(st, nil); got != 0 {
		t.Errorf("empty set offset after reload = %d, want 0", got)
	}
}

func TestFlagSetErrors(t *testing.T) {
	t.Parallel()

	if _, err := analytics.FlagSetFromBytes([]byte{1, 2, 3}); !errors.Is(err, analytics.ErrInvalidFlagSetReference) {
		t.Errorf("odd byte length: err = %v, want ErrInvalidFlagSetReference", err)
	}

	// A count that runs past the end of the table.
	if _, err := analytics.FlagSetFromBytes([]byte{9, 0, 0, 0}); !errors.Is(err, analytics.ErrInvalidFlagSetReference) {
		t.Errorf("truncated entry: err = %v, want ErrInvalidFlagSetReference", err)
	}

	st := analytics.NewStringTable()
	fs := analytics.NewFlagSet()
	fs.Insert(st, []string{"linux"})

	if _, err := fs.Resolve(st.Bytes(), 99); !errors.Is(err, analytics.ErrInvalidFlagSetReference) {
		t.Errorf("out-of-bounds offset: err = %v, want ErrInvalidFlagSetReference", err)
	}
}
