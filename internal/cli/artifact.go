package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/testa/pkg/analytics"
)

var errArtifactNotFound = errors.New("artifact not found")

// resolvePath interprets a user-supplied path relative to the effective
// working directory (the -C flag).
func (c Config) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(c.EffectiveCwd, path)
}

// readArtifact maps the artifact into memory for zero-copy parsing.
//
// The returned release func unmaps the data; every View parsed from it
// must be dropped first. Falls back to a plain read when mmap is not
// available (empty files, exotic filesystems).
func readArtifact(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", errArtifactNotFound, path)
		}

		return nil, nil, fmt.Errorf("opening artifact: %w", err)
	}

	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat artifact: %w", err)
	}

	size := int(info.Size())
	if size == 0 {
		return nil, func() {}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, nil, fmt.Errorf("reading artifact: %w", readErr)
		}

		return data, func() {}, nil
	}

	return data, func() { _ = unix.Munmap(data) }, nil
}

// loadView maps and parses an artifact. The release func must be called
// after the view is no longer used.
func loadView(path string) (*analytics.View, func(), error) {
	data, release, err := readArtifact(path)
	if err != nil {
		return nil, nil, err
	}

	view, err := analytics.Parse(data)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return view, release, nil
}

// writeArtifact serializes the writer and atomically replaces path, so a
// crash mid-write never leaves a torn artifact behind.
func writeArtifact(path string, w *analytics.Writer) error {
	var buf bytes.Buffer
	if err := w.Serialize(&buf); err != nil {
		return fmt.Errorf("serializing artifact: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}

	return nil
}
