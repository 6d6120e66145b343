package analytics

import "errors"

// Error classification codes.
//
// Operations MAY wrap these with additional context.
// Callers MUST classify errors using errors.Is.
var (
	// ErrInvalidStringReference indicates an offset into the string table
	// that does not resolve to a stored string.
	ErrInvalidStringReference = errors.New("analytics: invalid string reference")

	// ErrInvalidFlagSetReference indicates a flag-set offset that has no
	// mapping or cannot be resolved.
	ErrInvalidFlagSetReference = errors.New("analytics: invalid flag set reference")

	// ErrInvalidFormat indicates a malformed artifact: bad magic, version
	// mismatch, truncated or oversized sections.
	ErrInvalidFormat = errors.New("analytics: invalid format")
)
