package summaries

import "errors"

var (
	// ErrUnknownMode indicates a mode outside the enumerated set.
	ErrUnknownMode = errors.New("unknown summary mode")
	// ErrNotFound indicates no summary exists for the requested view.
	ErrNotFound = errors.New("summary not found")
	// ErrTooShort indicates generation stayed under the mode's minimum
	// even after the single regeneration; surfaced as an oracle failure.
	ErrTooShort = errors.New("summary below mode minimum")
)
