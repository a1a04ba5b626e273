package chunks

import "errors"

var (
	// ErrEmptyInput indicates extracted text was empty after trimming.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidConfig indicates overlap >= target chunk size.
	ErrInvalidConfig = errors.New("invalid chunker config")
	// ErrNoChunks indicates the document has no stored chunks yet.
	ErrNoChunks = errors.New("no chunks")
	// ErrCorrupt indicates the stored chunk sequence violates the dense
	// index invariant. It is never repaired silently.
	ErrCorrupt = errors.New("corrupt chunk sequence")
)
