package documents

import "errors"

var (
	// ErrNotFound indicates an unknown document or one owned by someone
	// else; the two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a malformed upload request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotReady indicates the document has not finished chunking.
	ErrNotReady = errors.New("document not processed yet")
)
