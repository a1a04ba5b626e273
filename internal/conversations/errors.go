package conversations

import "errors"

var (
	// ErrInvalidExchange indicates a malformed user/assistant pair.
	ErrInvalidExchange = errors.New("invalid exchange")
)
