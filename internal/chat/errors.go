package chat

import "errors"

var (
	// ErrInvalidQuestion indicates an empty or malformed question.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrQuotaExhausted indicates the reservation was refused for
	// insufficient balance. Not a server fault; callers surface an
	// upgrade prompt.
	ErrQuotaExhausted = errors.New("token balance exhausted")
	// ErrOracle indicates the generation oracle failed after retries.
	ErrOracle = errors.New("generation failed")
)
