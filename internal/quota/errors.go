package quota

import "errors"

var (
	// ErrInvalidAmount indicates a non-positive reservation or refund.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrUnknownKind indicates a token kind outside {text, image}.
	ErrUnknownKind = errors.New("unknown token kind")
)
