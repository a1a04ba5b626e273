package llm

import (
	"context"
	"errors"
)

// SummaryRequest describes one summary generation attempt.
type SummaryRequest struct {
	Mode     string
	Passages []string
	MinWords int
	MaxWords int
	Bulleted bool
	// Attempt is 1 for the first generation and 2 for the single
	// regeneration after an out-of-band result.
	Attempt int
}

// Generator abstracts the answer/summary oracle. Implementations must
// honor context cancellation and deadlines.
type Generator interface {
	Answer(ctx context.Context, question string, passages []string) (string, error)
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// ErrNotImplemented is returned by the placeholder generator.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderGenerator is a stub implementation until provider wiring is
// added.
type PlaceholderGenerator struct{}

func (PlaceholderGenerator) Answer(ctx context.Context, question string, passages []string) (string, error) {
	return "", ErrNotImplemented
}

func (PlaceholderGenerator) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	return "", ErrNotImplemented
}
