package summaries

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docchat-backend/internal/llm"
)

// scriptedGenerator returns canned outputs per attempt and records the
// requests it saw.
type scriptedGenerator struct {
	outputs  []string
	requests []llm.SummaryRequest
	err      error
}

func (g *scriptedGenerator) Answer(ctx context.Context, question string, passages []string) (string, error) {
	return "", errors.New("not used")
}

func (g *scriptedGenerator) Summarize(ctx context.Context, req llm.SummaryRequest) (string, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	idx := len(g.requests) - 1
	if idx >= len(g.outputs) {
		idx = len(g.outputs) - 1
	}
	return g.outputs[idx], nil
}

func wordsOf(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestBuildAcceptsInBandFirstAttempt(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{wordsOf(100)}}
	svc := &Service{Gen: gen}

	content, count, err := svc.Build(context.Background(), ModeBrief, []string{"text"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if count != 100 {
		t.Fatalf("expected 100 words, got %d", count)
	}
	if content != wordsOf(100) {
		t.Fatal("content altered for in-band result")
	}
	if len(gen.requests) != 1 {
		t.Fatalf("expected a single generation, got %d", len(gen.requests))
	}
}

func TestBuildRegeneratesThenTruncatesOversized(t *testing.T) {
	// 200 words in brief mode both times: one regeneration, then a
	// deterministic cut down to the band maximum of 150.
	gen := &scriptedGenerator{outputs: []string{wordsOf(200), wordsOf(200)}}
	svc := &Service{Gen: gen}

	_, count, err := svc.Build(context.Background(), ModeBrief, []string{"text"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if count != 150 {
		t.Fatalf("expected truncation to 150 words, got %d", count)
	}
	if len(gen.requests) != 2 {
		t.Fatalf("expected exactly one regeneration, got %d attempts", len(gen.requests))
	}
	if gen.requests[1].Attempt != 2 {
		t.Fatalf("regeneration request should carry attempt=2, got %d", gen.requests[1].Attempt)
	}
}

func TestBuildRegenerationCanRecover(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{wordsOf(10), wordsOf(80)}}
	svc := &Service{Gen: gen}

	_, count, err := svc.Build(context.Background(), ModeBrief, []string{"text"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if count != 80 {
		t.Fatalf("expected second attempt accepted, got %d words", count)
	}
}

func TestBuildTooShortAfterRegeneration(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{wordsOf(10), wordsOf(12)}}
	svc := &Service{Gen: gen}

	_, _, err := svc.Build(context.Background(), ModeBrief, []string{"text"})
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestBuildKeyPointsCapsBullets(t *testing.T) {
	long := "- " + wordsOf(60) + "\n- short point\n\n- " + wordsOf(41)
	gen := &scriptedGenerator{outputs: []string{long}}
	svc := &Service{Gen: gen}

	content, _, err := svc.Build(context.Background(), ModeKeyPoints, []string{"text"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "- ") {
			t.Fatalf("expected bullet line, got %q", line)
		}
		if n := len(strings.Fields(strings.TrimPrefix(line, "- "))); n > 40 {
			t.Fatalf("bullet exceeds 40 words: %d", n)
		}
	}
	if len(gen.requests) != 1 {
		t.Fatalf("bullet caps must not trigger regeneration, got %d attempts", len(gen.requests))
	}
}

func TestBuildPropagatesOracleError(t *testing.T) {
	oracleErr := errors.New("oracle down")
	gen := &scriptedGenerator{err: oracleErr}
	svc := &Service{Gen: gen}

	_, _, err := svc.Build(context.Background(), ModeExecutive, []string{"text"})
	if !errors.Is(err, oracleErr) {
		t.Fatalf("expected oracle error, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"brief", "detailed", "key-points", "executive"} {
		if _, err := ParseMode(valid); err != nil {
			t.Fatalf("ParseMode(%q): %v", valid, err)
		}
	}
	if _, err := ParseMode("haiku"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}
