package summaries

import (
	"context"
	"strings"

	"docchat-backend/internal/llm"
)

// Service builds mode-conforming summary content from a document's full
// chunk sequence.
//
// Length enforcement is deterministic: one generation, then at most one
// regeneration with an explicit length reminder when the result is out
// of band. A still-long result is truncated at a word boundary to the
// band maximum; a still-short result fails with ErrTooShort so the
// caller can refund. Key-points summaries have no total band; each
// bullet is truncated to its word cap instead.
type Service struct {
	Gen llm.Generator
}

// Build generates summary content for the mode from the ordered chunk
// contents of a whole document.
func (s *Service) Build(ctx context.Context, mode Mode, passages []string) (content string, wordCount int, err error) {
	min, max := mode.Band()
	req := llm.SummaryRequest{
		Mode:     string(mode),
		Passages: passages,
		MinWords: min,
		MaxWords: max,
		Bulleted: mode.Bulleted(),
		Attempt:  1,
	}

	content, err = s.Gen.Summarize(ctx, req)
	if err != nil {
		return "", 0, err
	}
	content = s.conform(mode, content)

	if !inBand(mode, content) {
		req.Attempt = 2
		content, err = s.Gen.Summarize(ctx, req)
		if err != nil {
			return "", 0, err
		}
		content = s.conform(mode, content)
	}

	if !inBand(mode, content) {
		if CountWords(content) > max {
			content = truncateWords(content, max)
		} else {
			return "", 0, ErrTooShort
		}
	}
	return content, CountWords(content), nil
}

// conform applies the deterministic per-mode normalization that never
// needs a regeneration: bullet caps for key-points.
func (s *Service) conform(mode Mode, content string) string {
	content = strings.TrimSpace(content)
	if !mode.Bulleted() {
		return content
	}
	lines := strings.Split(content, "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		point := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if point == "" {
			continue
		}
		out = append(out, "- "+truncateWords(point, keyPointMaxWords))
	}
	return strings.Join(out, "\n")
}

func inBand(mode Mode, content string) bool {
	min, max := mode.Band()
	if mode.Bulleted() {
		// conform already capped each bullet.
		return strings.TrimSpace(content) != ""
	}
	count := CountWords(content)
	return count >= min && count <= max
}

// CountWords is the literal whitespace-separated word count used by the
// mode contracts.
func CountWords(content string) int {
	return len(strings.Fields(content))
}

func truncateWords(content string, max int) string {
	fields := strings.Fields(content)
	if len(fields) <= max {
		return strings.TrimSpace(content)
	}
	return strings.Join(fields[:max], " ")
}
