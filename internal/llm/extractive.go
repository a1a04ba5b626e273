package llm

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// ExtractiveGenerator produces answers and summaries by selecting
// sentences from the source text, with no external calls. It is the
// default oracle in development and the deterministic stand-in for
// tests: identical input always yields identical output.
type ExtractiveGenerator struct{}

// Answer returns the passage sentences sharing the most vocabulary with
// the question, in document order.
func (ExtractiveGenerator) Answer(ctx context.Context, question string, passages []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	queryTokens := make(map[string]struct{})
	for _, tok := range tokens(question) {
		queryTokens[tok] = struct{}{}
	}

	type candidate struct {
		order int
		score float64
		text  string
	}
	var candidates []candidate
	order := 0
	for _, passage := range passages {
		for _, sentence := range splitSentences(passage) {
			score := 0.0
			for _, tok := range tokens(sentence) {
				if _, ok := queryTokens[tok]; ok {
					score++
				}
			}
			candidates = append(candidates, candidate{order: order, score: score, text: sentence})
			order++
		}
	}
	if len(candidates) == 0 {
		return "The document contains no readable text for this question.", nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})
	keep := 3
	if keep > len(candidates) {
		keep = len(candidates)
	}
	selected := candidates[:keep]
	sort.Slice(selected, func(i, j int) bool { return selected[i].order < selected[j].order })

	var out []string
	for _, c := range selected {
		out = append(out, strings.TrimSpace(c.text))
	}
	return strings.Join(out, " "), nil
}

// Summarize ranks sentences by normalized token frequency and selects
// the best until the word budget is met, preserving document order.
func (ExtractiveGenerator) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text := strings.Join(req.Passages, "\n")
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return "", nil
		}
		sentences = []string{trimmed}
	}

	freq := make(map[string]float64)
	for _, sentence := range sentences {
		for _, tok := range tokens(sentence) {
			freq[tok]++
		}
	}
	maxFreq := 0.0
	for _, v := range freq {
		if v > maxFreq {
			maxFreq = v
		}
	}
	if maxFreq > 0 {
		for k, v := range freq {
			freq[k] = v / maxFreq
		}
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, sentence := range sentences {
		toks := tokens(sentence)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok]
		}
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = ranked{idx: i, score: score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	budget := req.MaxWords
	if budget <= 0 {
		budget = 200
	}
	var picked []int
	words := 0
	for _, r := range scores {
		count := len(strings.Fields(sentences[r.idx]))
		if words > 0 && words+count > budget {
			continue
		}
		picked = append(picked, r.idx)
		words += count
		if words >= req.MinWords && words <= budget && len(picked) >= 1 && words >= budget*3/4 {
			break
		}
	}
	sort.Ints(picked)

	var out []string
	for _, idx := range picked {
		sentence := strings.TrimSpace(sentences[idx])
		if req.Bulleted {
			sentence = "- " + sentence
		}
		out = append(out, sentence)
	}
	sep := " "
	if req.Bulleted {
		sep = "\n"
	}
	return strings.Join(out, sep), nil
}

func splitSentences(text string) []string {
	raw := sentencePattern.FindAllString(text, -1)
	out := raw[:0]
	for _, s := range raw {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func tokens(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

var _ Generator = ExtractiveGenerator{}
