package retrieval

import (
	"context"
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// LexicalScorer scores query/text pairs by IDF-weighted term overlap
// over a fixed corpus: rare query terms found in the text contribute
// more than common ones. The score is the matched share of the query's
// total term weight, so it lands in [0,1] and is fully deterministic.
type LexicalScorer struct {
	idf       map[string]float64
	defaultIDF float64
	stopwords map[string]struct{}
}

// NewLexicalScorer builds the inverse document frequencies from the
// corpus, typically the chunk contents of one document.
func NewLexicalScorer(corpus []string) *LexicalScorer {
	s := &LexicalScorer{
		idf:       make(map[string]float64),
		stopwords: defaultStopwords(),
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range s.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	n := float64(len(corpus))
	for term, count := range df {
		s.idf[term] = math.Log((1+n)/(1+float64(count))) + 1.0
	}
	// Terms never seen in the corpus cannot match anything; weighting
	// them as maximally rare keeps scores honest about missing evidence.
	s.defaultIDF = math.Log(1+n) + 1.0
	return s
}

// Score returns the IDF-weighted fraction of query terms present in
// text.
func (s *LexicalScorer) Score(ctx context.Context, query, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	queryTokens := s.tokenize(query)
	if len(queryTokens) == 0 {
		return 0, nil
	}
	present := make(map[string]struct{})
	for _, tok := range s.tokenize(text) {
		present[tok] = struct{}{}
	}

	var matched, total float64
	counted := make(map[string]struct{})
	for _, tok := range queryTokens {
		if _, ok := counted[tok]; ok {
			continue
		}
		counted[tok] = struct{}{}
		weight, ok := s.idf[tok]
		if !ok {
			weight = s.defaultIDF
		}
		total += weight
		if _, ok := present[tok]; ok {
			matched += weight
		}
	}
	if total == 0 {
		return 0, nil
	}
	return matched / total, nil
}

func (s *LexicalScorer) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, isStop := s.stopwords[tok]; isStop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of",
		"in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been",
		"being", "it", "this", "that", "these", "those", "from", "up", "down", "over",
		"under", "than", "so", "such", "into", "about", "between", "through", "during",
		"before", "after", "out", "off", "own", "same", "too", "very", "can", "will",
		"just", "should", "now", "what", "how", "why", "who", "does", "do",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var _ Scorer = (*LexicalScorer)(nil)
