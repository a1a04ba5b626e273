package retrieval

import "context"

// Scorer rates how relevant a text span is to a query. Scores are in
// [0,1]. Implementations range from lexical heuristics to external
// embedding services; the ranking policy in Retriever does not care
// which one it is given.
type Scorer interface {
	Score(ctx context.Context, query, text string) (float64, error)
}
