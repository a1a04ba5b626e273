package retrieval

import (
	"context"
	"sort"

	"docchat-backend/internal/chunks"
)

// Scored is a chunk with its relevance score.
type Scored struct {
	Chunk chunks.Chunk
	Score float64
}

// Retriever ranks a document's stored chunks against a query.
type Retriever struct {
	Chunks chunks.Repo
	// Scorer overrides the default per-document lexical scorer. Leave
	// nil to score with IDF-weighted term overlap built from the
	// document's own chunks.
	Scorer Scorer
}

// Retrieve returns the topK most relevant chunks, scores descending,
// ties broken by ascending chunk index so earlier document context
// wins deterministically. topK is clamped to [1, totalChunks]; asking
// for more than exists returns everything ranked.
func (r *Retriever) Retrieve(ctx context.Context, documentID, query string, topK int) ([]Scored, error) {
	list, err := r.Chunks.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := chunks.VerifyDense(list); err != nil {
		return nil, err
	}

	scorer := r.Scorer
	if scorer == nil {
		corpus := make([]string, len(list))
		for i, c := range list {
			corpus[i] = c.Content
		}
		scorer = NewLexicalScorer(corpus)
	}

	ranked := make([]Scored, len(list))
	for i, c := range list {
		score, err := scorer.Score(ctx, query, c.Content)
		if err != nil {
			return nil, err
		}
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		ranked[i] = Scored{Chunk: c, Score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Chunk.Index < ranked[j].Chunk.Index
	})

	if topK < 1 {
		topK = 1
	}
	if topK > len(ranked) {
		topK = len(ranked)
	}
	return ranked[:topK], nil
}
