package summaries

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Summary // documentID -> append-only history
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Summary)}
}

// Create appends a summary to the document's history.
func (r *MemoryRepo) Create(ctx context.Context, summary Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[summary.DocumentID] = append(r.data[summary.DocumentID], summary)
	return nil
}

// LatestByMode returns the newest summary for (document, mode).
func (r *MemoryRepo) LatestByMode(ctx context.Context, userID, documentID string, mode Mode) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	history := r.data[documentID]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Mode == mode && history[i].UserID == userID {
			return history[i], nil
		}
	}
	return Summary{}, ErrNotFound
}

var _ Repo = (*MemoryRepo)(nil)
