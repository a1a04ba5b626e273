package chunks

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Chunk // documentID -> ordered chunks
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Chunk)}
}

// ReplaceAll swaps in the full chunk sequence for a document.
func (r *MemoryRepo) ReplaceAll(ctx context.Context, documentID string, list []Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	copied := make([]Chunk, len(list))
	copy(copied, list)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[documentID] = copied
	return nil
}

// ListByDocument returns a copy of the stored sequence.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	stored, ok := r.data[documentID]
	r.mu.RUnlock()
	if !ok || len(stored) == 0 {
		return nil, ErrNoChunks
	}
	out := make([]Chunk, len(stored))
	copy(out, stored)
	return out, nil
}

// CountByDocument returns the number of stored chunks.
func (r *MemoryRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data[documentID]), nil
}

var _ Repo = (*MemoryRepo)(nil)
