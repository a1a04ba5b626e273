package conversations

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Turn // documentID -> ordered turns
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Turn)}
}

// AppendExchange appends both turns of an exchange.
func (r *MemoryRepo) AppendExchange(ctx context.Context, userTurn, assistantTurn Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateExchange(userTurn, assistantTurn); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[userTurn.DocumentID] = append(r.data[userTurn.DocumentID], userTurn, assistantTurn)
	return nil
}

// ListByDocument returns the ordered turns for a document.
func (r *MemoryRepo) ListByDocument(ctx context.Context, userID, documentID string, limit, offset int) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	stored := r.data[documentID]
	r.mu.RUnlock()

	var owned []Turn
	for _, turn := range stored {
		if turn.UserID == userID {
			owned = append(owned, turn)
		}
	}
	if offset >= len(owned) {
		return []Turn{}, nil
	}
	end := len(owned)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]Turn, end-offset)
	copy(out, owned[offset:end])
	return out, nil
}

func validateExchange(userTurn, assistantTurn Turn) error {
	if userTurn.Role != RoleUser || assistantTurn.Role != RoleAssistant {
		return ErrInvalidExchange
	}
	if userTurn.DocumentID == "" || userTurn.DocumentID != assistantTurn.DocumentID {
		return ErrInvalidExchange
	}
	if !assistantTurn.CreatedAt.After(userTurn.CreatedAt) {
		return ErrInvalidExchange
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
