package quota

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]Account
	now  func() time.Time
}

func newMemoryStore(now func() time.Time) *memoryStore {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{
		data: make(map[string]Account),
		now:  now,
	}
}

func defaultAccount(userID string, now time.Time) Account {
	plan := PlanByID(DefaultPlanID)
	return Account{
		UserID:         userID,
		Plan:           plan.ID,
		Cycle:          plan.Cycle,
		TextRemaining:  plan.TextTokens,
		ImageRemaining: plan.ImageTokens,
		ResetsAt:       nextReset(now, plan.Cycle),
		Status:         StatusActive,
	}
}

// ensureLocked initializes an unseen account and applies a due cycle
// reset. Caller holds the mutex.
func (s *memoryStore) ensureLocked(userID string, now time.Time) Account {
	acct, ok := s.data[userID]
	if !ok {
		acct = defaultAccount(userID, now.UTC())
	}
	if !now.Before(acct.ResetsAt) {
		plan := PlanByID(acct.Plan)
		acct.TextRemaining = plan.TextTokens
		acct.ImageRemaining = plan.ImageTokens
		acct.ResetsAt = nextReset(acct.ResetsAt, acct.Cycle)
	}
	s.data[userID] = acct
	return acct
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(userID, s.now().UTC()), nil
}

func (s *memoryStore) CheckAndReserve(ctx context.Context, userID string, kind Kind, amount int64) (bool, Account, error) {
	if err := ctx.Err(); err != nil {
		return false, Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.ensureLocked(userID, s.now().UTC())
	if acct.Remaining(kind) < amount {
		return false, acct, nil
	}
	if kind == KindImage {
		acct.ImageRemaining -= amount
	} else {
		acct.TextRemaining -= amount
	}
	s.data[userID] = acct
	return true, acct, nil
}

func (s *memoryStore) Refund(ctx context.Context, userID string, kind Kind, amount int64) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.ensureLocked(userID, s.now().UTC())
	plan := PlanByID(acct.Plan)
	if kind == KindImage {
		acct.ImageRemaining = minInt64(acct.ImageRemaining+amount, plan.ImageTokens)
	} else {
		acct.TextRemaining = minInt64(acct.TextRemaining+amount, plan.TextTokens)
	}
	s.data[userID] = acct
	return acct, nil
}

func (s *memoryStore) Reset(ctx context.Context, userID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.data[userID]
	if !ok {
		acct = defaultAccount(userID, now)
	}
	plan := PlanByID(acct.Plan)
	acct.TextRemaining = plan.TextTokens
	acct.ImageRemaining = plan.ImageTokens
	acct.ResetsAt = nextReset(now, acct.Cycle)
	s.data[userID] = acct
	return acct, nil
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

var _ store = (*memoryStore)(nil)
