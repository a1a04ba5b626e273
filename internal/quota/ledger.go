package quota

import (
	"context"
	"time"
)

// store is the persistence contract for usage accounts. Every method may
// perform the lazy Expired->Active reset before doing its work.
type store interface {
	Get(ctx context.Context, userID string) (Account, error)
	CheckAndReserve(ctx context.Context, userID string, kind Kind, amount int64) (bool, Account, error)
	Refund(ctx context.Context, userID string, kind Kind, amount int64) (Account, error)
	Reset(ctx context.Context, userID string) (Account, error)
}

// Ledger enforces per-user token budgets.
//
// Cycle resets are lazy: the first call after the reset timestamp passes
// refills both kinds to the plan allotment and advances the timestamp by
// one billing cycle, inside the same atomic step as the requested
// operation. There is no background scheduler, which means every Ledger
// call (including Get) can mutate the account.
type Ledger struct {
	store store
}

// NewLedger constructs a Ledger with an in-memory store.
func NewLedger() *Ledger {
	return &Ledger{store: newMemoryStore(time.Now)}
}

// NewPostgresLedger constructs a Ledger backed by Postgres.
func NewPostgresLedger(pg store) *Ledger {
	return &Ledger{store: pg}
}

// Get returns the account snapshot, initializing defaults for unseen
// users and applying a due cycle reset first.
func (l *Ledger) Get(ctx context.Context, userID string) (Account, error) {
	return l.store.Get(ctx, userID)
}

// CheckAndReserve atomically applies a due cycle reset, then decrements
// the balance for kind when at least amount remains. Insufficient
// balance is a normal ok=false outcome with the balance unchanged, not
// an error: callers branch on it to produce an upgrade prompt.
func (l *Ledger) CheckAndReserve(ctx context.Context, userID string, kind Kind, amount int64) (bool, Account, error) {
	if amount <= 0 {
		return false, Account{}, ErrInvalidAmount
	}
	if kind != KindText && kind != KindImage {
		return false, Account{}, ErrUnknownKind
	}
	return l.store.CheckAndReserve(ctx, userID, kind, amount)
}

// Refund reverses a reservation after downstream work failed, so a user
// is never charged for a failed operation. The balance is clamped at the
// plan allotment in case a cycle reset landed between the reservation
// and the refund.
func (l *Ledger) Refund(ctx context.Context, userID string, kind Kind, amount int64) (Account, error) {
	if amount <= 0 {
		return Account{}, ErrInvalidAmount
	}
	if kind != KindText && kind != KindImage {
		return Account{}, ErrUnknownKind
	}
	return l.store.Refund(ctx, userID, kind, amount)
}

// ResetCycleIfDue applies the lazy reset without reserving anything. The
// same transition also runs implicitly on every other ledger call.
func (l *Ledger) ResetCycleIfDue(ctx context.Context, userID string) (Account, error) {
	return l.store.Get(ctx, userID)
}

// Reset forcibly refills the account and restarts the cycle. Dev only.
func (l *Ledger) Reset(ctx context.Context, userID string) (Account, error) {
	return l.store.Reset(ctx, userID)
}
