package quota

import "time"

// Kind identifies a token budget bucket.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Cycle is the recurring billing period after which allotments refill.
type Cycle string

const (
	CycleMonthly Cycle = "monthly"
	CycleAnnual  Cycle = "annual"
)

const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
)

// Account is a user's token budget snapshot.
type Account struct {
	UserID         string    `json:"userId"`
	Plan           string    `json:"plan"`
	Cycle          Cycle     `json:"cycle"`
	TextRemaining  int64     `json:"textRemaining"`
	ImageRemaining int64     `json:"imageRemaining"`
	ResetsAt       time.Time `json:"resetsAt"`
	Status         string    `json:"status"`
}

// Remaining returns the balance for a kind.
func (a Account) Remaining(kind Kind) int64 {
	if kind == KindImage {
		return a.ImageRemaining
	}
	return a.TextRemaining
}

// State is the ledger state machine position for one kind.
type State string

const (
	StateActive    State = "active"
	StateExhausted State = "exhausted"
	StateExpired   State = "expired"
)

// StateFor reports the account's state for a kind at the given instant.
func (a Account) StateFor(kind Kind, now time.Time) State {
	if !now.Before(a.ResetsAt) {
		return StateExpired
	}
	if a.Remaining(kind) <= 0 {
		return StateExhausted
	}
	return StateActive
}

// nextReset advances a reset timestamp by exactly one billing cycle.
func nextReset(from time.Time, cycle Cycle) time.Time {
	if cycle == CycleAnnual {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
