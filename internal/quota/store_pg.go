package quota

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGStore implements the account store on Postgres. Atomicity of
// CheckAndReserve comes from a transaction holding a row lock
// (SELECT ... FOR UPDATE) for the read-modify-write.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed account store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Get(ctx context.Context, userID string) (Account, error) {
	return s.inTx(ctx, func(tx *sql.Tx) (Account, error) {
		return s.lockAndEnsure(ctx, tx, userID)
	})
}

func (s *PGStore) CheckAndReserve(ctx context.Context, userID string, kind Kind, amount int64) (bool, Account, error) {
	ok := false
	acct, err := s.inTx(ctx, func(tx *sql.Tx) (Account, error) {
		acct, err := s.lockAndEnsure(ctx, tx, userID)
		if err != nil {
			return Account{}, err
		}
		if acct.Remaining(kind) < amount {
			return acct, nil
		}
		if kind == KindImage {
			acct.ImageRemaining -= amount
		} else {
			acct.TextRemaining -= amount
		}
		if err := s.writeBalances(ctx, tx, acct); err != nil {
			return Account{}, err
		}
		ok = true
		return acct, nil
	})
	if err != nil {
		return false, Account{}, err
	}
	return ok, acct, nil
}

func (s *PGStore) Refund(ctx context.Context, userID string, kind Kind, amount int64) (Account, error) {
	return s.inTx(ctx, func(tx *sql.Tx) (Account, error) {
		acct, err := s.lockAndEnsure(ctx, tx, userID)
		if err != nil {
			return Account{}, err
		}
		plan := PlanByID(acct.Plan)
		if kind == KindImage {
			acct.ImageRemaining = minInt64(acct.ImageRemaining+amount, plan.ImageTokens)
		} else {
			acct.TextRemaining = minInt64(acct.TextRemaining+amount, plan.TextTokens)
		}
		if err := s.writeBalances(ctx, tx, acct); err != nil {
			return Account{}, err
		}
		return acct, nil
	})
}

func (s *PGStore) Reset(ctx context.Context, userID string) (Account, error) {
	return s.inTx(ctx, func(tx *sql.Tx) (Account, error) {
		acct, err := s.lockAndEnsure(ctx, tx, userID)
		if err != nil {
			return Account{}, err
		}
		plan := PlanByID(acct.Plan)
		acct.TextRemaining = plan.TextTokens
		acct.ImageRemaining = plan.ImageTokens
		acct.ResetsAt = nextReset(time.Now().UTC(), acct.Cycle)
		if _, err := tx.ExecContext(ctx, `
UPDATE usage_accounts SET text_remaining = $1, image_remaining = $2, resets_at = $3
WHERE user_id = $4`, acct.TextRemaining, acct.ImageRemaining, acct.ResetsAt, acct.UserID); err != nil {
			return Account{}, err
		}
		return acct, nil
	})
}

func (s *PGStore) inTx(ctx context.Context, fn func(tx *sql.Tx) (Account, error)) (Account, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	var acct Account
	acct, err = fn(tx)
	if err != nil {
		return Account{}, err
	}
	if err = tx.Commit(); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// lockAndEnsure locks the account row, inserting the default free
// account for unseen users and applying a due lazy cycle reset.
func (s *PGStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (Account, error) {
	var acct Account
	row := tx.QueryRowContext(ctx, `
SELECT user_id, plan, cycle, text_remaining, image_remaining, resets_at, status
FROM usage_accounts WHERE user_id = $1 FOR UPDATE`, userID)
	err := row.Scan(&acct.UserID, &acct.Plan, &acct.Cycle, &acct.TextRemaining, &acct.ImageRemaining, &acct.ResetsAt, &acct.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			acct = defaultAccount(userID, time.Now().UTC())
			if _, err := tx.ExecContext(ctx, `
INSERT INTO usage_accounts (user_id, plan, cycle, text_remaining, image_remaining, resets_at, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				acct.UserID, acct.Plan, acct.Cycle, acct.TextRemaining, acct.ImageRemaining, acct.ResetsAt, acct.Status); err != nil {
				return Account{}, err
			}
			return acct, nil
		}
		return Account{}, err
	}

	now := time.Now().UTC()
	if !now.Before(acct.ResetsAt) {
		plan := PlanByID(acct.Plan)
		acct.TextRemaining = plan.TextTokens
		acct.ImageRemaining = plan.ImageTokens
		acct.ResetsAt = nextReset(acct.ResetsAt, acct.Cycle)
		if _, err := tx.ExecContext(ctx, `
UPDATE usage_accounts SET text_remaining = $1, image_remaining = $2, resets_at = $3
WHERE user_id = $4`, acct.TextRemaining, acct.ImageRemaining, acct.ResetsAt, acct.UserID); err != nil {
			return Account{}, err
		}
	}
	return acct, nil
}

func (s *PGStore) writeBalances(ctx context.Context, tx *sql.Tx, acct Account) error {
	_, err := tx.ExecContext(ctx, `
UPDATE usage_accounts SET text_remaining = $1, image_remaining = $2
WHERE user_id = $3`, acct.TextRemaining, acct.ImageRemaining, acct.UserID)
	return err
}

var _ store = (*PGStore)(nil)
