package quota

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func accountRows(t *testing.T, textRemaining, imageRemaining int64, resetsAt time.Time) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{"user_id", "plan", "cycle", "text_remaining", "image_remaining", "resets_at", "status"}).
		AddRow("user-1", "free", "monthly", textRemaining, imageRemaining, resetsAt, "active")
}

func TestPGStoreReserveLocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	resetsAt := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, plan, cycle, text_remaining, image_remaining, resets_at, status").
		WithArgs("user-1").
		WillReturnRows(accountRows(t, 1000, 20, resetsAt))
	mock.ExpectExec("UPDATE usage_accounts SET text_remaining").
		WithArgs(int64(900), int64(20), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	ok, acct, err := store.CheckAndReserve(context.Background(), "user-1", KindText, 100)
	if err != nil {
		t.Fatalf("CheckAndReserve: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if acct.TextRemaining != 900 {
		t.Fatalf("expected 900 remaining, got %d", acct.TextRemaining)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreReserveInsufficientLeavesRowUntouched(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	resetsAt := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, plan, cycle, text_remaining, image_remaining, resets_at, status").
		WithArgs("user-1").
		WillReturnRows(accountRows(t, 50, 20, resetsAt))
	mock.ExpectCommit()

	store := NewPGStore(db)
	ok, acct, err := store.CheckAndReserve(context.Background(), "user-1", KindText, 100)
	if err != nil {
		t.Fatalf("CheckAndReserve: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false")
	}
	if acct.TextRemaining != 50 {
		t.Fatalf("expected balance unchanged at 50, got %d", acct.TextRemaining)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreLazyResetOnExpiredRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	expired := time.Now().UTC().Add(-time.Hour)
	plan := PlanByID("free")
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, plan, cycle, text_remaining, image_remaining, resets_at, status").
		WithArgs("user-1").
		WillReturnRows(accountRows(t, 0, 0, expired))
	// reset refill
	mock.ExpectExec("UPDATE usage_accounts SET text_remaining").
		WithArgs(plan.TextTokens, plan.ImageTokens, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// reservation
	mock.ExpectExec("UPDATE usage_accounts SET text_remaining").
		WithArgs(plan.TextTokens-10, plan.ImageTokens, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	ok, acct, err := store.CheckAndReserve(context.Background(), "user-1", KindText, 10)
	if err != nil {
		t.Fatalf("CheckAndReserve: %v", err)
	}
	if !ok {
		t.Fatal("expected reservation to succeed after lazy reset")
	}
	if want := nextReset(expired, CycleMonthly); !acct.ResetsAt.Equal(want) {
		t.Fatalf("expected resetsAt advanced one cycle to %v, got %v", want, acct.ResetsAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreInsertsDefaultAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, plan, cycle, text_remaining, image_remaining, resets_at, status").
		WithArgs("new-user").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "plan", "cycle", "text_remaining", "image_remaining", "resets_at", "status"}))
	mock.ExpectExec("INSERT INTO usage_accounts").
		WithArgs("new-user", "free", "monthly", PlanByID("free").TextTokens, PlanByID("free").ImageTokens, sqlmock.AnyArg(), "active").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	acct, err := store.Get(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if acct.Plan != "free" {
		t.Fatalf("expected free plan, got %s", acct.Plan)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
