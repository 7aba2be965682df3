package account

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/db"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCfg() config.Accounts {
	return config.Accounts{
		HardFailureBlockDuration:       config.Duration{Duration: 60 * time.Minute},
		TransientFailureCooldown:       config.Duration{Duration: 30 * time.Minute},
		ConsecutiveFailuresForCooldown: 3,
		ConsecutiveFailuresForBlock:    5,
	}
}

func TestRegistry_Reserve_Busy(t *testing.T) {
	m := &mockDB{
		ReserveAccountRequestFunc: func(accountID string, now time.Time) (bool, error) {
			return false, nil
		},
	}
	r := New(m, testLogger(), testCfg)

	err := r.Reserve("acct-1", time.Now())
	if !errors.Is(err, db.ErrAccountBusy) {
		t.Fatalf("expected ErrAccountBusy, got %v", err)
	}
}

func TestRegistry_Reserve_Ok(t *testing.T) {
	m := &mockDB{
		ReserveAccountRequestFunc: func(accountID string, now time.Time) (bool, error) {
			return true, nil
		},
	}
	r := New(m, testLogger(), testCfg)

	if err := r.Reserve("acct-1", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry_ReportOutcome_HardFailureNotifies(t *testing.T) {
	var insertedType string
	var insertedPayload []byte
	var gotBlockDuration time.Duration

	m := &mockDB{
		ReportAccountOutcomeFunc: func(accountID string, outcome db.AccountOutcome, now time.Time, blockDuration time.Duration) error {
			gotBlockDuration = blockDuration
			return nil
		},
		GetAccountFunc: func(accountID string) (*db.Account, error) {
			return &db.Account{
				ID:                  accountID,
				UserID:              "user-1",
				Status:              db.AccountFailed,
				ConsecutiveFailures: 5,
			}, nil
		},
		GetUserByIDFunc: func(id string) (*db.User, error) {
			return &db.User{ID: id, Email: "owner@example.com"}, nil
		},
		InsertNotifyJobFunc: func(jobType string, payload []byte, now time.Time) error {
			insertedType = jobType
			insertedPayload = payload
			return nil
		},
	}

	r := New(m, testLogger(), testCfg)
	if err := r.ReportOutcome("acct-1", db.OutcomeHardFailure, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBlockDuration != 60*time.Minute {
		t.Fatalf("expected block duration 60m, got %v", gotBlockDuration)
	}
	if insertedType == "" {
		t.Fatal("expected a notify job to be inserted")
	}
	if insertedPayload == nil {
		t.Fatal("expected a notify job payload")
	}
}

func TestRegistry_ReportOutcome_HardFailureWithoutStatusChangeSkipsNotify(t *testing.T) {
	notified := false
	m := &mockDB{
		GetAccountFunc: func(accountID string) (*db.Account, error) {
			return &db.Account{ID: accountID, Status: db.AccountActive, ConsecutiveFailures: 1}, nil
		},
		InsertNotifyJobFunc: func(jobType string, payload []byte, now time.Time) error {
			notified = true
			return nil
		},
	}

	r := New(m, testLogger(), testCfg)
	if err := r.ReportOutcome("acct-1", db.OutcomeHardFailure, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notified {
		t.Fatal("expected no notify job when account did not transition to FAILED")
	}
}

func TestRegistry_ReportOutcome_SuccessDoesNotNotify(t *testing.T) {
	notified := false
	m := &mockDB{
		InsertNotifyJobFunc: func(jobType string, payload []byte, now time.Time) error {
			notified = true
			return nil
		},
	}
	r := New(m, testLogger(), testCfg)
	if err := r.ReportOutcome("acct-1", db.OutcomeSuccess, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notified {
		t.Fatal("success outcome must never notify")
	}
}
