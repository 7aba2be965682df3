// Package account implements the Account Registry (spec.md §4.3): the
// per-user scraping-identity store that the Dispatcher draws eligible
// accounts from and reports outcomes back to.
package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/db"
	"github.com/caasmo/restinpieces/queue"
)

// notifyCooldown bounds how often a repeated hard-failure on the same
// account re-triggers the "account blocked" notification, via
// queue.PayloadAccountBlocked's Bucket field.
const notifyCooldown = 1 * time.Hour

// Registry wraps db.Db's account primitives, applying config.Accounts
// thresholds and enqueuing the account-blocked notify job on transition to
// AccountFailed.
type Registry struct {
	db     db.Db
	logger *slog.Logger
	cfg    func() config.Accounts
}

// New builds a Registry over d, reading thresholds from cfg on every call
// so config hot-reload takes effect without recreating the Registry.
func New(d db.Db, logger *slog.Logger, cfg func() config.Accounts) *Registry {
	return &Registry{db: d, logger: logger, cfg: cfg}
}

// ListByUser returns every account owned by userID, regardless of eligibility.
func (r *Registry) ListByUser(userID string) ([]*db.Account, error) {
	return r.db.ListAccountsByUser(userID)
}

// ListEligible returns userID's accounts currently eligible to serve work
// (spec.md §3), optionally restricted to restrictToIDs.
func (r *Registry) ListEligible(userID string, restrictToIDs []string, now time.Time) ([]*db.Account, error) {
	return r.db.ListEligibleAccounts(userID, restrictToIDs, now)
}

// Get returns a single account by ID.
func (r *Registry) Get(accountID string) (*db.Account, error) {
	return r.db.GetAccount(accountID)
}

// Reserve atomically re-checks accountID's eligibility and bumps its daily
// counter. It returns db.ErrAccountBusy when another dispatcher already
// consumed the last quota slot.
func (r *Registry) Reserve(accountID string, now time.Time) error {
	ok, err := r.db.ReserveAccountRequest(accountID, now)
	if err != nil {
		return fmt.Errorf("reserve account %s: %w", accountID, err)
	}
	if !ok {
		return db.ErrAccountBusy
	}
	return nil
}

// ReportOutcome applies the state transition of spec.md §4.3 for one
// worker result and, on a transition into AccountFailed, enqueues the
// account-blocked notify job so the owning user gets told.
func (r *Registry) ReportOutcome(accountID string, outcome db.AccountOutcome, now time.Time) error {
	blockDuration := r.cfg().HardFailureBlockDuration.Duration
	if err := r.db.ReportAccountOutcome(accountID, outcome, now, blockDuration); err != nil {
		return fmt.Errorf("report outcome for account %s: %w", accountID, err)
	}

	if outcome != db.OutcomeHardFailure {
		return nil
	}

	acct, err := r.db.GetAccount(accountID)
	if err != nil {
		r.logger.Error("account registry: failed to reload account after hard failure", "account_id", accountID, "error", err)
		return nil
	}
	if acct.Status != db.AccountFailed {
		return nil
	}

	return r.notifyBlocked(acct, now)
}

func (r *Registry) notifyBlocked(acct *db.Account, now time.Time) error {
	user, err := r.db.GetUserByID(acct.UserID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		r.logger.Error("account registry: failed to load owning user for notify job", "account_id", acct.ID, "error", err)
		return nil
	}

	payload := queue.PayloadAccountBlocked{
		UserID:    acct.UserID,
		AccountID: acct.ID,
		Reason:    fmt.Sprintf("consecutive_failures=%d reached block threshold", acct.ConsecutiveFailures),
		Bucket:    queue.CoolDownBucket(notifyCooldown, now),
	}
	if user != nil {
		payload.Email = user.Email
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal account-blocked payload: %w", err)
	}

	if err := r.db.InsertNotifyJob(queue.JobTypeAccountBlocked, body, now); err != nil {
		return fmt.Errorf("insert account-blocked notify job: %w", err)
	}

	r.logger.Info("account blocked", "account_id", acct.ID, "user_id", acct.UserID)
	return nil
}

// ResetDailyCounters zeroes requests_today for every account, invoked by the
// Reconciler at the day boundary.
func (r *Registry) ResetDailyCounters(now time.Time) (int, error) {
	return r.db.ResetDailyCounters(now)
}

// UnblockAccounts clears cooldown_until/blocked_until for accounts whose
// deadline has passed, invoked by the Reconciler every minute.
func (r *Registry) UnblockAccounts(now time.Time) (int, error) {
	return r.db.UnblockAccounts(now)
}
