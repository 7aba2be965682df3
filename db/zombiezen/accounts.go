package zombiezen

import (
	"context"
	"fmt"
	"time"

	"github.com/caasmo/restinpieces/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const accountColumns = `id, user_id, session_material, status, daily_request_limit,
	requests_today, last_request_at, cooldown_until, blocked_until,
	consecutive_failures, version, created, updated`

func scanAccount(stmt *sqlite.Stmt) (*db.Account, error) {
	lastReq, err := db.TimeParse(stmt.GetText("last_request_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing last_request_at: %w", err)
	}
	cooldown, err := db.TimeParse(stmt.GetText("cooldown_until"))
	if err != nil {
		return nil, fmt.Errorf("error parsing cooldown_until: %w", err)
	}
	blocked, err := db.TimeParse(stmt.GetText("blocked_until"))
	if err != nil {
		return nil, fmt.Errorf("error parsing blocked_until: %w", err)
	}
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created: %w", err)
	}
	updated, err := db.TimeParse(stmt.GetText("updated"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated: %w", err)
	}

	return &db.Account{
		ID:                  stmt.GetText("id"),
		UserID:              stmt.GetText("user_id"),
		SessionMaterial:     stmt.GetText("session_material"),
		Status:              db.AccountStatus(stmt.GetText("status")),
		DailyRequestLimit:   int(stmt.GetInt64("daily_request_limit")),
		RequestsToday:       int(stmt.GetInt64("requests_today")),
		LastRequestAt:       lastReq,
		CooldownUntil:       cooldown,
		BlockedUntil:        blocked,
		ConsecutiveFailures: int(stmt.GetInt64("consecutive_failures")),
		Version:             int(stmt.GetInt64("version")),
		Created:             created,
		Updated:             updated,
	}, nil
}

// ListAccountsByUser returns every scraping identity owned by the user.
func (d *Db) ListAccountsByUser(userID string) ([]*db.Account, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var accounts []*db.Account
	var scanErr error
	err = sqlitex.Execute(conn,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				a, e := scanAccount(stmt)
				if e != nil {
					scanErr = e
					return e
				}
				accounts = append(accounts, a)
				return nil
			},
			Args: []interface{}{userID},
		})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return accounts, nil
}

// ListEligibleAccounts applies the eligibility predicate of spec.md §3 in
// SQL so the candidate set the Dispatcher ranks is already filtered.
// restrictToIDs, when non-empty, further narrows the set to those IDs
// (the job's frozen AccountAssignment set).
func (d *Db) ListEligibleAccounts(userID string, restrictToIDs []string, now time.Time) ([]*db.Account, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE user_id = ?
		AND status IN ('ACTIVE', 'PENDING')
		AND (cooldown_until IS NULL OR cooldown_until = '' OR cooldown_until <= ?)
		AND (blocked_until IS NULL OR blocked_until = '' OR blocked_until <= ?)
		AND requests_today < daily_request_limit`

	args := []interface{}{userID, nowStr, nowStr}
	if len(restrictToIDs) > 0 {
		placeholders := ""
		for i, id := range restrictToIDs {
			if i > 0 {
				placeholders += ","
			}
			placeholders += "?"
			args = append(args, id)
		}
		query += fmt.Sprintf(" AND id IN (%s)", placeholders)
	}
	query += ` ORDER BY requests_today ASC, last_request_at ASC`

	var accounts []*db.Account
	var scanErr error
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			a, e := scanAccount(stmt)
			if e != nil {
				scanErr = e
				return e
			}
			accounts = append(accounts, a)
			return nil
		},
		Args: args,
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return accounts, nil
}

// GetAccount fetches one account by id.
func (d *Db) GetAccount(accountID string) (*db.Account, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var account *db.Account
	var scanErr error
	err = sqlitex.Execute(conn,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				account, scanErr = scanAccount(stmt)
				return scanErr
			},
			Args: []interface{}{accountID},
		})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, db.ErrNotFound
	}
	return account, nil
}

// ReserveAccountRequest is the single conditional UPDATE of spec.md §4.3:
// no read-modify-write, the WHERE clause re-states the full eligibility
// predicate so a losing caller gets zero rows changed instead of a stale read.
func (d *Db) ReserveAccountRequest(accountID string, now time.Time) (bool, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return false, err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	err = sqlitex.Execute(conn,
		`UPDATE accounts SET
			requests_today = requests_today + 1,
			last_request_at = ?,
			version = version + 1,
			updated = ?
		WHERE id = ?
			AND status IN ('ACTIVE', 'PENDING')
			AND (cooldown_until IS NULL OR cooldown_until = '' OR cooldown_until <= ?)
			AND (blocked_until IS NULL OR blocked_until = '' OR blocked_until <= ?)
			AND requests_today < daily_request_limit`,
		&sqlitex.ExecOptions{Args: []interface{}{nowStr, nowStr, accountID, nowStr, nowStr}})
	if err != nil {
		return false, fmt.Errorf("reserve account request: %w", err)
	}

	return conn.Changes() > 0, nil
}

// ReportAccountOutcome applies the Account Registry state transition of
// spec.md §4.3 for one of {success, transient_failure, hard_failure}.
func (d *Db) ReportAccountOutcome(accountID string, outcome db.AccountOutcome, now time.Time, blockDuration time.Duration) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)

	switch outcome {
	case db.OutcomeSuccess:
		return sqlitex.Execute(conn,
			`UPDATE accounts SET consecutive_failures = 0, version = version + 1, updated = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []interface{}{nowStr, accountID}})

	case db.OutcomeTransientFailure:
		cooldownUntil := db.TimeFormat(now.Add(30 * time.Minute))
		return sqlitex.Execute(conn,
			`UPDATE accounts SET
				consecutive_failures = consecutive_failures + 1,
				cooldown_until = CASE WHEN consecutive_failures + 1 >= 3 THEN ? ELSE cooldown_until END,
				version = version + 1,
				updated = ?
			WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []interface{}{cooldownUntil, nowStr, accountID}})

	case db.OutcomeHardFailure:
		if blockDuration <= 0 {
			blockDuration = 60 * time.Minute
		}
		blockedUntil := db.TimeFormat(now.Add(blockDuration))
		return sqlitex.Execute(conn,
			`UPDATE accounts SET
				blocked_until = ?,
				consecutive_failures = consecutive_failures + 1,
				status = CASE WHEN consecutive_failures + 1 >= 5 THEN 'FAILED' ELSE status END,
				version = version + 1,
				updated = ?
			WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []interface{}{blockedUntil, nowStr, accountID}})

	default:
		return fmt.Errorf("report account outcome: unknown outcome %q", outcome)
	}
}

// ResetDailyCounters zeroes requests_today for every account; invoked by
// the Reconciler at local midnight.
func (d *Db) ResetDailyCounters(now time.Time) (int, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE accounts SET requests_today = 0, updated = ? WHERE requests_today != 0`,
		&sqlitex.ExecOptions{Args: []interface{}{db.TimeFormat(now)}})
	if err != nil {
		return 0, err
	}
	return conn.Changes(), nil
}

// UnblockAccounts clears cooldown_until/blocked_until fields whose
// deadline has passed; invoked by the Reconciler every minute.
func (d *Db) UnblockAccounts(now time.Time) (int, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	err = sqlitex.Execute(conn,
		`UPDATE accounts SET
			cooldown_until = CASE WHEN cooldown_until IS NOT NULL AND cooldown_until != '' AND cooldown_until <= ? THEN '' ELSE cooldown_until END,
			blocked_until = CASE WHEN blocked_until IS NOT NULL AND blocked_until != '' AND blocked_until <= ? THEN '' ELSE blocked_until END,
			updated = ?
		WHERE (cooldown_until IS NOT NULL AND cooldown_until != '' AND cooldown_until <= ?)
			OR (blocked_until IS NOT NULL AND blocked_until != '' AND blocked_until <= ?)`,
		&sqlitex.ExecOptions{Args: []interface{}{nowStr, nowStr, nowStr, nowStr, nowStr}})
	if err != nil {
		return 0, err
	}
	return conn.Changes(), nil
}
