package zombiezen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caasmo/restinpieces/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const jobColumns = `id, user_id, type, status, max_results, configuration,
	total_urls, processed_urls, successful_urls, failed_urls, result_count,
	error_message, created_at, started_at, completed_at, paused_at, resumed_at, updated_at`

func scanJob(stmt *sqlite.Stmt) (*db.Job, error) {
	var cfg db.JobConfiguration
	if raw := stmt.GetText("configuration"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, fmt.Errorf("error parsing job configuration: %w", err)
		}
	}

	createdAt, err := db.TimeParse(stmt.GetText("created_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created_at: %w", err)
	}
	startedAt, err := db.TimeParse(stmt.GetText("started_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing started_at: %w", err)
	}
	completedAt, err := db.TimeParse(stmt.GetText("completed_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing completed_at: %w", err)
	}
	pausedAt, err := db.TimeParse(stmt.GetText("paused_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing paused_at: %w", err)
	}
	resumedAt, err := db.TimeParse(stmt.GetText("resumed_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing resumed_at: %w", err)
	}
	updatedAt, err := db.TimeParse(stmt.GetText("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated_at: %w", err)
	}

	return &db.Job{
		ID:             stmt.GetText("id"),
		UserID:         stmt.GetText("user_id"),
		Type:           db.JobType(stmt.GetText("type")),
		Status:         db.JobStatus(stmt.GetText("status")),
		MaxResults:     int(stmt.GetInt64("max_results")),
		Configuration:  cfg,
		TotalURLs:      int(stmt.GetInt64("total_urls")),
		ProcessedURLs:  int(stmt.GetInt64("processed_urls")),
		SuccessfulURLs: int(stmt.GetInt64("successful_urls")),
		FailedURLs:     int(stmt.GetInt64("failed_urls")),
		ResultCount:    int(stmt.GetInt64("result_count")),
		ErrorMessage:   stmt.GetText("error_message"),
		CreatedAt:      createdAt,
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
		PausedAt:       pausedAt,
		ResumedAt:      resumedAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func scanURLItem(stmt *sqlite.Stmt) (*db.UrlWorkItem, error) {
	leasedUntil, err := db.TimeParse(stmt.GetText("leased_until"))
	if err != nil {
		return nil, fmt.Errorf("error parsing leased_until: %w", err)
	}
	createdAt, err := db.TimeParse(stmt.GetText("created_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created_at: %w", err)
	}
	updatedAt, err := db.TimeParse(stmt.GetText("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated_at: %w", err)
	}

	return &db.UrlWorkItem{
		ID:          stmt.GetText("id"),
		JobID:       stmt.GetText("job_id"),
		URL:         stmt.GetText("url"),
		Status:      db.UrlWorkItemStatus(stmt.GetText("status")),
		Attempts:    int(stmt.GetInt64("attempts")),
		LastError:   stmt.GetText("last_error"),
		LeasedUntil: leasedUntil,
		LeasedBy:    stmt.GetText("leased_by"),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// CountActiveJobsByUser counts jobs in {pending,running,paused} for the
// concurrency-limit check of spec.md §4.5 step 2.
func (d *Db) CountActiveJobsByUser(userID string) (int, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn,
		`SELECT COUNT(*) AS c FROM jobs WHERE user_id = ? AND status IN ('pending', 'running', 'paused')`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = int(stmt.GetInt64("c"))
				return nil
			},
			Args: []interface{}{userID},
		})
	return count, err
}

// SubmitJob runs the atomic portion of admission (spec.md §4.5 steps 2-8)
// inside one savepoint: re-check concurrency, debit credits, insert the
// job row, insert one url_work_items row per URL, and freeze the account
// assignment set. It never touches the queue — EnqueueWorkItem is a
// separate, post-commit call made by the admission controller once this
// returns successfully.
func (d *Db) SubmitJob(p db.SubmitJobParams) (*db.SubmitJobResult, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var result *db.SubmitJobResult
	txErr := withTx(conn, func() error {
		var user *db.User
		var scanErr error
		if err := sqlitex.Execute(conn,
			`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					user, scanErr = scanUser(stmt)
					return scanErr
				},
				Args: []interface{}{p.UserID},
			}); err != nil {
			return err
		}
		if user == nil {
			return db.ErrNotFound
		}

		var activeCount int
		if err := sqlitex.Execute(conn,
			`SELECT COUNT(*) AS c FROM jobs WHERE user_id = ? AND status IN ('pending', 'running', 'paused')`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					activeCount = int(stmt.GetInt64("c"))
					return nil
				},
				Args: []interface{}{p.UserID},
			}); err != nil {
			return err
		}
		if activeCount >= user.MaxConcurrentJobs {
			return db.ErrConcurrentLimitExceeded
		}

		creditsNeeded := int64(len(p.URLs))
		if creditsNeeded == 0 {
			creditsNeeded = 1
		}
		if user.CreditsBalance < creditsNeeded {
			return db.ErrInsufficientCredits
		}

		cfg := db.JobConfiguration{
			SelectedAccountIDs:   p.SelectedAccountIDs,
			AccountSelectionMode: p.AccountSelectionMode,
		}
		cfgJSON, err := json.Marshal(cfg)
		if err != nil {
			return err
		}

		nowStr := db.TimeFormat(p.Now)
		var job *db.Job
		if err := sqlitex.Execute(conn,
			`INSERT INTO jobs
				(user_id, type, status, max_results, configuration, total_urls, created_at, updated_at)
			VALUES (?, ?, 'pending', ?, ?, ?, ?, ?)
			RETURNING `+jobColumns,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					job, scanErr = scanJob(stmt)
					return scanErr
				},
				Args: []interface{}{p.UserID, string(p.Type), p.MaxResults, string(cfgJSON), len(p.URLs), nowStr, nowStr},
			}); err != nil {
			return err
		}

		var urlItems []*db.UrlWorkItem
		for _, u := range p.URLs {
			var item *db.UrlWorkItem
			if err := sqlitex.Execute(conn,
				`INSERT INTO url_work_items (job_id, url, status, created_at, updated_at)
				VALUES (?, ?, 'pending', ?, ?)
				RETURNING id, job_id, url, status, attempts, last_error, leased_until, leased_by, created_at, updated_at`,
				&sqlitex.ExecOptions{
					ResultFunc: func(stmt *sqlite.Stmt) error {
						item, scanErr = scanURLItem(stmt)
						return scanErr
					},
					Args: []interface{}{job.ID, u, nowStr, nowStr},
				}); err != nil {
				return err
			}
			urlItems = append(urlItems, item)
		}

		for _, accID := range p.SelectedAccountIDs {
			if err := sqlitex.Execute(conn,
				`INSERT INTO account_assignments (job_id, account_id) VALUES (?, ?)`,
				&sqlitex.ExecOptions{Args: []interface{}{job.ID, accID}}); err != nil {
				return err
			}
		}

		newBalance := user.CreditsBalance - creditsNeeded
		if err := sqlitex.Execute(conn,
			`UPDATE users SET credits_balance = ?, credits_used = credits_used + ?, updated = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []interface{}{newBalance, creditsNeeded, nowStr, p.UserID}}); err != nil {
			return err
		}

		result = &db.SubmitJobResult{
			Job:            job,
			URLItems:       urlItems,
			CreditsNeeded:  creditsNeeded,
			CreditsBalance: newBalance,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return result, nil
}

func (d *Db) GetJob(jobID string) (*db.Job, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var job *db.Job
	var scanErr error
	err = sqlitex.Execute(conn,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				job, scanErr = scanJob(stmt)
				return scanErr
			},
			Args: []interface{}{jobID},
		})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	if job == nil {
		return nil, db.ErrNotFound
	}
	return job, nil
}

func (d *Db) ListJobsByUser(userID string, limit, offset int) ([]*db.Job, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	if limit <= 0 {
		limit = 50
	}

	var jobs []*db.Job
	var scanErr error
	err = sqlitex.Execute(conn,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				j, e := scanJob(stmt)
				if e != nil {
					scanErr = e
					return e
				}
				jobs = append(jobs, j)
				return nil
			},
			Args: []interface{}{userID, limit, offset},
		})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return jobs, nil
}

// TransitionJob is the one gate every job-status mutation passes through:
// a conditional UPDATE so re-delivery of the same request is a no-op
// rather than a double transition.
func (d *Db) TransitionJob(jobID string, from []db.JobStatus, to db.JobStatus, now time.Time) (bool, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return false, err
	}
	defer d.pool.Put(conn)

	placeholders := ""
	args := []interface{}{string(to), db.TimeFormat(now), jobID}
	for i, s := range from {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, string(s))
	}

	extraCol := ""
	switch to {
	case db.JobRunning:
		extraCol = ", started_at = COALESCE(NULLIF(started_at, ''), " + sqliteQuoteTime(now) + ")"
	case db.JobCompleted, db.JobFailed, db.JobCancelled:
		extraCol = ", completed_at = " + sqliteQuoteTime(now)
	case db.JobPaused:
		extraCol = ", paused_at = " + sqliteQuoteTime(now)
	}

	query := fmt.Sprintf(
		`UPDATE jobs SET status = ?, updated_at = ?%s WHERE id = ? AND status IN (%s)`,
		extraCol, placeholders)

	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args})
	if err != nil {
		return false, err
	}
	return conn.Changes() > 0, nil
}

// sqliteQuoteTime renders a literal RFC3339 timestamp for embedding in a
// generated SET clause; the value never comes from user input.
func sqliteQuoteTime(t time.Time) string {
	return "'" + db.TimeFormat(t) + "'"
}

func (d *Db) SetJobProgress(jobID string, percent int, message, currentURL string, now time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	return sqlitex.Execute(conn,
		`UPDATE jobs SET updated_at = ? WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []interface{}{db.TimeFormat(now), jobID}})
}

func (d *Db) SetJobError(jobID, errMsg string, fatal bool, now time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	if fatal {
		return sqlitex.Execute(conn,
			`UPDATE jobs SET status = 'failed', error_message = ?, completed_at = ?, updated_at = ?
			WHERE id = ? AND status NOT IN ('completed', 'failed', 'cancelled')`,
			&sqlitex.ExecOptions{Args: []interface{}{errMsg, db.TimeFormat(now), db.TimeFormat(now), jobID}})
	}
	return sqlitex.Execute(conn,
		`UPDATE jobs SET error_message = ?, updated_at = ? WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []interface{}{errMsg, db.TimeFormat(now), jobID}})
}

func (d *Db) CancelJob(jobID string, now time.Time) error {
	ok, err := d.TransitionJob(jobID, []db.JobStatus{db.JobPending, db.JobRunning, db.JobPaused}, db.JobCancelled, now)
	if err != nil {
		return err
	}
	if !ok {
		return db.ErrInvalidJobState
	}
	return nil
}

func (d *Db) PauseJob(jobID string, now time.Time) error {
	ok, err := d.TransitionJob(jobID, []db.JobStatus{db.JobPending, db.JobRunning}, db.JobPaused, now)
	if err != nil {
		return err
	}
	if !ok {
		return db.ErrInvalidJobState
	}
	return nil
}

func (d *Db) ResumeJob(jobID string, now time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	err = sqlitex.Execute(conn,
		`UPDATE jobs SET status = 'running', resumed_at = ?, updated_at = ? WHERE id = ? AND status = 'paused'`,
		&sqlitex.ExecOptions{Args: []interface{}{nowStr, nowStr, jobID}})
	if err != nil {
		return err
	}
	if conn.Changes() == 0 {
		return db.ErrInvalidJobState
	}
	return nil
}

func (d *Db) DeleteJob(jobID string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	return withTx(conn, func() error {
		stmts := []string{
			`DELETE FROM result_files WHERE job_id = ?`,
			`DELETE FROM result_rows WHERE job_id = ?`,
			`DELETE FROM job_queue WHERE job_id = ?`,
			`DELETE FROM url_work_items WHERE job_id = ?`,
			`DELETE FROM account_assignments WHERE job_id = ?`,
			`DELETE FROM jobs WHERE id = ? AND status IN ('completed', 'failed', 'cancelled')`,
		}
		for _, s := range stmts {
			if err := sqlitex.Execute(conn, s, &sqlitex.ExecOptions{Args: []interface{}{jobID}}); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListStalledJobs returns jobs stuck in 'running' whose updated_at is
// older than staleSince, for the Reconciler's restart-stalled-jobs sweep.
func (d *Db) ListStalledJobs(staleSince time.Time) ([]*db.Job, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var jobs []*db.Job
	var scanErr error
	err = sqlitex.Execute(conn,
		`SELECT `+jobColumns+` FROM jobs WHERE status = 'running' AND updated_at <= ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				j, e := scanJob(stmt)
				if e != nil {
					scanErr = e
					return e
				}
				jobs = append(jobs, j)
				return nil
			},
			Args: []interface{}{db.TimeFormat(staleSince)},
		})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return jobs, nil
}

// LeaseNextURL picks the oldest pending URL for a job and marks it
// in_flight under the given account, using a conditional UPDATE ...
// RETURNING so the lease grant and the read happen atomically.
func (d *Db) LeaseNextURL(jobID, accountID string, leaseDuration time.Duration, now time.Time) (*db.UrlWorkItem, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	leasedUntil := db.TimeFormat(now.Add(leaseDuration))

	var item *db.UrlWorkItem
	var scanErr error
	err = sqlitex.Execute(conn,
		`UPDATE url_work_items SET status = 'in_flight', leased_until = ?, leased_by = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM url_work_items
			WHERE job_id = ? AND status = 'pending'
			ORDER BY created_at ASC
			LIMIT 1
		)
		RETURNING id, job_id, url, status, attempts, last_error, leased_until, leased_by, created_at, updated_at`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				item, scanErr = scanURLItem(stmt)
				return scanErr
			},
			Args: []interface{}{leasedUntil, accountID, nowStr, jobID},
		})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	if item == nil {
		return nil, db.ErrNotFound
	}
	return item, nil
}

// CompleteURL is called once per successful delivery; deduped reports
// true when the (url, payload_hash) pair had already been recorded, in
// which case counters are left untouched (spec.md §8 idempotence).
func (d *Db) CompleteURL(urlID string, payload []byte, payloadHash string, now time.Time) (bool, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return false, err
	}
	defer d.pool.Put(conn)

	var deduped bool
	txErr := withTx(conn, func() error {
		var jobID string
		var status db.UrlWorkItemStatus
		found := false
		if err := sqlitex.Execute(conn,
			`SELECT job_id, status FROM url_work_items WHERE id = ?`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					jobID = stmt.GetText("job_id")
					status = db.UrlWorkItemStatus(stmt.GetText("status"))
					found = true
					return nil
				},
				Args: []interface{}{urlID},
			}); err != nil {
			return err
		}
		if !found {
			return db.ErrNotFound
		}

		var existing int
		if err := sqlitex.Execute(conn,
			`SELECT COUNT(*) AS c FROM result_rows WHERE url_id = ? AND payload_hash = ?`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					existing = int(stmt.GetInt64("c"))
					return nil
				},
				Args: []interface{}{urlID, payloadHash},
			}); err != nil {
			return err
		}
		if existing > 0 {
			deduped = true
			return nil
		}

		nowStr := db.TimeFormat(now)
		if err := sqlitex.Execute(conn,
			`INSERT INTO result_rows (job_id, url_id, payload, payload_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []interface{}{jobID, urlID, payload, payloadHash, nowStr}}); err != nil {
			return err
		}

		if status == db.UrlCompleted {
			return nil
		}

		if err := sqlitex.Execute(conn,
			`UPDATE url_work_items SET status = 'completed', updated_at = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []interface{}{nowStr, urlID}}); err != nil {
			return err
		}

		return sqlitex.Execute(conn,
			`UPDATE jobs SET
				processed_urls = processed_urls + 1,
				successful_urls = successful_urls + 1,
				result_count = result_count + 1,
				updated_at = ?
			WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []interface{}{nowStr, jobID}})
	})
	return deduped, txErr
}

// FailURL requeues the item (attempts < maxAttempts and retriable) or
// dead-letters it; requeued reports which branch was taken.
func (d *Db) FailURL(urlID, errMsg string, retriable bool, maxAttempts int, now time.Time) (bool, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return false, err
	}
	defer d.pool.Put(conn)

	var requeued bool
	txErr := withTx(conn, func() error {
		var jobID string
		var attempts int
		found := false
		if err := sqlitex.Execute(conn,
			`SELECT job_id, attempts FROM url_work_items WHERE id = ?`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					jobID = stmt.GetText("job_id")
					attempts = int(stmt.GetInt64("attempts"))
					found = true
					return nil
				},
				Args: []interface{}{urlID},
			}); err != nil {
			return err
		}
		if !found {
			return db.ErrNotFound
		}

		nowStr := db.TimeFormat(now)
		attempts++
		requeued = retriable && attempts < maxAttempts

		if requeued {
			return sqlitex.Execute(conn,
				`UPDATE url_work_items SET status = 'pending', attempts = ?, last_error = ?, leased_until = NULL, leased_by = NULL, updated_at = ?
				WHERE id = ?`,
				&sqlitex.ExecOptions{Args: []interface{}{attempts, errMsg, nowStr, urlID}})
		}

		if err := sqlitex.Execute(conn,
			`UPDATE url_work_items SET status = 'failed', attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []interface{}{attempts, errMsg, nowStr, urlID}}); err != nil {
			return err
		}

		return sqlitex.Execute(conn,
			`UPDATE jobs SET processed_urls = processed_urls + 1, failed_urls = failed_urls + 1, updated_at = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []interface{}{nowStr, jobID}})
	})
	return requeued, txErr
}

// ExpireLeases reclaims url_work_items whose lease has passed without
// completion, returning them to pending so they re-enter the queue.
func (d *Db) ExpireLeases(now time.Time) ([]*db.UrlWorkItem, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	var expired []*db.UrlWorkItem
	var scanErr error

	err = withTx(conn, func() error {
		var ids []string
		if err := sqlitex.Execute(conn,
			`SELECT id FROM url_work_items WHERE status = 'in_flight' AND leased_until IS NOT NULL AND leased_until != '' AND leased_until <= ?`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					ids = append(ids, stmt.GetText("id"))
					return nil
				},
				Args: []interface{}{nowStr},
			}); err != nil {
			return err
		}

		for _, id := range ids {
			var item *db.UrlWorkItem
			if err := sqlitex.Execute(conn,
				`UPDATE url_work_items SET status = 'pending', leased_until = NULL, leased_by = NULL, updated_at = ? WHERE id = ?
				RETURNING id, job_id, url, status, attempts, last_error, leased_until, leased_by, created_at, updated_at`,
				&sqlitex.ExecOptions{
					ResultFunc: func(stmt *sqlite.Stmt) error {
						item, scanErr = scanURLItem(stmt)
						return scanErr
					},
					Args: []interface{}{nowStr, id},
				}); err != nil {
				return err
			}
			expired = append(expired, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}
