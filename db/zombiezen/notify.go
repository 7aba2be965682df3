package zombiezen

import (
	"context"
	"time"

	"github.com/caasmo/restinpieces/db"
	"github.com/caasmo/restinpieces/queue"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const notifyJobColumns = `id, job_type, payload, status, attempts, max_attempts, scheduled_for, locked_by, locked_at, completed_at, last_error, created_at, updated_at`

func scanNotifyJob(stmt *sqlite.Stmt) (*queue.Job, error) {
	scheduledFor, err := db.TimeParse(stmt.GetText("scheduled_for"))
	if err != nil {
		return nil, err
	}
	createdAt, err := db.TimeParse(stmt.GetText("created_at"))
	if err != nil {
		return nil, err
	}
	updatedAt, err := db.TimeParse(stmt.GetText("updated_at"))
	if err != nil {
		return nil, err
	}

	job := &queue.Job{
		ID:           stmt.GetInt64("id"),
		JobType:      stmt.GetText("job_type"),
		Payload:      []byte(stmt.GetText("payload")),
		Status:       stmt.GetText("status"),
		Attempts:     int(stmt.GetInt64("attempts")),
		MaxAttempts:  int(stmt.GetInt64("max_attempts")),
		ScheduledFor: scheduledFor,
		LockedBy:     stmt.GetText("locked_by"),
		LastError:    stmt.GetText("last_error"),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if lockedAt := stmt.GetText("locked_at"); lockedAt != "" {
		if t, err := db.TimeParse(lockedAt); err == nil {
			job.LockedAt = t
		}
	}
	if completedAt := stmt.GetText("completed_at"); completedAt != "" {
		if t, err := db.TimeParse(completedAt); err == nil {
			job.CompletedAt = t
		}
	}
	return job, nil
}

// InsertNotifyJob enqueues a side-effect job for the scheduler to pick up.
// The partial unique index on (job_type, payload) WHERE status='pending'
// means a duplicate trigger before the first job finishes is silently
// swallowed instead of piling up retries for the same event.
func (d *Db) InsertNotifyJob(jobType string, payload []byte, now time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	return sqlitex.Execute(conn,
		`INSERT INTO notify_jobs (job_type, payload, status, max_attempts, scheduled_for, created_at, updated_at)
		VALUES (?, ?, 'pending', 5, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		&sqlitex.ExecOptions{Args: []interface{}{jobType, string(payload), nowStr, nowStr, nowStr}})
}

// ClaimNotifyJobs reserves up to limit pending, due jobs for this process,
// mirroring ReserveWorkItem's claim-by-UPDATE pattern so two scheduler
// instances never both pick up the same job.
func (d *Db) ClaimNotifyJobs(limit int, now time.Time) ([]*queue.Job, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	var claimed []*queue.Job

	err = withTx(conn, func() error {
		var ids []int64
		if err := sqlitex.Execute(conn,
			`SELECT id FROM notify_jobs WHERE status = 'pending' AND scheduled_for <= ?
			ORDER BY scheduled_for ASC, id ASC LIMIT ?`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					ids = append(ids, stmt.GetInt64("id"))
					return nil
				},
				Args: []interface{}{nowStr, limit},
			}); err != nil {
			return err
		}

		for _, id := range ids {
			var job *queue.Job
			var scanErr error
			if err := sqlitex.Execute(conn,
				`UPDATE notify_jobs SET status = 'processing', attempts = attempts + 1, locked_at = ?, updated_at = ?
				WHERE id = ?
				RETURNING `+notifyJobColumns,
				&sqlitex.ExecOptions{
					ResultFunc: func(stmt *sqlite.Stmt) error {
						job, scanErr = scanNotifyJob(stmt)
						return scanErr
					},
					Args: []interface{}{nowStr, nowStr, id},
				}); err != nil {
				return err
			}
			claimed = append(claimed, job)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkNotifyJobCompleted finishes a successfully delivered notification.
func (d *Db) MarkNotifyJobCompleted(id int64, now time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	return sqlitex.Execute(conn,
		`UPDATE notify_jobs SET status = 'completed', completed_at = ?, updated_at = ? WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []interface{}{nowStr, nowStr, id}})
}

// MarkNotifyJobFailed records the error and returns the job to pending for
// another attempt, or dead-letters it (status 'failed') once max_attempts
// is reached.
func (d *Db) MarkNotifyJobFailed(id int64, errMsg string, now time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	return sqlitex.Execute(conn,
		`UPDATE notify_jobs SET
			status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
			last_error = ?,
			locked_by = NULL,
			updated_at = ?
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []interface{}{errMsg, nowStr, id}})
}
