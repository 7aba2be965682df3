package zombiezen

import (
	"context"
	"fmt"
	"time"

	"github.com/caasmo/restinpieces/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const workItemColumns = `id, job_id, url_id, priority, status, attempts, max_attempts, visible_at, reserved_by, created_at, updated_at`

func scanWorkItem(stmt *sqlite.Stmt) (*db.WorkItem, error) {
	visibleAt, err := db.TimeParse(stmt.GetText("visible_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing visible_at: %w", err)
	}
	createdAt, err := db.TimeParse(stmt.GetText("created_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created_at: %w", err)
	}
	updatedAt, err := db.TimeParse(stmt.GetText("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated_at: %w", err)
	}

	return &db.WorkItem{
		ID:          stmt.GetInt64("id"),
		JobID:       stmt.GetText("job_id"),
		URLID:       stmt.GetText("url_id"),
		Priority:    int(stmt.GetInt64("priority")),
		Status:      db.WorkItemStatus(stmt.GetText("status")),
		Attempts:    int(stmt.GetInt64("attempts")),
		MaxAttempts: int(stmt.GetInt64("max_attempts")),
		VisibleAt:   visibleAt,
		ReservedBy:  stmt.GetText("reserved_by"),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// EnqueueWorkItem inserts one priority-FIFO queue row. Called by the
// admission controller after SubmitJob commits, once per URL work item.
func (d *Db) EnqueueWorkItem(item db.WorkItem) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	if item.JobID == "" || item.URLID == "" {
		return fmt.Errorf("enqueue work item: %w", db.ErrMissingFields)
	}

	priority := item.Priority
	if priority == 0 {
		priority = db.PriorityNormal
	}
	maxAttempts := item.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 5
	}
	visibleAt := item.VisibleAt
	if visibleAt.IsZero() {
		visibleAt = time.Now().UTC()
	}
	now := db.TimeFormat(time.Now().UTC())

	return sqlitex.Execute(conn,
		`INSERT INTO job_queue (job_id, url_id, priority, status, max_attempts, visible_at, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []interface{}{
			item.JobID, item.URLID, priority, maxAttempts, db.TimeFormat(visibleAt), now, now,
		}})
}

// ReserveWorkItem is the dispatcher's pop: the oldest visible, highest
// priority pending row is claimed by workerID for leaseDuration in a
// single UPDATE ... RETURNING, so two dispatchers racing for the same row
// never both win it.
func (d *Db) ReserveWorkItem(workerID string, now time.Time, leaseDuration time.Duration) (*db.WorkItem, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	visibleAt := db.TimeFormat(now.Add(leaseDuration))

	var item *db.WorkItem
	var scanErr error
	err = sqlitex.Execute(conn,
		`UPDATE job_queue SET status = 'reserved', reserved_by = ?, visible_at = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM job_queue
			WHERE status = 'pending' AND visible_at <= ?
			ORDER BY priority DESC, visible_at ASC, id ASC
			LIMIT 1
		)
		RETURNING `+workItemColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				item, scanErr = scanWorkItem(stmt)
				return scanErr
			},
			Args: []interface{}{workerID, visibleAt, nowStr, nowStr},
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

// AckWorkItem marks a reserved item done; dispatched work that succeeded
// is never retried.
func (d *Db) AckWorkItem(id int64) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	return sqlitex.Execute(conn,
		`UPDATE job_queue SET status = 'done', updated_at = ? WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []interface{}{db.TimeFormat(time.Now().UTC()), id}})
}

// NackWorkItem returns a reserved item to pending after requeueDelay,
// bumping the attempt counter and dead-lettering it once max_attempts is hit.
func (d *Db) NackWorkItem(id int64, requeueDelay time.Duration, now time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	visibleAt := db.TimeFormat(now.Add(requeueDelay))

	return sqlitex.Execute(conn,
		`UPDATE job_queue SET
			attempts = attempts + 1,
			status = CASE WHEN attempts + 1 >= max_attempts THEN 'dead' ELSE 'pending' END,
			reserved_by = NULL,
			visible_at = CASE WHEN attempts + 1 >= max_attempts THEN visible_at ELSE ? END,
			updated_at = ?
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []interface{}{visibleAt, nowStr, id}})
}

// ExtendWorkItemLease pushes visible_at forward for an in-progress item
// whose work is taking longer than the original lease.
func (d *Db) ExtendWorkItemLease(id int64, duration time.Duration, now time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	return sqlitex.Execute(conn,
		`UPDATE job_queue SET visible_at = ?, updated_at = ? WHERE id = ? AND status = 'reserved'`,
		&sqlitex.ExecOptions{Args: []interface{}{db.TimeFormat(now.Add(duration)), db.TimeFormat(now), id}})
}

// ExpireWorkItemLeases returns reserved items whose visible_at has passed
// (a dispatcher crashed mid-lease) back to pending, bumping attempts the
// same way NackWorkItem does.
func (d *Db) ExpireWorkItemLeases(now time.Time) ([]*db.WorkItem, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	nowStr := db.TimeFormat(now)
	var expired []*db.WorkItem
	var scanErr error

	err = withTx(conn, func() error {
		var ids []int64
		if err := sqlitex.Execute(conn,
			`SELECT id FROM job_queue WHERE status = 'reserved' AND visible_at <= ?`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					ids = append(ids, stmt.GetInt64("id"))
					return nil
				},
				Args: []interface{}{nowStr},
			}); err != nil {
			return err
		}

		for _, id := range ids {
			var item *db.WorkItem
			if err := sqlitex.Execute(conn,
				`UPDATE job_queue SET
					attempts = attempts + 1,
					status = CASE WHEN attempts + 1 >= max_attempts THEN 'dead' ELSE 'pending' END,
					reserved_by = NULL,
					updated_at = ?
				WHERE id = ?
				RETURNING `+workItemColumns,
				&sqlitex.ExecOptions{
					ResultFunc: func(stmt *sqlite.Stmt) error {
						item, scanErr = scanWorkItem(stmt)
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
