package zombiezen

import (
	"context"
	"fmt"
	"time"

	"github.com/caasmo/restinpieces/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// InsertResultRow records a result not tied to a specific URL lease (the
// "search" job type of spec.md §3 submits rows directly rather than via
// LeaseNextURL/CompleteURL). Dedup follows the same (url_id, payload_hash)
// key, with url_id allowed to be empty.
func (d *Db) InsertResultRow(jobID string, urlID string, payload []byte, payloadHash string, now time.Time) (bool, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return false, err
	}
	defer d.pool.Put(conn)

	var deduped bool
	txErr := withTx(conn, func() error {
		var existing int
		query := `SELECT COUNT(*) AS c FROM result_rows WHERE payload_hash = ? AND `
		var args []interface{}
		if urlID == "" {
			query += `url_id IS NULL`
			args = []interface{}{payloadHash}
		} else {
			query += `url_id = ?`
			args = []interface{}{payloadHash, urlID}
		}
		if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				existing = int(stmt.GetInt64("c"))
				return nil
			},
			Args: args,
		}); err != nil {
			return err
		}
		if existing > 0 {
			deduped = true
			return nil
		}

		nowStr := db.TimeFormat(now)
		var urlArg interface{}
		if urlID != "" {
			urlArg = urlID
		}
		if err := sqlitex.Execute(conn,
			`INSERT INTO result_rows (job_id, url_id, payload, payload_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []interface{}{jobID, urlArg, payload, payloadHash, nowStr}}); err != nil {
			return err
		}

		return sqlitex.Execute(conn,
			`UPDATE jobs SET result_count = result_count + 1, updated_at = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []interface{}{nowStr, jobID}})
	})
	return deduped, txErr
}

func (d *Db) InsertResultFile(f db.ResultFile) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	uploadedAt := f.UploadedAt
	if uploadedAt.IsZero() {
		return fmt.Errorf("insert result file: %w: uploaded_at", db.ErrMissingFields)
	}

	return sqlitex.Execute(conn,
		`INSERT INTO result_files (job_id, original_name, stored_path, size, content_type, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []interface{}{
			f.JobID, f.OriginalName, f.StoredPath, f.Size, f.ContentType, db.TimeFormat(uploadedAt),
		}})
}

func (d *Db) GetResults(jobID string) ([]*db.ResultRow, []*db.ResultFile, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, nil, err
	}
	defer d.pool.Put(conn)

	var rows []*db.ResultRow
	var scanErr error
	err = sqlitex.Execute(conn,
		`SELECT id, job_id, url_id, payload, payload_hash, created_at FROM result_rows WHERE job_id = ? ORDER BY created_at ASC`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				createdAt, e := db.TimeParse(stmt.GetText("created_at"))
				if e != nil {
					scanErr = e
					return e
				}
				rows = append(rows, &db.ResultRow{
					ID:          stmt.GetText("id"),
					JobID:       stmt.GetText("job_id"),
					URLID:       stmt.GetText("url_id"),
					Payload:     []byte(stmt.GetText("payload")),
					PayloadHash: stmt.GetText("payload_hash"),
					CreatedAt:   createdAt,
				})
				return nil
			},
			Args: []interface{}{jobID},
		})
	if err != nil {
		return nil, nil, err
	}
	if scanErr != nil {
		return nil, nil, scanErr
	}

	var files []*db.ResultFile
	err = sqlitex.Execute(conn,
		`SELECT id, job_id, original_name, stored_path, size, content_type, uploaded_at FROM result_files WHERE job_id = ? ORDER BY uploaded_at ASC`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				uploadedAt, e := db.TimeParse(stmt.GetText("uploaded_at"))
				if e != nil {
					scanErr = e
					return e
				}
				files = append(files, &db.ResultFile{
					ID:           stmt.GetText("id"),
					JobID:        stmt.GetText("job_id"),
					OriginalName: stmt.GetText("original_name"),
					StoredPath:   stmt.GetText("stored_path"),
					Size:         stmt.GetInt64("size"),
					ContentType:  stmt.GetText("content_type"),
					UploadedAt:   uploadedAt,
				})
				return nil
			},
			Args: []interface{}{jobID},
		})
	if err != nil {
		return nil, nil, err
	}
	if scanErr != nil {
		return nil, nil, scanErr
	}
	return rows, files, nil
}
