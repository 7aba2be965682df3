package zombiezen

import (
	"context"
	"fmt"
	"runtime"

	"github.com/caasmo/restinpieces/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Db is the zombiezen.com/go/sqlite backed implementation of db.Db. It is
// the primary driver: every method of the interface is implemented here,
// spread across db.go (lifecycle), users.go, accounts.go, jobs.go,
// queue.go and results.go by concern.
type Db struct {
	pool *sqlitex.Pool
}

// Verify interface implementation (non-allocating check)
var _ db.Db = (*Db)(nil)

func New(path string) (*Db, error) {
	poolSize := runtime.NumCPU()
	initString := fmt.Sprintf("file:%s", path)

	p, err := sqlitex.NewPool(initString, sqlitex.PoolOptions{
		Flags:    0, // Use all default flags including WAL
		PoolSize: poolSize,
	})
	if err != nil {
		return nil, err
	}

	return &Db{pool: p}, nil
}

// NewWithPool wraps an existing pool instead of opening one from a path,
// for callers that already manage the pool's lifecycle (e.g. sharing one
// pool between the main db and a benchmark harness).
func NewWithPool(pool *sqlitex.Pool) (*Db, error) {
	if pool == nil {
		return nil, fmt.Errorf("provided pool cannot be nil")
	}
	return &Db{pool: pool}, nil
}

func (d *Db) Close() {
	d.pool.Close()
}

// withTx runs fn inside a savepoint-based transaction, rolling back on any
// returned error (including a panic recovered and re-thrown by sqlitex).
func withTx(conn *sqlite.Conn, fn func() error) (err error) {
	release := sqlitex.Save(conn)
	defer release(&err)
	return fn()
}
