package restinpieces

// This file provides a helper function to create a SQLite connection pool
// compatible with restinpieces using the Zombiezen driver.
// If your application interacts directly with the database alongside restinpieces,
// it's crucial to use a *single shared pool* to prevent database locking issues (SQLITE_BUSY errors).
// This function offers a reasonable default configuration (like enabling WAL mode)
// suitable for use with restinpieces. You can use it to create the pool and then
// pass it to both restinpieces (via WithDbZombiezen) and your own application's
// database access layer.

import (
	"fmt"
	"runtime"

	zombiezenPool "zombiezen.com/go/sqlite/sqlitex"
)

// NewDefaultZombiezenPool creates a new Zombiezen SQLite connection pool with default settings.
// It uses the number of CPU cores for the pool size, enables WAL mode by default, and sets a busy timeout.
func NewDefaultZombiezenPool(dbPath string) (*zombiezenPool.Pool, error) {
	poolSize := runtime.NumCPU()
	initString := fmt.Sprintf("file:%s", dbPath)

	pool, err := zombiezenPool.NewPool(initString, zombiezenPool.PoolOptions{
		PoolSize: poolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create default zombiezen pool at %s: %w", dbPath, err)
	}
	return pool, nil
}
