package zombiezen

import (
	"context"
	"fmt"

	"github.com/caasmo/restinpieces/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const userColumns = `id, name, password, verified, oauth2, avatar, email, emailVisibility,
	credits_balance, credits_used, max_concurrent_jobs, max_monthly_jobs, created, updated`

func scanUser(stmt *sqlite.Stmt) (*db.User, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}
	updated, err := db.TimeParse(stmt.GetText("updated"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated time: %w", err)
	}

	return &db.User{
		ID:                stmt.GetText("id"),
		Name:              stmt.GetText("name"),
		Password:          stmt.GetText("password"),
		Verified:          stmt.GetInt64("verified") != 0,
		Oauth2:            stmt.GetInt64("oauth2") != 0,
		Avatar:            stmt.GetText("avatar"),
		Email:             stmt.GetText("email"),
		EmailVisibility:   stmt.GetInt64("emailVisibility") != 0,
		CreditsBalance:    stmt.GetInt64("credits_balance"),
		CreditsUsed:       stmt.GetInt64("credits_used"),
		MaxConcurrentJobs: int(stmt.GetInt64("max_concurrent_jobs")),
		MaxMonthlyJobs:    int(stmt.GetInt64("max_monthly_jobs")),
		Created:           created,
		Updated:           updated,
	}, nil
}

// GetUserByEmail retrieves a user by email address.
// A nil user with nil error indicates no matching record was found.
func (d *Db) GetUserByEmail(email string) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var user *db.User
	var scanErr error
	err = sqlitex.Execute(conn,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				user, scanErr = scanUser(stmt)
				return scanErr
			},
			Args: []interface{}{email},
		})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by primary key.
func (d *Db) GetUserByID(id string) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var user *db.User
	var scanErr error
	err = sqlitex.Execute(conn,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				user, scanErr = scanUser(stmt)
				return scanErr
			},
			Args: []interface{}{id},
		})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user, defaulting credits/concurrency caps when
// the caller leaves them at zero so tests and bootstrap scripts can create
// a minimal db.User{Email: ..., CreditsBalance: N}.
func (d *Db) CreateUser(user db.User) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	maxConcurrent := user.MaxConcurrentJobs
	if maxConcurrent == 0 {
		maxConcurrent = 3
	}
	maxMonthly := user.MaxMonthlyJobs
	if maxMonthly == 0 {
		maxMonthly = 1000
	}

	var created *db.User
	var scanErr error
	err = sqlitex.Execute(conn,
		`INSERT INTO users
			(name, password, verified, oauth2, avatar, email, emailVisibility,
			 credits_balance, credits_used, max_concurrent_jobs, max_monthly_jobs,
			 created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'), strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		RETURNING `+userColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				created, scanErr = scanUser(stmt)
				return scanErr
			},
			Args: []interface{}{
				user.Name,
				user.Password,
				user.Verified,
				user.Oauth2,
				user.Avatar,
				user.Email,
				user.EmailVisibility,
				user.CreditsBalance,
				user.CreditsUsed,
				maxConcurrent,
				maxMonthly,
			},
		})
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.CONSTRAINT_UNIQUE {
			return nil, db.ErrConstraintUnique
		}
		return nil, err
	}
	return created, nil
}

// CreateUserWithOauth2 upserts a user row for oauth2-first registration,
// leaving password empty (passwordless) and crediting the default balance.
func (d *Db) CreateUserWithOauth2(user db.User) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var created *db.User
	var scanErr error
	err = sqlitex.Execute(conn,
		`INSERT INTO users (name, password, verified, oauth2, avatar, email, emailVisibility, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'), strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		ON CONFLICT(email) DO UPDATE SET
			oauth2 = 1,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		RETURNING `+userColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				created, scanErr = scanUser(stmt)
				return scanErr
			},
			Args: []interface{}{
				user.Name,
				"",
				user.Verified,
				true,
				user.Avatar,
				user.Email,
				user.EmailVisibility,
			},
		})
	return created, err
}

func (d *Db) VerifyEmail(userId string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	return sqlitex.Execute(conn,
		`UPDATE users
		SET verified = 1,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []interface{}{userId}})
}

func (d *Db) UpdatePassword(userId string, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET password = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []interface{}{newPassword, userId}})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (d *Db) UpdateEmail(userId string, newEmail string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET email = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []interface{}{newEmail, userId}})
	if err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}
	return nil
}
