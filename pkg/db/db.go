// SPDX-License-Identifier: Apache-2.0

// Package db provides a retrying *sql.DB wrapper that transparently retries
// statements and transactions on lock-contention driver errors, across all
// three supported dialects.
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cloudflare/backoff"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/relaysql/schemax/pkg/dialect"
)

const (
	maxBackoffDuration = 1 * time.Minute
	backoffInterval    = 1 * time.Second

	postgresLockNotAvailable pq.ErrorCode = "55P03"
	mysqlLockWaitTimeout     uint16       = 1205
)

// RDB wraps a *sql.DB for one dialect, retrying statements and transactions
// with exponential backoff when the driver reports a lock-contention error
// specific to that dialect.
type RDB struct {
	DB   *sql.DB
	Kind dialect.Kind
}

// New wraps an existing *sql.DB for the given dialect.
func New(conn *sql.DB, kind dialect.Kind) *RDB {
	return &RDB{DB: conn, Kind: kind}
}

// ExecContext retries ExecContext on lock-contention errors.
func (db *RDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		res, err := db.DB.ExecContext(ctx, query, args...)
		if err == nil {
			return res, nil
		}
		if !db.isLockContention(err) {
			return nil, err
		}
		if err := sleepCtx(ctx, b.Duration()); err != nil {
			return nil, err
		}
	}
}

// QueryContext retries QueryContext on lock-contention errors.
func (db *RDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		rows, err := db.DB.QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}
		if !db.isLockContention(err) {
			return nil, err
		}
		if err := sleepCtx(ctx, b.Duration()); err != nil {
			return nil, err
		}
	}
}

// QueryRowContext has no retry loop of its own: *sql.Row defers error
// reporting to Scan, which this wrapper cannot intercept. Callers that need
// retry-on-contention semantics for a single-row query should use
// QueryContext instead.
func (db *RDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, query, args...)
}

// WithRetryableTransaction runs f inside a transaction, retrying the whole
// transaction on lock-contention errors.
func (db *RDB) WithRetryableTransaction(ctx context.Context, f func(context.Context, *sql.Tx) error) error {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		tx, err := db.DB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		err = f(ctx, tx)
		if err == nil {
			return tx.Commit()
		}

		if errRollback := tx.Rollback(); errRollback != nil {
			return errRollback
		}

		if !db.isLockContention(err) {
			return err
		}
		if err := sleepCtx(ctx, b.Duration()); err != nil {
			return err
		}
	}
}

// Close closes the underlying *sql.DB.
func (db *RDB) Close() error {
	return db.DB.Close()
}

func (db *RDB) isLockContention(err error) bool {
	return IsLockContention(db.Kind, err)
}

// IsLockContention reports whether err is the dialect-specific driver error
// for lock contention: Postgres' lock_timeout (55P03), MySQL's lock wait
// timeout (error 1205), or SQLite's SQLITE_BUSY/SQLITE_LOCKED. Exported so
// callers holding a single pinned connection (as the migrator does while it
// holds the cross-process lock) can retry without going through RDB, which
// always dispatches through a *sql.DB and would not preserve a dedicated
// connection's session state.
func IsLockContention(kind dialect.Kind, err error) bool {
	switch kind {
	case dialect.Postgres:
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == postgresLockNotAvailable
	case dialect.MySQL:
		var myErr *gomysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == mysqlLockWaitTimeout
	case dialect.SQLite:
		var liteErr sqlite3.Error
		if errors.As(err, &liteErr) {
			return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
		}
		return false
	default:
		return false
	}
}

// Retry runs f, retrying with exponential backoff while f's error is a
// lock-contention error for kind. Used around operations performed on a
// single pinned connection, where RDB's *sql.DB-level retrying cannot apply.
func Retry(ctx context.Context, kind dialect.Kind, f func() error) error {
	b := backoff.New(maxBackoffDuration, backoffInterval)
	for {
		err := f()
		if err == nil {
			return nil
		}
		if !IsLockContention(kind, err) {
			return err
		}
		if err := sleepCtx(ctx, b.Duration()); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
