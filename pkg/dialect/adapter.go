// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"context"
	"regexp"
	"time"
)

// AppliedRow is the persisted bookkeeping record of a previously-applied
// migration.
type AppliedRow struct {
	ID          int64
	App         string
	Name        string
	AppliedTime time.Time
}

// Identity is the (app, name) pair that uniquely names a migration.
type Identity struct {
	App  string
	Name string
}

// Adapter is the per-dialect contract used by the plan resolver and the
// apply/revert engine. Every method may block on the database and should be
// called with a context that can cancel it.
type Adapter interface {
	// Kind reports which dialect this adapter implements.
	Kind() Kind

	// EnsureTable creates the bookkeeping table if it does not already exist.
	EnsureTable(ctx context.Context, conn Conn) error

	// DropTable drops the bookkeeping table unconditionally. Callers must
	// check the applied set is empty first.
	DropTable(ctx context.Context, conn Conn) error

	// InsertApplied records that (app, name) has been applied. The server
	// assigns id and applied_time.
	InsertApplied(ctx context.Context, conn Conn, id Identity) error

	// DeleteApplied removes the bookkeeping row for (app, name).
	DeleteApplied(ctx context.Context, conn Conn, id Identity) error

	// FetchApplied returns every row in the bookkeeping table.
	FetchApplied(ctx context.Context, conn Conn) ([]AppliedRow, error)

	// Lock acquires the cross-process migration lock. On SQLite this is a
	// no-op: file-level locking is delegated to the backing store.
	Lock(ctx context.Context, conn Conn) error

	// Unlock releases the lock acquired by Lock.
	Unlock(ctx context.Context, conn Conn) error
}

// tableNamePattern restricts the configurable bookkeeping-table prefix to a
// safe identifier character set, so it can be interpolated into DDL without
// opening a schema-injection hole.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidatePrefix reports whether prefix is safe to interpolate into table
// DDL. An empty prefix is always valid (it means "use the default name").
func ValidatePrefix(prefix string) bool {
	if prefix == "" {
		return true
	}
	return tableNamePattern.MatchString(prefix)
}

// TableName returns the bookkeeping table name for the given prefix,
// defaulting to "_sqlx_migrator_migrations" when prefix is empty.
func TableName(prefix string) string {
	if prefix == "" {
		return "_sqlx_migrator_migrations"
	}
	return prefix + "_sqlx_migrator_migrations"
}
