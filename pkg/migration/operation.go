// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"context"

	"github.com/relaysql/schemax/pkg/dialect"
)

// Operation is one reversible schema mutation. Up and Down are each run
// against a connection tagged with the dialect it targets; down must leave
// the schema semantically identical to the state before up.
type Operation interface {
	Up(ctx context.Context, conn dialect.DialectConn) error
	Down(ctx context.Context, conn dialect.DialectConn) error
}

// NonAtomicOperation is an optional capability an Operation can implement to
// force its enclosing migration to run non-atomically regardless of the
// migration's declared IsAtomic field — mirrors the teacher's
// IsolatedOperation/RequiresSchemaRefreshOperation capability pattern.
// A Postgres "CREATE INDEX CONCURRENTLY" operation is the canonical example:
// it cannot run inside a transaction at all.
type NonAtomicOperation interface {
	RequiresNonAtomicExecution() bool
}

// DialectSQL carries one SQL string per supported dialect.
type DialectSQL struct {
	Postgres string
	MySQL    string
	SQLite   string
}

// For selects the SQL text for the given dialect.
func (d DialectSQL) For(kind dialect.Kind) (string, error) {
	var stmt string
	switch kind {
	case dialect.Postgres:
		stmt = d.Postgres
	case dialect.MySQL:
		stmt = d.MySQL
	case dialect.SQLite:
		stmt = d.SQLite
	}
	if stmt == "" {
		return "", NoSQLForDialectError{Dialect: kind}
	}
	return stmt, nil
}

// NoSQLForDialectError is raised when a SQLOperation has no SQL text
// registered for the dialect the connection targets.
type NoSQLForDialectError struct {
	Dialect dialect.Kind
}

func (e NoSQLForDialectError) Error() string {
	return "no SQL registered for dialect " + e.Dialect.String()
}

// SQLOperation is the common-case Operation: a plain SQL statement pair, one
// string per dialect. A dialect left blank is an error if that dialect is
// ever selected.
type SQLOperation struct {
	UpSQL   DialectSQL
	DownSQL DialectSQL

	// NonAtomic marks this operation as requiring non-atomic execution
	// (e.g. CREATE INDEX CONCURRENTLY on Postgres).
	NonAtomic bool
}

// Up executes the up SQL for the connection's dialect.
func (o *SQLOperation) Up(ctx context.Context, conn dialect.DialectConn) error {
	stmt, err := o.UpSQL.For(conn.Kind)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, stmt)
	return err
}

// Down executes the down SQL for the connection's dialect.
func (o *SQLOperation) Down(ctx context.Context, conn dialect.DialectConn) error {
	stmt, err := o.DownSQL.For(conn.Kind)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, stmt)
	return err
}

// RequiresNonAtomicExecution implements NonAtomicOperation.
func (o *SQLOperation) RequiresNonAtomicExecution() bool { return o.NonAtomic }
