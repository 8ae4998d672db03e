// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"context"
	"fmt"
)

// SQLiteAdapter implements Adapter for SQLite. Locking is a no-op: SQLite
// delegates mutual exclusion to file-level locking on the backing store, so
// there is no separate lock primitive to drive.
type SQLiteAdapter struct {
	table string
}

func NewSQLiteAdapter(prefix string) *SQLiteAdapter {
	return &SQLiteAdapter{table: TableName(prefix)}
}

func (a *SQLiteAdapter) Kind() Kind { return SQLite }

func (a *SQLiteAdapter) EnsureTable(ctx context.Context, conn Conn) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	app           TEXT NOT NULL,
	name          TEXT NOT NULL,
	applied_time  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(app, name)
)`, a.table)
	_, err := conn.ExecContext(ctx, stmt)
	return err
}

func (a *SQLiteAdapter) DropTable(ctx context.Context, conn Conn) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf("DROP TABLE %q", a.table))
	return err
}

func (a *SQLiteAdapter) InsertApplied(ctx context.Context, conn Conn, id Identity) error {
	stmt := fmt.Sprintf("INSERT INTO %q (app, name) VALUES (?, ?)", a.table)
	_, err := conn.ExecContext(ctx, stmt, id.App, id.Name)
	return err
}

func (a *SQLiteAdapter) DeleteApplied(ctx context.Context, conn Conn, id Identity) error {
	stmt := fmt.Sprintf("DELETE FROM %q WHERE app = ? AND name = ?", a.table)
	_, err := conn.ExecContext(ctx, stmt, id.App, id.Name)
	return err
}

func (a *SQLiteAdapter) FetchApplied(ctx context.Context, conn Conn) ([]AppliedRow, error) {
	stmt := fmt.Sprintf("SELECT id, app, name, applied_time FROM %q ORDER BY id", a.table)
	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AppliedRow
	for rows.Next() {
		var r AppliedRow
		if err := rows.Scan(&r.ID, &r.App, &r.Name, &r.AppliedTime); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Lock is a no-op on SQLite: the backing store's own file locking already
// serializes writers.
func (a *SQLiteAdapter) Lock(ctx context.Context, conn Conn) error { return nil }

// Unlock is a no-op on SQLite for the same reason as Lock.
func (a *SQLiteAdapter) Unlock(ctx context.Context, conn Conn) error { return nil }
