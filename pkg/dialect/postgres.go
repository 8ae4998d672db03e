// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"context"
	"fmt"
	"hash/crc32"

	"github.com/lib/pq"
)

// PostgresAdapter implements Adapter for PostgreSQL, using
// pg_advisory_lock/pg_advisory_unlock keyed off a CRC-32 digest of the
// current database name.
type PostgresAdapter struct {
	table string
}

func NewPostgresAdapter(prefix string) *PostgresAdapter {
	return &PostgresAdapter{table: TableName(prefix)}
}

func (a *PostgresAdapter) Kind() Kind { return Postgres }

func (a *PostgresAdapter) EnsureTable(ctx context.Context, conn Conn) error {
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id            INT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	app           TEXT NOT NULL,
	name          TEXT NOT NULL,
	applied_time  TIMESTAMP NOT NULL DEFAULT now(),
	UNIQUE(app, name)
)`, pq.QuoteIdentifier(a.table))
	_, err := conn.ExecContext(ctx, stmt)
	return err
}

func (a *PostgresAdapter) DropTable(ctx context.Context, conn Conn) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", pq.QuoteIdentifier(a.table)))
	return err
}

func (a *PostgresAdapter) InsertApplied(ctx context.Context, conn Conn, id Identity) error {
	stmt := fmt.Sprintf("INSERT INTO %s (app, name) VALUES ($1, $2)", pq.QuoteIdentifier(a.table))
	_, err := conn.ExecContext(ctx, stmt, id.App, id.Name)
	return err
}

func (a *PostgresAdapter) DeleteApplied(ctx context.Context, conn Conn, id Identity) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE app = $1 AND name = $2", pq.QuoteIdentifier(a.table))
	_, err := conn.ExecContext(ctx, stmt, id.App, id.Name)
	return err
}

func (a *PostgresAdapter) FetchApplied(ctx context.Context, conn Conn) ([]AppliedRow, error) {
	stmt := fmt.Sprintf("SELECT id, app, name, applied_time FROM %s ORDER BY id", pq.QuoteIdentifier(a.table))
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

func (a *PostgresAdapter) Lock(ctx context.Context, conn Conn) error {
	key, err := a.lockKey(ctx, conn)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", key)
	return err
}

func (a *PostgresAdapter) Unlock(ctx context.Context, conn Conn) error {
	key, err := a.lockKey(ctx, conn)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", key)
	return err
}

// lockKey derives the advisory lock key as a signed 64-bit CRC-32 of the
// current database name, per the lock-identifier contract in §6.
func (a *PostgresAdapter) lockKey(ctx context.Context, conn Conn) (int64, error) {
	var dbName string
	if err := conn.QueryRowContext(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return 0, err
	}
	return int64(crc32.ChecksumIEEE([]byte(dbName))), nil
}
