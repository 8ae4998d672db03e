// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"context"
	"fmt"
	"hash/crc32"
	"strconv"
)

// MySQLAdapter implements Adapter for MySQL, using GET_LOCK/RELEASE_LOCK
// keyed off a CRC-32 digest of the current database name rendered as a
// decimal string (MySQL's named-lock functions take a string key, unlike
// Postgres' integer advisory locks).
type MySQLAdapter struct {
	table string
}

func NewMySQLAdapter(prefix string) *MySQLAdapter {
	return &MySQLAdapter{table: TableName(prefix)}
}

func (a *MySQLAdapter) Kind() Kind { return MySQL }

func (a *MySQLAdapter) EnsureTable(ctx context.Context, conn Conn) error {
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"id INT AUTO_INCREMENT PRIMARY KEY, "+
		"app VARCHAR(255) NOT NULL, "+
		"name VARCHAR(255) NOT NULL, "+
		"applied_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, "+
		"UNIQUE KEY app_name (app, name))", a.table)
	_, err := conn.ExecContext(ctx, stmt)
	return err
}

func (a *MySQLAdapter) DropTable(ctx context.Context, conn Conn) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf("DROP TABLE `%s`", a.table))
	return err
}

func (a *MySQLAdapter) InsertApplied(ctx context.Context, conn Conn, id Identity) error {
	stmt := fmt.Sprintf("INSERT INTO `%s` (app, name) VALUES (?, ?)", a.table)
	_, err := conn.ExecContext(ctx, stmt, id.App, id.Name)
	return err
}

func (a *MySQLAdapter) DeleteApplied(ctx context.Context, conn Conn, id Identity) error {
	stmt := fmt.Sprintf("DELETE FROM `%s` WHERE app = ? AND name = ?", a.table)
	_, err := conn.ExecContext(ctx, stmt, id.App, id.Name)
	return err
}

func (a *MySQLAdapter) FetchApplied(ctx context.Context, conn Conn) ([]AppliedRow, error) {
	stmt := fmt.Sprintf("SELECT id, app, name, applied_time FROM `%s` ORDER BY id", a.table)
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

func (a *MySQLAdapter) Lock(ctx context.Context, conn Conn) error {
	key, err := a.lockKey(ctx, conn)
	if err != nil {
		return err
	}
	var got int
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, -1)", key).Scan(&got); err != nil {
		return err
	}
	if got != 1 {
		return fmt.Errorf("mysql: GET_LOCK(%s) did not succeed", key)
	}
	return nil
}

func (a *MySQLAdapter) Unlock(ctx context.Context, conn Conn) error {
	key, err := a.lockKey(ctx, conn)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", key)
	return err
}

func (a *MySQLAdapter) lockKey(ctx context.Context, conn Conn) (string, error) {
	var dbName string
	if err := conn.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName); err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(dbName))), 10), nil
}
