// SPDX-License-Identifier: Apache-2.0

// Package connstr parses the single configured database URI into a dialect
// and opens the corresponding driver, so the CLI never hard-codes which of
// the three supported backends it is talking to.
package connstr

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relaysql/schemax/pkg/dialect"
)

// Parse inspects uri's scheme and reports which dialect it targets.
func Parse(uri string) (dialect.Kind, error) {
	if strings.HasPrefix(uri, "file:") || strings.HasSuffix(uri, ".db") || strings.HasSuffix(uri, ".sqlite") || strings.HasSuffix(uri, ".sqlite3") {
		return dialect.SQLite, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return 0, fmt.Errorf("failed to parse database URI: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return dialect.Postgres, nil
	case "mysql":
		return dialect.MySQL, nil
	case "sqlite", "sqlite3":
		return dialect.SQLite, nil
	default:
		return 0, fmt.Errorf("unrecognized database URI scheme %q", u.Scheme)
	}
}

// Open parses uri, opens the matching driver, and returns both the
// connection and the dialect it was opened for.
func Open(uri string) (*sql.DB, dialect.Kind, error) {
	kind, err := Parse(uri)
	if err != nil {
		return nil, 0, err
	}

	var driverName, dataSourceName string
	switch kind {
	case dialect.Postgres:
		driverName, dataSourceName = "postgres", uri
	case dialect.MySQL:
		dataSourceName, err = mysqlDSN(uri)
		if err != nil {
			return nil, 0, err
		}
		driverName = "mysql"
	case dialect.SQLite:
		driverName, dataSourceName = "sqlite3", strings.TrimPrefix(uri, "file:")
	}

	conn, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open database: %w", err)
	}
	return conn, kind, nil
}

// mysqlDSN strips the mysql:// scheme go-sql-driver/mysql does not expect in
// its DSN form (user:pass@tcp(host:port)/dbname).
func mysqlDSN(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	dsn := u.User.String() + "@tcp(" + u.Host + ")" + u.Path
	if u.RawQuery != "" {
		dsn += "?" + u.RawQuery
	}
	return dsn, nil
}

// AppendSearchPathOption takes a Postgres connection string in URL format
// and produces the same connection string with the search_path option set
// to the provided schema. Retained for callers that point the bookkeeping
// table at a non-default Postgres schema via the URI itself.
func AppendSearchPathOption(connStr, schema string) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}

	if schema == "" {
		return connStr, nil
	}

	q := u.Query()
	q.Set("options", fmt.Sprintf("-c search_path=%s", schema))
	encodedQuery := q.Encode()
	encodedQuery = strings.ReplaceAll(encodedQuery, "+", "%20")
	u.RawQuery = encodedQuery

	return u.String(), nil
}
