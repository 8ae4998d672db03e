// SPDX-License-Identifier: Apache-2.0

package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultPostgresVersion = "15.3"
	defaultMySQLVersion    = "8.0"
)

var (
	postgresConnStr string
	mysqlConnStr    string
)

// SharedPostgresTestMain starts a Postgres container shared by every test in
// a package. Each test then connects to the container and creates its own
// database, mirroring the teacher's single-container-many-databases layout.
func SharedPostgresTestMain(m *testing.M) {
	ctx := context.Background()

	pgVersion := os.Getenv("SCHEMAX_POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := tcpostgres.Run(ctx, "postgres:"+pgVersion,
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start postgres container:", err)
		os.Exit(1)
	}

	postgresConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate postgres container: %v", err)
	}
	os.Exit(exitCode)
}

// SharedMySQLTestMain starts a MySQL container shared by every test in a
// package.
func SharedMySQLTestMain(m *testing.M) {
	ctx := context.Background()

	version := os.Getenv("SCHEMAX_MYSQL_VERSION")
	if version == "" {
		version = defaultMySQLVersion
	}

	ctr, err := tcmysql.Run(ctx, "mysql:"+version,
		tcmysql.WithDatabase("schemax"),
		tcmysql.WithUsername("schemax"),
		tcmysql.WithPassword("schemax"),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start mysql container:", err)
		os.Exit(1)
	}

	mysqlConnStr, err = ctr.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate mysql container: %v", err)
	}
	os.Exit(exitCode)
}

// SharedDialectsTestMain starts both the Postgres and MySQL containers for
// packages whose tests exercise more than one dialect. Tests pick their
// container via WithPostgresDatabase / WithMySQLDatabase.
func SharedDialectsTestMain(m *testing.M) {
	ctx := context.Background()

	pgVersion := os.Getenv("SCHEMAX_POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}
	pgCtr, err := tcpostgres.Run(ctx, "postgres:"+pgVersion,
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start postgres container:", err)
		os.Exit(1)
	}
	postgresConnStr, err = pgCtr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	mysqlVersion := os.Getenv("SCHEMAX_MYSQL_VERSION")
	if mysqlVersion == "" {
		mysqlVersion = defaultMySQLVersion
	}
	myCtr, err := tcmysql.Run(ctx, "mysql:"+mysqlVersion,
		tcmysql.WithDatabase("schemax"),
		tcmysql.WithUsername("schemax"),
		tcmysql.WithPassword("schemax"),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start mysql container:", err)
		os.Exit(1)
	}
	mysqlConnStr, err = myCtr.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := pgCtr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate postgres container: %v", err)
	}
	if err := myCtr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate mysql container: %v", err)
	}
	os.Exit(exitCode)
}

// WithPostgresDatabase creates a fresh database on the shared Postgres
// container, opens a connection to it, and invokes fn. The connections are
// closed with t.Cleanup; the database itself stays on the container until
// the container is terminated.
func WithPostgresDatabase(t *testing.T, fn func(db *sql.DB, connStr string)) {
	t.Helper()
	ctx := context.Background()

	admin, err := sql.Open("postgres", postgresConnStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = admin.Close() })

	dbName := randomDBName()
	if _, err := admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(postgresConnStr)
	if err != nil {
		t.Fatal(err)
	}
	u.Path = "/" + dbName
	connStr := u.String()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fn(db, connStr)
}

// WithMySQLDatabase creates a fresh database on the shared MySQL container,
// opens a connection to it, and invokes fn.
func WithMySQLDatabase(t *testing.T, fn func(db *sql.DB, connStr string)) {
	t.Helper()
	ctx := context.Background()

	admin, err := sql.Open("mysql", mysqlDSN(t, mysqlConnStr))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = admin.Close() })

	dbName := randomDBName()
	if _, err := admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		t.Fatal(err)
	}

	connStr := mysqlConnStrForDB(t, mysqlConnStr, dbName)
	db, err := sql.Open("mysql", mysqlDSN(t, connStr))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fn(db, connStr)
}

func randomDBName() string {
	const length = 15
	const charset = "abcdefghijklmnopqrstuvwxyz"

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))] // #nosec G404
	}
	return "testdb_" + string(b)
}

func mysqlDSN(t *testing.T, mysqlURI string) string {
	t.Helper()
	u, err := url.Parse(mysqlURI)
	if err != nil {
		t.Fatal(err)
	}
	dsn := u.User.String() + "@tcp(" + u.Host + ")" + u.Path
	if u.RawQuery != "" {
		dsn += "?" + u.RawQuery
	}
	return dsn
}

func mysqlConnStrForDB(t *testing.T, mysqlURI, dbName string) string {
	t.Helper()
	u, err := url.Parse(mysqlURI)
	if err != nil {
		t.Fatal(err)
	}
	u.Path = "/" + dbName
	return u.String()
}
