// SPDX-License-Identifier: Apache-2.0

//go:build integration

package migrator_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaysql/schemax/internal/testutils"
	"github.com/relaysql/schemax/pkg/dialect"
	"github.com/relaysql/schemax/pkg/migration"
	"github.com/relaysql/schemax/pkg/migrator"
	"github.com/relaysql/schemax/pkg/plan"
)

func createWidgetsOpPostgres() *migration.SQLOperation {
	return &migration.SQLOperation{
		UpSQL:   migration.DialectSQL{Postgres: "CREATE TABLE widgets (id serial PRIMARY KEY)"},
		DownSQL: migration.DialectSQL{Postgres: "DROP TABLE widgets"},
	}
}

func TestMigratorApplyRevertRoundtripPostgres(t *testing.T) {
	testutils.WithPostgresDatabase(t, func(conn *sql.DB, _ string) {
		mg, err := migrator.New(conn, dialect.Postgres, migrator.WithPrefix("schemax_test"))
		require.NoError(t, err)

		a := migration.New("main", "create_widgets", createWidgetsOpPostgres())
		mg.Add(a)

		ctx := context.Background()
		require.NoError(t, mg.ApplyAll(ctx))

		applied, err := mg.ListApplied(ctx)
		require.NoError(t, err)
		assert.Len(t, applied, 1)

		require.NoError(t, mg.RevertAll(ctx))

		applied, err = mg.ListApplied(ctx)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})
}

func TestMigratorSecondMigratorSeesAppliedPostgres(t *testing.T) {
	testutils.WithPostgresDatabase(t, func(conn *sql.DB, connStr string) {
		second, err := sql.Open("postgres", connStr)
		require.NoError(t, err)
		defer second.Close()

		mg1, err := migrator.New(conn, dialect.Postgres, migrator.WithPrefix("schemax_test"))
		require.NoError(t, err)
		mg2, err := migrator.New(second, dialect.Postgres, migrator.WithPrefix("schemax_test"))
		require.NoError(t, err)

		a := migration.New("main", "create_widgets", createWidgetsOpPostgres())
		mg1.Add(a)
		mg2.Add(a)

		ctx := context.Background()
		require.NoError(t, mg1.ApplyAll(ctx))

		applied, err := mg2.Apply(ctx, plan.Plan{Type: plan.Apply})
		require.NoError(t, err)
		assert.Empty(t, applied, "second migrator observes the migration as already applied")
	})
}
