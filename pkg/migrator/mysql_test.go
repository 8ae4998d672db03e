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
)

func createWidgetsOpMySQL() *migration.SQLOperation {
	return &migration.SQLOperation{
		UpSQL:   migration.DialectSQL{MySQL: "CREATE TABLE widgets (id BIGINT AUTO_INCREMENT PRIMARY KEY)"},
		DownSQL: migration.DialectSQL{MySQL: "DROP TABLE widgets"},
	}
}

func TestMigratorApplyRevertRoundtripMySQL(t *testing.T) {
	testutils.WithMySQLDatabase(t, func(conn *sql.DB, _ string) {
		mg, err := migrator.New(conn, dialect.MySQL, migrator.WithPrefix("schemax_test"))
		require.NoError(t, err)

		a := migration.New("main", "create_widgets", createWidgetsOpMySQL())
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

func TestMigratorDropGateMySQL(t *testing.T) {
	testutils.WithMySQLDatabase(t, func(conn *sql.DB, _ string) {
		mg, err := migrator.New(conn, dialect.MySQL, migrator.WithPrefix("schemax_test"))
		require.NoError(t, err)

		a := migration.New("main", "create_widgets", createWidgetsOpMySQL())
		mg.Add(a)

		ctx := context.Background()
		require.NoError(t, mg.ApplyAll(ctx))

		err = mg.DropMigrationTableIfExists(ctx)
		require.Error(t, err)
		var target migration.AppliedMigrationExistsError
		assert.ErrorAs(t, err, &target)

		require.NoError(t, mg.RevertAll(ctx))
		assert.NoError(t, mg.DropMigrationTableIfExists(ctx))
	})
}
