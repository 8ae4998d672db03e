// SPDX-License-Identifier: Apache-2.0

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaysql/schemax/pkg/dialect"
	"github.com/relaysql/schemax/pkg/migration"
)

func TestDialectSQLForSelectsByKind(t *testing.T) {
	d := migration.DialectSQL{
		Postgres: "pg",
		MySQL:    "my",
		SQLite:   "lite",
	}

	stmt, err := d.For(dialect.Postgres)
	assert.NoError(t, err)
	assert.Equal(t, "pg", stmt)

	stmt, err = d.For(dialect.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "my", stmt)

	stmt, err = d.For(dialect.SQLite)
	assert.NoError(t, err)
	assert.Equal(t, "lite", stmt)
}

func TestDialectSQLForMissingDialectErrors(t *testing.T) {
	d := migration.DialectSQL{Postgres: "pg"}

	_, err := d.For(dialect.MySQL)
	assert.Error(t, err)
	var target migration.NoSQLForDialectError
	assert.ErrorAs(t, err, &target)
}

func TestSQLOperationRequiresNonAtomicExecution(t *testing.T) {
	atomic := &migration.SQLOperation{UpSQL: migration.DialectSQL{Postgres: "x"}}
	assert.False(t, atomic.RequiresNonAtomicExecution())

	nonAtomic := &migration.SQLOperation{NonAtomic: true}
	assert.True(t, nonAtomic.RequiresNonAtomicExecution())
}

func TestMigrationAtomicFalseWhenAnyOperationRequiresNonAtomic(t *testing.T) {
	m := migration.New("main", "a",
		&migration.SQLOperation{UpSQL: migration.DialectSQL{Postgres: "ok"}},
		&migration.SQLOperation{NonAtomic: true},
	)

	assert.True(t, m.IsAtomic, "declared atomic")
	assert.False(t, m.Atomic(), "one non-atomic operation forces the whole migration non-atomic")
}

func TestMigrationAtomicRespectsExplicitFalse(t *testing.T) {
	m := migration.New("main", "a").NonAtomic()
	assert.False(t, m.Atomic())
}
