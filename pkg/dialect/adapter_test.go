// SPDX-License-Identifier: Apache-2.0

package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaysql/schemax/pkg/dialect"
)

func TestTableName(t *testing.T) {
	assert.Equal(t, "_sqlx_migrator_migrations", dialect.TableName(""))
	assert.Equal(t, "acme_sqlx_migrator_migrations", dialect.TableName("acme"))
}

func TestValidatePrefix(t *testing.T) {
	assert.True(t, dialect.ValidatePrefix(""))
	assert.True(t, dialect.ValidatePrefix("acme"))
	assert.True(t, dialect.ValidatePrefix("_acme_1"))
	assert.False(t, dialect.ValidatePrefix("acme; DROP TABLE x"))
	assert.False(t, dialect.ValidatePrefix("1acme"))
	assert.False(t, dialect.ValidatePrefix("acme-prod"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "postgres", dialect.Postgres.String())
	assert.Equal(t, "mysql", dialect.MySQL.String())
	assert.Equal(t, "sqlite", dialect.SQLite.String())
}

func TestNewDispatchesConcreteAdapters(t *testing.T) {
	assert.Equal(t, dialect.Postgres, dialect.New(dialect.Postgres, "").Kind())
	assert.Equal(t, dialect.MySQL, dialect.New(dialect.MySQL, "").Kind())
	assert.Equal(t, dialect.SQLite, dialect.New(dialect.SQLite, "").Kind())
}
