// SPDX-License-Identifier: Apache-2.0

package migrator

import (
	"github.com/pterm/pterm"

	"github.com/relaysql/schemax/pkg/migration"
)

// Logger reports progress of migration apply/revert runs.
type Logger interface {
	LogMigrationStart(*migration.Migration)
	LogMigrationComplete(*migration.Migration)
	LogMigrationRollback(*migration.Migration)
	LogMigrationRollbackComplete(*migration.Migration)

	Info(msg string, args ...any)
}

type migratorLogger struct {
	logger pterm.Logger
}

type noopLogger struct{}

// NewLogger returns a Logger backed by pterm's structured default logger.
func NewLogger() Logger {
	return &migratorLogger{logger: pterm.DefaultLogger}
}

// NewNoopLogger returns a Logger that discards everything, for tests.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *migratorLogger) LogMigrationStart(m *migration.Migration) {
	l.logger.Info("applying migration", l.logger.Args(
		"app", m.App,
		"name", m.Name,
		"operation_count", len(m.Operations),
		"atomic", m.Atomic(),
	))
}

func (l *migratorLogger) LogMigrationComplete(m *migration.Migration) {
	l.logger.Info("applied migration", l.logger.Args("app", m.App, "name", m.Name))
}

func (l *migratorLogger) LogMigrationRollback(m *migration.Migration) {
	l.logger.Info("reverting migration", l.logger.Args(
		"app", m.App,
		"name", m.Name,
		"operation_count", len(m.Operations),
	))
}

func (l *migratorLogger) LogMigrationRollbackComplete(m *migration.Migration) {
	l.logger.Info("reverted migration", l.logger.Args("app", m.App, "name", m.Name))
}

func (l *migratorLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args...))
}

func (l *noopLogger) LogMigrationStart(m *migration.Migration)            {}
func (l *noopLogger) LogMigrationComplete(m *migration.Migration)         {}
func (l *noopLogger) LogMigrationRollback(m *migration.Migration)         {}
func (l *noopLogger) LogMigrationRollbackComplete(m *migration.Migration) {}
func (l *noopLogger) Info(msg string, args ...any)                       {}
