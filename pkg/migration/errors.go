// SPDX-License-Identifier: Apache-2.0

package migration

import "fmt"

// DatabaseError wraps any failure surfaced by the underlying driver or
// dialect adapter.
type DatabaseError struct {
	Dialect string
	Err     error
}

func (e DatabaseError) Unwrap() error { return e.Err }

func (e DatabaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Dialect, e.Err.Error())
}

// AppNameRequiredError is raised when a Plan sets Migration without App.
type AppNameRequiredError struct{}

func (e AppNameRequiredError) Error() string {
	return "app name is required when migration name is set"
}

// AppNameNotExistsError is raised when a Plan targets an app with no
// matching migration in the resolved plan.
type AppNameNotExistsError struct {
	App string
}

func (e AppNameNotExistsError) Error() string {
	return fmt.Sprintf("app %q does not exist", e.App)
}

// MigrationNameNotExistsError is raised when a Plan targets (app, name) and
// app has migrations in the plan but name is not among them.
type MigrationNameNotExistsError struct {
	App  string
	Name string
}

func (e MigrationNameNotExistsError) Error() string {
	return fmt.Sprintf("migration %q does not exist in app %q", e.Name, e.App)
}

// AppliedMigrationExistsError is raised when the bookkeeping table is
// dropped while applied rows remain.
type AppliedMigrationExistsError struct{}

func (e AppliedMigrationExistsError) Error() string {
	return "cannot drop migration table: applied migrations exist"
}

// FailedToCreateMigrationPlanError is raised when the topological resolver
// makes no progress over a full pass.
type FailedToCreateMigrationPlanError struct {
	Resolved int
	Total    int
}

func (e FailedToCreateMigrationPlanError) Error() string {
	return fmt.Sprintf("failed to create migration plan: resolved %d of %d migrations (cycle or contradictory parents/run_before)", e.Resolved, e.Total)
}

// BothMigrationTypeAppliedError is raised when both a replacement migration
// and one of the migrations it replaces are present in the applied set.
type BothMigrationTypeAppliedError struct {
	App          string
	Name         string
	ReplacedApp  string
	ReplacedName string
}

func (e BothMigrationTypeAppliedError) Error() string {
	return fmt.Sprintf("both migration %s.%s and the migration it replaces, %s.%s, are applied", e.App, e.Name, e.ReplacedApp, e.ReplacedName)
}

// AmbiguousReplacementError is raised when more than one migration declares
// Replaces on the same target migration.
type AmbiguousReplacementError struct {
	App          string
	Name         string
	ReplacedApp  string
	ReplacedName string
}

func (e AmbiguousReplacementError) Error() string {
	return fmt.Sprintf("migration %s.%s is replaced by more than one migration (conflict at %s.%s)", e.ReplacedApp, e.ReplacedName, e.App, e.Name)
}

// PendingMigrationPresentError is raised when check mode finds a non-empty
// Apply plan.
type PendingMigrationPresentError struct {
	Count int
}

func (e PendingMigrationPresentError) Error() string {
	return fmt.Sprintf("%d pending migration(s) present", e.Count)
}

// InvalidPrefixError is raised when a configured bookkeeping-table prefix
// contains characters that could not be safely interpolated into DDL.
type InvalidPrefixError struct {
	Prefix string
}

func (e InvalidPrefixError) Error() string {
	return fmt.Sprintf("invalid table prefix %q: must match [a-zA-Z_][a-zA-Z0-9_]*", e.Prefix)
}
