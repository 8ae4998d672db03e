// SPDX-License-Identifier: Apache-2.0

// Package migration defines the migration/operation data model and the
// deduplicated, transitively-closed Set that a Migrator registers migrations
// into. It carries no knowledge of SQL dialects or persistence — those live
// in pkg/dialect and pkg/migrator respectively.
package migration

// Identity is the (app, name) pair that uniquely names a migration. Two
// migrations are equal iff their identities match; hashing/map-keying is
// over (App, Name) only — Parents, Operations and the rest are deliberately
// excluded so that re-declaring a migration's relations does not change its
// identity.
type Identity struct {
	App  string
	Name string
}

// Migration is the unit of schema change: a pair of identity fields (App,
// Name), declared relations to other migrations, and an ordered list of
// Operations to run on apply (in declared order) or revert (in reverse
// order).
//
// Parents, RunBefore and Replaces hold pointers to the related Migration
// values themselves (not bare identities): a Set exclusively owns every
// Migration it contains, and these fields are back-references into that
// ownership, following the ownership model in the package's design notes.
type Migration struct {
	App  string
	Name string

	// Parents must be applied before this migration.
	Parents []*Migration

	// RunBefore must be applied after this migration (an inverse dependency
	// edge contributed by this migration onto another).
	RunBefore []*Migration

	// Replaces lists migrations this one supersedes. If any replaced
	// migration is already applied, this migration is treated as applied;
	// otherwise it stands in for all of them in the generated plan.
	Replaces []*Migration

	Operations []Operation

	// IsAtomic defaults to true. It is ignored (treated as false) if any
	// Operation in Operations implements NonAtomicOperation and reports
	// true.
	IsAtomic bool
}

// Id returns this migration's identity.
func (m *Migration) Id() Identity {
	return Identity{App: m.App, Name: m.Name}
}

// Atomic reports whether this migration should execute inside a single
// transaction, accounting for any operation that forces non-atomic
// execution.
func (m *Migration) Atomic() bool {
	if !m.IsAtomic {
		return false
	}
	for _, op := range m.Operations {
		if hinter, ok := op.(NonAtomicOperation); ok && hinter.RequiresNonAtomicExecution() {
			return false
		}
	}
	return true
}

// New constructs a Migration with IsAtomic defaulting to true, per the data
// model's default.
func New(app, name string, operations ...Operation) *Migration {
	return &Migration{
		App:        app,
		Name:       name,
		Operations: operations,
		IsAtomic:   true,
	}
}

// WithParents sets Parents and returns the receiver, for fluent construction.
func (m *Migration) WithParents(parents ...*Migration) *Migration {
	m.Parents = parents
	return m
}

// WithRunBefore sets RunBefore and returns the receiver.
func (m *Migration) WithRunBefore(runBefore ...*Migration) *Migration {
	m.RunBefore = runBefore
	return m
}

// WithReplaces sets Replaces and returns the receiver.
func (m *Migration) WithReplaces(replaces ...*Migration) *Migration {
	m.Replaces = replaces
	return m
}

// NonAtomic sets IsAtomic to false and returns the receiver.
func (m *Migration) NonAtomic() *Migration {
	m.IsAtomic = false
	return m
}
