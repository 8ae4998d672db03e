// SPDX-License-Identifier: Apache-2.0

// Package migrator implements the apply/revert engine: it owns the
// registered migration set and a connection pool, and drives the plan
// resolver under the cross-process lock to bring the database's bookkeeping
// table in line with a requested plan.
package migrator

import (
	"context"
	"database/sql"

	"github.com/relaysql/schemax/pkg/db"
	"github.com/relaysql/schemax/pkg/dialect"
	"github.com/relaysql/schemax/pkg/migration"
	"github.com/relaysql/schemax/pkg/plan"
)

// Migrator is process-scope state: the migration set, a reference to the
// connection pool, and the dialect adapter derived from the configured
// prefix. It is created once per process and mutated only by registration;
// everything after that is read-only with respect to the set.
type Migrator struct {
	db      *sql.DB
	kind    dialect.Kind
	adapter dialect.Adapter
	set     *migration.Set
	opts    *options

	opCount int
}

// New constructs a Migrator bound to conn, targeting the given dialect.
func New(conn *sql.DB, kind dialect.Kind, opts ...Option) (*Migrator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if !dialect.ValidatePrefix(o.prefix) {
		return nil, migration.InvalidPrefixError{Prefix: o.prefix}
	}

	return &Migrator{
		db:      conn,
		kind:    kind,
		adapter: dialect.New(kind, o.prefix),
		set:     migration.NewSet(),
		opts:    o,
	}, nil
}

// Add registers a migration, transitively closing over its parents and
// replaces relations.
func (mg *Migrator) Add(m *migration.Migration) {
	mg.set.Add(m)
}

// AddAll registers every migration in ms.
func (mg *Migrator) AddAll(ms []*migration.Migration) {
	mg.set.AddAll(ms)
}

// Registered returns every migration registered so far, in insertion order.
func (mg *Migrator) Registered() []*migration.Migration {
	return mg.set.All()
}

// EnsureMigrationTableExists creates the bookkeeping table if it is absent.
func (mg *Migrator) EnsureMigrationTableExists(ctx context.Context) error {
	return mg.withLock(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return mg.ensureTable(ctx, conn)
	})
}

// DropMigrationTableIfExists drops the bookkeeping table, refusing to do so
// while any applied row remains.
func (mg *Migrator) DropMigrationTableIfExists(ctx context.Context) error {
	return mg.withLock(ctx, func(ctx context.Context, conn *sql.Conn) error {
		applied, err := mg.fetchApplied(ctx, conn)
		if err != nil {
			return err
		}
		if len(applied) > 0 {
			return migration.AppliedMigrationExistsError{}
		}
		return mg.wrapDBErr(mg.adapter.DropTable(ctx, conn))
	})
}

// GenerateMigrationPlan resolves p against the registered set and the
// currently persisted applied rows. It does not take the lock: plan
// generation is a read, and readers may observe a momentarily-inconsistent
// view during a concurrent locked run.
func (mg *Migrator) GenerateMigrationPlan(ctx context.Context, p plan.Plan) ([]*migration.Migration, error) {
	applied, err := mg.fetchApplied(ctx, mg.db)
	if err != nil {
		return nil, err
	}
	return plan.Resolve(mg.set, applied, p)
}

// AppliedIdentities returns the raw (app, name) identities currently marked
// applied, including identities with no migration registered locally. It has
// the shape of OldMigrator.ListApplied under a different name; Migrator
// itself does not implement OldMigrator, since its ListApplied returns
// migrations rather than identities.
func (mg *Migrator) AppliedIdentities(ctx context.Context) ([]migration.Identity, error) {
	return mg.fetchApplied(ctx, mg.db)
}

// ListApplied returns the registered migrations that are currently marked
// applied, in bookkeeping order.
func (mg *Migrator) ListApplied(ctx context.Context) ([]*migration.Migration, error) {
	applied, err := mg.fetchApplied(ctx, mg.db)
	if err != nil {
		return nil, err
	}
	out := make([]*migration.Migration, 0, len(applied))
	for _, id := range applied {
		if m, ok := mg.set.Get(id); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// ApplyAll applies every pending migration.
func (mg *Migrator) ApplyAll(ctx context.Context) error {
	_, err := mg.Apply(ctx, plan.Plan{Type: plan.Apply})
	return err
}

// RevertAll reverts every applied migration.
func (mg *Migrator) RevertAll(ctx context.Context) error {
	_, err := mg.Revert(ctx, plan.Plan{Type: plan.Revert})
	return err
}

// Apply locks, resolves p (forced to plan.Apply), applies every migration in
// the resolved plan in order, and unlocks. It returns the migrations it
// applied.
func (mg *Migrator) Apply(ctx context.Context, p plan.Plan) ([]*migration.Migration, error) {
	p.Type = plan.Apply
	mg.opCount = 0

	var result []*migration.Migration
	err := mg.withLock(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if err := mg.ensureTable(ctx, conn); err != nil {
			return err
		}
		applied, err := mg.fetchApplied(ctx, conn)
		if err != nil {
			return err
		}
		toApply, err := plan.Resolve(mg.set, applied, p)
		if err != nil {
			return err
		}
		for _, m := range toApply {
			mg.opts.logger.LogMigrationStart(m)
			if err := mg.applyOneLocked(ctx, conn, m); err != nil {
				return err
			}
			mg.opts.logger.LogMigrationComplete(m)
		}
		result = toApply
		return nil
	})
	return result, err
}

// Revert locks, resolves p (forced to plan.Revert), reverts every migration
// in the resolved plan in order, and unlocks. It returns the migrations it
// reverted.
func (mg *Migrator) Revert(ctx context.Context, p plan.Plan) ([]*migration.Migration, error) {
	p.Type = plan.Revert
	mg.opCount = 0

	var result []*migration.Migration
	err := mg.withLock(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if err := mg.ensureTable(ctx, conn); err != nil {
			return err
		}
		applied, err := mg.fetchApplied(ctx, conn)
		if err != nil {
			return err
		}
		toRevert, err := plan.Resolve(mg.set, applied, p)
		if err != nil {
			return err
		}
		for _, m := range toRevert {
			mg.opts.logger.LogMigrationRollback(m)
			if err := mg.revertOneLocked(ctx, conn, m); err != nil {
				return err
			}
			mg.opts.logger.LogMigrationRollbackComplete(m)
		}
		result = toRevert
		return nil
	})
	return result, err
}

// ApplyMigration applies a single migration directly, under its own lock
// acquisition. It runs the same per-migration step (applyOneLocked) that
// Apply's loop runs under its single lock.
func (mg *Migrator) ApplyMigration(ctx context.Context, m *migration.Migration) error {
	mg.opCount = 0
	return mg.withLock(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if err := mg.ensureTable(ctx, conn); err != nil {
			return err
		}
		mg.opts.logger.LogMigrationStart(m)
		if err := mg.applyOneLocked(ctx, conn, m); err != nil {
			return err
		}
		mg.opts.logger.LogMigrationComplete(m)
		return nil
	})
}

// RevertMigration reverts a single migration directly, under its own lock
// acquisition.
func (mg *Migrator) RevertMigration(ctx context.Context, m *migration.Migration) error {
	mg.opCount = 0
	return mg.withLock(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if err := mg.ensureTable(ctx, conn); err != nil {
			return err
		}
		mg.opts.logger.LogMigrationRollback(m)
		if err := mg.revertOneLocked(ctx, conn, m); err != nil {
			return err
		}
		mg.opts.logger.LogMigrationRollbackComplete(m)
		return nil
	})
}

// FakeApply marks the Apply-resolved plan as applied without running any
// operation, for adopting externally-managed schema as known.
func (mg *Migrator) FakeApply(ctx context.Context, p plan.Plan) ([]*migration.Migration, error) {
	p.Type = plan.Apply

	var result []*migration.Migration
	err := mg.withLock(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if err := mg.ensureTable(ctx, conn); err != nil {
			return err
		}
		applied, err := mg.fetchApplied(ctx, conn)
		if err != nil {
			return err
		}
		toApply, err := plan.Resolve(mg.set, applied, p)
		if err != nil {
			return err
		}
		for _, m := range toApply {
			if err := mg.wrapDBErr(mg.adapter.InsertApplied(ctx, conn, toDialectIdentity(m.Id()))); err != nil {
				return err
			}
		}
		result = toApply
		return nil
	})
	return result, err
}

// FakeRevert deletes the bookkeeping rows for the Revert-resolved plan
// without running any operation.
func (mg *Migrator) FakeRevert(ctx context.Context, p plan.Plan) ([]*migration.Migration, error) {
	p.Type = plan.Revert

	var result []*migration.Migration
	err := mg.withLock(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if err := mg.ensureTable(ctx, conn); err != nil {
			return err
		}
		applied, err := mg.fetchApplied(ctx, conn)
		if err != nil {
			return err
		}
		toRevert, err := plan.Resolve(mg.set, applied, p)
		if err != nil {
			return err
		}
		for _, m := range toRevert {
			if err := mg.wrapDBErr(mg.adapter.DeleteApplied(ctx, conn, toDialectIdentity(m.Id()))); err != nil {
				return err
			}
		}
		result = toRevert
		return nil
	})
	return result, err
}

// Check returns PendingMigrationPresentError if resolving p as an Apply plan
// would be non-empty. It runs no operation and writes no bookkeeping row; it
// does create the bookkeeping table if it is absent.
func (mg *Migrator) Check(ctx context.Context, p plan.Plan) error {
	p.Type = plan.Apply
	if err := mg.EnsureMigrationTableExists(ctx); err != nil {
		return err
	}
	pending, err := mg.GenerateMigrationPlan(ctx, p)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return migration.PendingMigrationPresentError{Count: len(pending)}
	}
	return nil
}

// withLock acquires a single connection dedicated to this run, locks it,
// runs fn, and unlocks before returning the connection to the pool. The
// lock is released on every exit path, including when fn panics unwound by
// a deferred recover higher up the stack — Unlock itself never panics.
func (mg *Migrator) withLock(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	conn, err := mg.db.Conn(ctx)
	if err != nil {
		return mg.wrapDBErr(err)
	}
	defer conn.Close()

	if err := db.Retry(ctx, mg.kind, func() error {
		return mg.adapter.Lock(ctx, conn)
	}); err != nil {
		return mg.wrapDBErr(err)
	}
	defer mg.adapter.Unlock(ctx, conn)

	return fn(ctx, conn)
}

func (mg *Migrator) ensureTable(ctx context.Context, conn dialect.Conn) error {
	return mg.wrapDBErr(mg.adapter.EnsureTable(ctx, conn))
}

func (mg *Migrator) fetchApplied(ctx context.Context, conn dialect.Conn) ([]migration.Identity, error) {
	rows, err := mg.adapter.FetchApplied(ctx, conn)
	if err != nil {
		return nil, mg.wrapDBErr(err)
	}
	out := make([]migration.Identity, len(rows))
	for i, r := range rows {
		out[i] = migration.Identity{App: r.App, Name: r.Name}
	}
	return out, nil
}

func (mg *Migrator) wrapDBErr(err error) error {
	if err == nil {
		return nil
	}
	return migration.DatabaseError{Dialect: mg.kind.String(), Err: err}
}

func toDialectIdentity(id migration.Identity) dialect.Identity {
	return dialect.Identity{App: id.App, Name: id.Name}
}
