// SPDX-License-Identifier: Apache-2.0

package migrator

import (
	"context"
	"database/sql"

	"github.com/relaysql/schemax/pkg/db"
	"github.com/relaysql/schemax/pkg/dialect"
	"github.com/relaysql/schemax/pkg/migration"
)

// applyOneLocked applies m on the connection holding the run's lock. For an
// atomic migration every operation and the bookkeeping insert run inside one
// transaction; any failure aborts the transaction and no row is written. For
// a non-atomic migration there is no enclosing transaction: a failure halts
// the loop with the database left wherever the completed operations put it,
// and no bookkeeping row is written for the failed migration.
func (mg *Migrator) applyOneLocked(ctx context.Context, conn *sql.Conn, m *migration.Migration) error {
	if m.Atomic() {
		return db.Retry(ctx, mg.kind, func() error {
			tx, err := conn.BeginTx(ctx, nil)
			if err != nil {
				return mg.wrapDBErr(err)
			}
			dc := dialect.DialectConn{Conn: tx, Kind: mg.kind}
			if err := mg.runUp(ctx, dc, m); err != nil {
				_ = tx.Rollback()
				return err
			}
			if err := mg.adapter.InsertApplied(ctx, tx, toDialectIdentity(m.Id())); err != nil {
				_ = tx.Rollback()
				return mg.wrapDBErr(err)
			}
			return mg.wrapDBErr(tx.Commit())
		})
	}

	dc := dialect.DialectConn{Conn: conn, Kind: mg.kind}
	if err := mg.runUp(ctx, dc, m); err != nil {
		return err
	}
	return mg.wrapDBErr(mg.adapter.InsertApplied(ctx, conn, toDialectIdentity(m.Id())))
}

// revertOneLocked mirrors applyOneLocked: operations run in reverse
// declared order and the bookkeeping row is deleted instead of inserted.
func (mg *Migrator) revertOneLocked(ctx context.Context, conn *sql.Conn, m *migration.Migration) error {
	if m.Atomic() {
		return db.Retry(ctx, mg.kind, func() error {
			tx, err := conn.BeginTx(ctx, nil)
			if err != nil {
				return mg.wrapDBErr(err)
			}
			dc := dialect.DialectConn{Conn: tx, Kind: mg.kind}
			if err := mg.runDown(ctx, dc, m); err != nil {
				_ = tx.Rollback()
				return err
			}
			if err := mg.adapter.DeleteApplied(ctx, tx, toDialectIdentity(m.Id())); err != nil {
				_ = tx.Rollback()
				return mg.wrapDBErr(err)
			}
			return mg.wrapDBErr(tx.Commit())
		})
	}

	dc := dialect.DialectConn{Conn: conn, Kind: mg.kind}
	if err := mg.runDown(ctx, dc, m); err != nil {
		return err
	}
	return mg.wrapDBErr(mg.adapter.DeleteApplied(ctx, conn, toDialectIdentity(m.Id())))
}

func (mg *Migrator) runUp(ctx context.Context, conn dialect.DialectConn, m *migration.Migration) error {
	for _, op := range m.Operations {
		if err := mg.checkInjectedFailure(); err != nil {
			return err
		}
		if err := op.Up(ctx, conn); err != nil {
			return mg.wrapDBErr(err)
		}
		mg.opCount++
	}
	return nil
}

func (mg *Migrator) runDown(ctx context.Context, conn dialect.DialectConn, m *migration.Migration) error {
	for i := len(m.Operations) - 1; i >= 0; i-- {
		if err := mg.checkInjectedFailure(); err != nil {
			return err
		}
		if err := m.Operations[i].Down(ctx, conn); err != nil {
			return mg.wrapDBErr(err)
		}
		mg.opCount++
	}
	return nil
}

func (mg *Migrator) checkInjectedFailure() error {
	if mg.opts.failAfterOperation < 0 {
		return nil
	}
	if mg.opCount == mg.opts.failAfterOperation {
		return InjectedFailureError{AfterOperation: mg.opCount}
	}
	return nil
}
