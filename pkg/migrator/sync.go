// SPDX-License-Identifier: Apache-2.0

package migrator

import (
	"context"
	"database/sql"

	"github.com/relaysql/schemax/pkg/migration"
)

// OldMigrator is the minimal capability SyncFrom needs from a foreign
// migrator: enumerate the (app, name) identities its own bookkeeping table
// considers applied.
type OldMigrator interface {
	ListApplied(ctx context.Context) ([]migration.Identity, error)
}

// SyncFrom imports applied rows from a foreign migrator: for every identity
// old reports that matches a migration registered here and is not already
// present in this migrator's table, it inserts a row. Server-assigned
// timestamps are not preserved from the foreign source. Runs under the lock.
func (mg *Migrator) SyncFrom(ctx context.Context, old OldMigrator) ([]*migration.Migration, error) {
	var synced []*migration.Migration

	err := mg.withLock(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if err := mg.ensureTable(ctx, conn); err != nil {
			return err
		}

		foreignIDs, err := old.ListApplied(ctx)
		if err != nil {
			return err
		}

		existing, err := mg.fetchApplied(ctx, conn)
		if err != nil {
			return err
		}
		existingSet := make(map[migration.Identity]struct{}, len(existing))
		for _, id := range existing {
			existingSet[id] = struct{}{}
		}

		for _, id := range foreignIDs {
			if _, ok := existingSet[id]; ok {
				continue
			}
			m, ok := mg.set.Get(id)
			if !ok {
				continue
			}
			if err := mg.wrapDBErr(mg.adapter.InsertApplied(ctx, conn, toDialectIdentity(id))); err != nil {
				return err
			}
			synced = append(synced, m)
		}
		return nil
	})

	return synced, err
}
