// SPDX-License-Identifier: Apache-2.0

// Package plan resolves a migration Set and a persisted applied set into the
// ordered list of migrations a Migrator should execute. It holds no database
// knowledge of its own; callers supply the applied set and consume the
// result.
package plan

import "github.com/relaysql/schemax/pkg/migration"

// Type selects which subset of the topological order Resolve returns.
type Type int

const (
	// All returns the full topological order, unfiltered by applied state.
	All Type = iota
	// Apply returns only migrations not yet in the applied set.
	Apply
	// Revert returns only migrations already in the applied set, reversed.
	Revert
)

// Plan is a resolution request. Migration is only meaningful with App set;
// a Migration set without App is rejected with AppNameRequiredError.
type Plan struct {
	Type      Type
	App       string
	Migration string
}

func (p Plan) validate() error {
	if p.Migration != "" && p.App == "" {
		return migration.AppNameRequiredError{}
	}
	return nil
}
