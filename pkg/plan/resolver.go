// SPDX-License-Identifier: Apache-2.0

package plan

import "github.com/relaysql/schemax/pkg/migration"

// Resolve computes the ordered list of migrations a Migrator should execute
// for p, given the full migration set and the persisted applied identities.
//
// The algorithm runs in five steps: build the run-before index, compute a
// topological order by iterative fixed point, collapse replaces relations
// against the applied set, filter by plan type, and truncate to the
// requested target. See the package's design notes for the rationale behind
// each step; this function does not deviate from that order.
func Resolve(set *migration.Set, applied []migration.Identity, p Plan) ([]*migration.Migration, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	appliedSet := make(map[migration.Identity]struct{}, len(applied))
	for _, id := range applied {
		appliedSet[id] = struct{}{}
	}

	all := set.All()

	order, err := topoOrder(all)
	if err != nil {
		return nil, err
	}

	order, err = collapseReplaces(order, appliedSet)
	if err != nil {
		return nil, err
	}

	order = filterByType(order, p.Type, appliedSet)

	return truncate(order, p)
}

// topoOrder builds the run-before index and runs the iterative fixed point
// described in the resolver's step 1 and step 2.
func topoOrder(all []*migration.Migration) ([]*migration.Migration, error) {
	before := make(map[migration.Identity][]*migration.Migration)
	for _, m := range all {
		for _, r := range m.RunBefore {
			id := r.Id()
			before[id] = append(before[id], m)
		}
	}

	inOrder := make(map[migration.Identity]bool, len(all))
	order := make([]*migration.Migration, 0, len(all))

	for len(order) < len(all) {
		progressed := false
		for _, m := range all {
			id := m.Id()
			if inOrder[id] {
				continue
			}
			if !allPresent(m.Parents, inOrder) {
				continue
			}
			if !allPresent(before[id], inOrder) {
				continue
			}
			order = append(order, m)
			inOrder[id] = true
			progressed = true
		}
		if !progressed {
			return nil, migration.FailedToCreateMigrationPlanError{
				Resolved: len(order),
				Total:    len(all),
			}
		}
	}

	return order, nil
}

func allPresent(ms []*migration.Migration, inOrder map[migration.Identity]bool) bool {
	for _, m := range ms {
		if !inOrder[m.Id()] {
			return false
		}
	}
	return true
}

// collapseReplaces implements the resolver's step 3.
//
// A replacer m is collapsed (removed from the output) when one of its
// replaced migrations is already known to be satisfied — either because it
// is literally in the applied set, or because it was itself collapsed as a
// stand-in for something applied further back in the same replaces chain.
// standIn tracks that extended notion and is grown to a fixed point: a
// single left-to-right pass is not enough to resolve a multi-level chain
// (e.g. D replaces C replaces B, B applied) when the topological order
// happens to visit D before C, since D's decision depends on a fact about C
// that isn't known yet on that pass. Passes repeat until standIn stops
// growing, and remove is rebuilt from scratch on every pass, so the final
// removals are all decided against the complete standIn regardless of
// visitation order.
//
// Before any of that, every distinct replaced target is checked for a
// second, unrelated replacer: two migrations both declaring Replaces on the
// same target is ambiguous and always rejected, independent of what is
// applied.
func collapseReplaces(order []*migration.Migration, appliedSet map[migration.Identity]struct{}) ([]*migration.Migration, error) {
	replacedBy := make(map[migration.Identity]*migration.Migration)
	for _, m := range order {
		for _, r := range m.Replaces {
			rid := r.Id()
			if existing, ok := replacedBy[rid]; ok && existing.Id() != m.Id() {
				return nil, migration.AmbiguousReplacementError{
					App:          existing.App,
					Name:         existing.Name,
					ReplacedApp:  r.App,
					ReplacedName: r.Name,
				}
			}
			replacedBy[rid] = m
		}
	}

	standIn := make(map[migration.Identity]bool, len(appliedSet))
	for id := range appliedSet {
		standIn[id] = true
	}
	var remove map[migration.Identity]bool

	for {
		beforeStandIn := len(standIn)
		remove = make(map[migration.Identity]bool)

		for _, m := range order {
			if len(m.Replaces) == 0 {
				continue
			}

			var satisfiedReplaced *migration.Migration
			for _, r := range m.Replaces {
				if standIn[r.Id()] {
					satisfiedReplaced = r
					break
				}
			}

			if satisfiedReplaced != nil {
				if _, ok := appliedSet[m.Id()]; ok {
					return nil, migration.BothMigrationTypeAppliedError{
						App:          m.App,
						Name:         m.Name,
						ReplacedApp:  satisfiedReplaced.App,
						ReplacedName: satisfiedReplaced.Name,
					}
				}
				remove[m.Id()] = true
				standIn[m.Id()] = true
				continue
			}

			for _, r := range m.Replaces {
				remove[r.Id()] = true
			}
		}

		if len(standIn) == beforeStandIn {
			break
		}
	}

	out := make([]*migration.Migration, 0, len(order))
	for _, m := range order {
		if !remove[m.Id()] {
			out = append(out, m)
		}
	}
	return out, nil
}

// filterByType implements the resolver's step 4.
func filterByType(order []*migration.Migration, t Type, appliedSet map[migration.Identity]struct{}) []*migration.Migration {
	switch t {
	case Apply:
		out := make([]*migration.Migration, 0, len(order))
		for _, m := range order {
			if _, ok := appliedSet[m.Id()]; !ok {
				out = append(out, m)
			}
		}
		return out
	case Revert:
		out := make([]*migration.Migration, 0, len(order))
		for _, m := range order {
			if _, ok := appliedSet[m.Id()]; ok {
				out = append(out, m)
			}
		}
		reverse(out)
		return out
	default: // All
		return order
	}
}

func reverse(ms []*migration.Migration) {
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
}

// truncate implements the resolver's step 5.
func truncate(order []*migration.Migration, p Plan) ([]*migration.Migration, error) {
	if p.App == "" {
		return order, nil
	}

	lastIdx := -1
	appSeen := false
	for i, m := range order {
		if m.App != p.App {
			continue
		}
		appSeen = true
		if p.Migration == "" || m.Name == p.Migration {
			lastIdx = i
		}
	}

	if lastIdx < 0 {
		if p.Migration != "" && appSeen {
			return nil, migration.MigrationNameNotExistsError{App: p.App, Name: p.Migration}
		}
		return nil, migration.AppNameNotExistsError{App: p.App}
	}

	return order[:lastIdx+1], nil
}
