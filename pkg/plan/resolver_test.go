// SPDX-License-Identifier: Apache-2.0

package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaysql/schemax/pkg/migration"
	"github.com/relaysql/schemax/pkg/plan"
)

func ids(ms []*migration.Migration) []migration.Identity {
	out := make([]migration.Identity, len(ms))
	for i, m := range ms {
		out[i] = m.Id()
	}
	return out
}

func TestResolveLinearChain(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithParents(b)

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{c})

	got, err := plan.Resolve(set, nil, plan.Plan{Type: plan.All})
	require.NoError(t, err)
	assert.Equal(t, []migration.Identity{
		{App: "main", Name: "a"},
		{App: "main", Name: "b"},
		{App: "main", Name: "c"},
	}, ids(got))
}

func TestResolveReplacementCollapseCleanSlate(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithReplaces(b)
	d := migration.New("main", "d").WithReplaces(c)

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{d})

	got, err := plan.Resolve(set, nil, plan.Plan{Type: plan.Apply})
	require.NoError(t, err)
	// d and a have no ordering constraint between them; d was registered
	// first, so the insertion-order scan places it ahead of a.
	assert.Equal(t, []migration.Identity{
		{App: "main", Name: "d"},
		{App: "main", Name: "a"},
	}, ids(got))
}

func TestResolveReplacementCollapseLegacyApplied(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithReplaces(b)
	d := migration.New("main", "d").WithReplaces(c)

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{d})

	applied := []migration.Identity{{App: "main", Name: "b"}}

	got, err := plan.Resolve(set, applied, plan.Plan{Type: plan.Apply})
	require.NoError(t, err)
	assert.Equal(t, []migration.Identity{
		{App: "main", Name: "a"},
	}, ids(got))
}

func TestResolveReplacementCollapseLegacyAndParentApplied(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithReplaces(b)
	d := migration.New("main", "d").WithReplaces(c)

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{d})

	applied := []migration.Identity{
		{App: "main", Name: "a"},
		{App: "main", Name: "b"},
	}

	got, err := plan.Resolve(set, applied, plan.Plan{Type: plan.Apply})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveRunBeforeReordering(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithRunBefore(b)
	d := migration.New("main", "d").WithRunBefore(c)

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{a, b, c, d})

	got, err := plan.Resolve(set, nil, plan.Plan{Type: plan.All})
	require.NoError(t, err)

	index := make(map[string]int, len(got))
	for i, m := range got {
		index[m.Name] = i
	}

	assert.Less(t, index["a"], index["b"])
	assert.Less(t, index["d"], index["c"])
	assert.Less(t, index["c"], index["b"])
}

func TestResolveDoubleReplacementConflict(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithReplaces(b)
	d := migration.New("main", "d").WithReplaces(b)

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{c, d})

	_, err := plan.Resolve(set, nil, plan.Plan{Type: plan.All})
	require.Error(t, err)
	var target migration.AmbiguousReplacementError
	assert.ErrorAs(t, err, &target)
}

func TestResolveDoubleReplacementConflictWithReplacedApplied(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithReplaces(b)
	d := migration.New("main", "d").WithReplaces(b)

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{c, d})

	applied := []migration.Identity{{App: "main", Name: "b"}}

	_, err := plan.Resolve(set, applied, plan.Plan{Type: plan.All})
	require.Error(t, err)
	var target migration.AmbiguousReplacementError
	assert.ErrorAs(t, err, &target)
}

func TestResolveCycleViaParentsAndRunBefore(t *testing.T) {
	a := &migration.Migration{App: "main", Name: "a", IsAtomic: true}
	b := &migration.Migration{App: "main", Name: "b", IsAtomic: true}
	b.Parents = []*migration.Migration{a}
	b.RunBefore = []*migration.Migration{a}

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{a, b})

	_, err := plan.Resolve(set, nil, plan.Plan{Type: plan.All})
	require.Error(t, err)
	var target migration.FailedToCreateMigrationPlanError
	assert.ErrorAs(t, err, &target)
}

func TestResolveTargetTruncation(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithParents(b)
	d := migration.New("main", "d").WithParents(c)

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{d})

	got, err := plan.Resolve(set, nil, plan.Plan{Type: plan.Apply, App: "main", Migration: "b"})
	require.NoError(t, err)
	assert.Equal(t, []migration.Identity{
		{App: "main", Name: "a"},
		{App: "main", Name: "b"},
	}, ids(got))

	_, err = plan.Resolve(set, nil, plan.Plan{Type: plan.Apply, App: "main", Migration: "z"})
	require.Error(t, err)
	var nameErr migration.MigrationNameNotExistsError
	assert.ErrorAs(t, err, &nameErr)

	_, err = plan.Resolve(set, nil, plan.Plan{Type: plan.Apply, App: "other"})
	require.Error(t, err)
	var appErr migration.AppNameNotExistsError
	assert.ErrorAs(t, err, &appErr)
}

func TestResolveRevertReversesOrderAndFiltersToApplied(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithParents(b)

	set := migration.NewSet()
	set.AddAll([]*migration.Migration{c})

	applied := []migration.Identity{
		{App: "main", Name: "a"},
		{App: "main", Name: "b"},
	}

	got, err := plan.Resolve(set, applied, plan.Plan{Type: plan.Revert})
	require.NoError(t, err)
	assert.Equal(t, []migration.Identity{
		{App: "main", Name: "b"},
		{App: "main", Name: "a"},
	}, ids(got))
}

func TestResolveRejectsMigrationWithoutApp(t *testing.T) {
	set := migration.NewSet()
	_, err := plan.Resolve(set, nil, plan.Plan{Type: plan.Apply, Migration: "b"})
	require.Error(t, err)
	var target migration.AppNameRequiredError
	assert.ErrorAs(t, err, &target)
}
