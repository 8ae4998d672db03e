// SPDX-License-Identifier: Apache-2.0

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaysql/schemax/pkg/migration"
)

func TestSetAddDeduplicatesByIdentity(t *testing.T) {
	s := migration.NewSet()

	a1 := migration.New("main", "a")
	a2 := migration.New("main", "a")

	s.Add(a1)
	s.Add(a2)

	assert.Equal(t, 1, s.Len())
	got, ok := s.Get(migration.Identity{App: "main", Name: "a"})
	assert.True(t, ok)
	assert.Same(t, a1, got, "first-registered migration wins identity")
}

func TestSetAddAllIsTransitivelyClosedOverParents(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b").WithParents(a)
	c := migration.New("main", "c").WithParents(b)

	s := migration.NewSet()
	s.AddAll([]*migration.Migration{c})

	assert.Equal(t, 3, s.Len())
	for _, id := range []migration.Identity{{App: "main", Name: "a"}, {App: "main", Name: "b"}, {App: "main", Name: "c"}} {
		_, ok := s.Get(id)
		assert.True(t, ok, "expected %v to be present after closure", id)
	}
}

func TestSetAddAllIsTransitivelyClosedOverReplaces(t *testing.T) {
	b := migration.New("main", "b")
	c := migration.New("main", "c").WithReplaces(b)

	s := migration.NewSet()
	s.AddAll([]*migration.Migration{c})

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(migration.Identity{App: "main", Name: "b"})
	assert.True(t, ok)
}

func TestSetAddDoesNotWalkRunBeforeAtRegistration(t *testing.T) {
	// run_before is metadata consumed by the resolver, not a registration
	// dependency: registering a migration with a run_before reference to an
	// otherwise-unregistered migration must not pull that migration in.
	notRegistered := migration.New("main", "z")
	a := migration.New("main", "a").WithRunBefore(notRegistered)

	s := migration.NewSet()
	s.Add(a)

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(migration.Identity{App: "main", Name: "z"})
	assert.False(t, ok)
}

func TestSetAddBreaksReferenceCyclesWithoutInfiniteRecursion(t *testing.T) {
	a := &migration.Migration{App: "main", Name: "a", IsAtomic: true}
	b := &migration.Migration{App: "main", Name: "b", IsAtomic: true}
	a.Parents = []*migration.Migration{b}
	b.Parents = []*migration.Migration{a}

	s := migration.NewSet()
	assert.NotPanics(t, func() { s.Add(a) })
	assert.Equal(t, 2, s.Len())
}

func TestSetOrderReflectsInsertionOrder(t *testing.T) {
	a := migration.New("main", "a")
	b := migration.New("main", "b")
	c := migration.New("main", "c").WithParents(a)

	s := migration.NewSet()
	s.AddAll([]*migration.Migration{b, c})

	order := s.Order()
	assert.Equal(t, []migration.Identity{
		{App: "main", Name: "b"},
		{App: "main", Name: "c"},
		{App: "main", Name: "a"},
	}, order)
}
