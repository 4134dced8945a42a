package inheritance

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/testutil"
)

func TestExpected_IncludesSubtypes(t *testing.T) {
	e := Generate().Expected()

	assert.Len(t, e.Bases, 7)
	assert.Len(t, e.Derived, 4)
	assert.Len(t, e.Leaves, 2)
	assert.Len(t, e.BaseItems, 11)
	assert.Len(t, e.DerivedItems, 5)

	derived := lo.KeyBy(e.Derived, func(d InheritanceDerived) int { return d.ID })
	ids := lo.Map(derived[4].BaseCollection, func(i BaseCollectionItem, _ int) int { return i.ID })
	assert.Equal(t, []int{4, 5, 6}, ids)

	kinds := lo.CountValuesBy(e.Bases, func(b InheritanceBase) string { return b.Discriminator })
	assert.Equal(t, map[string]int{BaseKind: 3, DerivedKind: 2, LeafKind: 2}, kinds)
}

func TestSet_FiltersByDiscriminator(t *testing.T) {
	db := testutil.SeededSQLite(t, NewFixture())
	s := db.NewSession(context.Background())

	bases, err := persistence.ToList[InheritanceBase](persistence.Set[InheritanceBase](s))
	require.NoError(t, err)
	assert.Len(t, bases, 7)

	derived, err := persistence.ToList[InheritanceDerived](persistence.Set[InheritanceDerived](s))
	require.NoError(t, err)
	assert.Len(t, derived, 4)

	leaves, err := persistence.ToList[InheritanceLeaf](persistence.Set[InheritanceLeaf](s))
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	assert.NotEmpty(t, leaves[0].DerivedData)
	assert.NotEmpty(t, leaves[0].LeafData)

	// rows of one table share their identity across the hierarchy
	assert.Equal(t, 7, s.Tracker().Count())
}

func TestTracker_DetectsChangesInDerivedItems(t *testing.T) {
	db := testutil.SeededSQLite(t, NewFixture())
	s := db.NewSession(context.Background())

	parent, err := persistence.Single[InheritanceDerived](
		persistence.Set[InheritanceDerived](s).Preload("BaseCollection").Where("name = ?", "Derived1(4)"))
	require.NoError(t, err)
	require.Len(t, parent.BaseCollection, 3)

	items, err := persistence.ToList[DerivedCollectionItem](
		persistence.Set[DerivedCollectionItem](s).Where("base_parent_id = ?", parent.ID).Order("id"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 0, s.Tracker().DetectChanges())

	items[0].DerivedProperty = lo.ToPtr(42)

	assert.Equal(t, 1, s.Tracker().DetectChanges())
	entry, ok := s.Tracker().Entry(&items[0])
	require.True(t, ok)
	assert.Equal(t, persistence.Modified, entry.State())
	assert.Equal(t, []string{"derived_property"}, entry.ModifiedColumns(context.Background()))
}

func TestFixture_Registry(t *testing.T) {
	f := NewFixture()
	assert.Equal(t, Name, f.Name())
	assert.True(t, oracle.Registered[InheritanceLeaf](f.Registry()))
	assert.Len(t, oracle.Rows[InheritanceBase](f.ExpectedData()), 7)
}
