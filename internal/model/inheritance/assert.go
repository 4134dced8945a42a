package inheritance

import (
	"github.com/stretchr/testify/assert"

	"github.com/ormspec/queryspec/internal/oracle"
)

func BaseKey(b InheritanceBase) oracle.SortKey { return oracle.Key(b.ID) }

func DerivedKey(d InheritanceDerived) oracle.SortKey { return oracle.Key(d.ID) }

func LeafKey(l InheritanceLeaf) oracle.SortKey { return oracle.Key(l.ID) }

func BaseItemKey(i BaseCollectionItem) oracle.SortKey { return oracle.Key(i.ID) }

func DerivedItemKey(i DerivedCollectionItem) oracle.SortKey { return oracle.Key(i.ID) }

func AssertBase(t oracle.TestingT, e, a InheritanceBase) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.Name, a.Name)
	assert.Equal(t, e.Discriminator, a.Discriminator, "base %d", e.ID)
}

func AssertDerived(t oracle.TestingT, e, a InheritanceDerived) {
	t.Helper()
	AssertBase(t, e.InheritanceBase, a.InheritanceBase)
	assert.Equal(t, e.DerivedData, a.DerivedData, "derived %d", e.ID)
}

func AssertLeaf(t oracle.TestingT, e, a InheritanceLeaf) {
	t.Helper()
	AssertDerived(t, e.InheritanceDerived, a.InheritanceDerived)
	assert.Equal(t, e.LeafData, a.LeafData, "leaf %d", e.ID)
}

func AssertBaseItem(t oracle.TestingT, e, a BaseCollectionItem) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.BaseParentID, a.BaseParentID, "item %d", e.ID)
	assert.Equal(t, e.Name, a.Name)
	assert.Equal(t, e.Discriminator, a.Discriminator, "item %d", e.ID)
}

func AssertDerivedItem(t oracle.TestingT, e, a DerivedCollectionItem) {
	t.Helper()
	AssertBaseItem(t, e.BaseCollectionItem, a.BaseCollectionItem)
	assert.Equal(t, e.DerivedProperty, a.DerivedProperty, "item %d", e.ID)
}

func NewRegistry() *oracle.Registry {
	r := oracle.NewRegistry()
	oracle.RegisterEntity(r, BaseKey, AssertBase)
	oracle.RegisterEntity(r, DerivedKey, AssertDerived)
	oracle.RegisterEntity(r, LeafKey, AssertLeaf)
	oracle.RegisterEntity(r, BaseItemKey, AssertBaseItem)
	oracle.RegisterEntity(r, DerivedItemKey, AssertDerivedItem)
	return r
}
