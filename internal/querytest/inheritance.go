package querytest

import (
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/inheritance"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

// Inheritance covers table-per-hierarchy sets and change detection across
// the types of a hierarchy
func Inheritance() Suite {
	return Suite{Name: "Inheritance", Scenarios: []Scenario{
		{Name: "Can_query_all_types_when_base_type", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[inheritance.InheritanceBase](persistence.ToList[inheritance.InheritanceBase]),
				oracle.Over(identity[inheritance.InheritanceBase]),
				oracle.EntryCount(7))
		}},
		{Name: "Can_query_derived_types", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[inheritance.InheritanceDerived](persistence.ToList[inheritance.InheritanceDerived]),
				oracle.Over(identity[inheritance.InheritanceDerived]),
				oracle.EntryCount(4))
		}},
		{Name: "Can_query_leaf_type", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[inheritance.InheritanceLeaf](persistence.ToList[inheritance.InheritanceLeaf]),
				oracle.Over(identity[inheritance.InheritanceLeaf]),
				oracle.EntryCount(2))
		}},
		{Name: "Can_use_of_type", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[inheritance.InheritanceBase](func(q *gorm.DB) ([]inheritance.InheritanceDerived, error) {
					return persistence.ToList[inheritance.InheritanceDerived](q.
						Where("discriminator IN ?", []string{inheritance.DerivedKind, inheritance.LeafKind}))
				}),
				oracle.Over(identity[inheritance.InheritanceDerived]),
				oracle.EntryCount(4))
		}},
		{Name: "Can_filter_on_discriminator_subset", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[inheritance.InheritanceBase](func(q *gorm.DB) ([]inheritance.InheritanceBase, error) {
					return persistence.ToList[inheritance.InheritanceBase](q.Where("discriminator = ?", inheritance.BaseKind))
				}),
				oracle.Over(func(bs []inheritance.InheritanceBase) []inheritance.InheritanceBase {
					return seq.Where(bs, func(b inheritance.InheritanceBase) bool { return b.Discriminator == inheritance.BaseKind })
				}),
				oracle.EntryCount(3))
		}},
		{Name: "Can_include_collection_on_derived", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			ds := oracle.Rows[inheritance.InheritanceDerived](a.Expected())
			items := seq.SelectMany(ds, func(d inheritance.InheritanceDerived) []inheritance.BaseCollectionItem {
				return d.BaseCollection
			})
			oracle.AssertIncludeQuery(t, a,
				oracle.From[inheritance.InheritanceDerived](func(q *gorm.DB) ([]inheritance.InheritanceDerived, error) {
					return persistence.ToList[inheritance.InheritanceDerived](q.Preload("BaseCollection"))
				}),
				oracle.Over(identity[inheritance.InheritanceDerived]),
				oracle.Include("BaseCollection"),
				oracle.EntryCount(len(ds)+len(items)))
		}},
		{Name: "Can_query_derived_items", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[inheritance.DerivedCollectionItem](func(q *gorm.DB) ([]inheritance.DerivedCollectionItem, error) {
					return persistence.ToList[inheritance.DerivedCollectionItem](q.Where("derived_property IS NOT NULL"))
				}),
				oracle.Over(func(is []inheritance.DerivedCollectionItem) []inheritance.DerivedCollectionItem {
					return seq.Where(is, func(i inheritance.DerivedCollectionItem) bool { return i.DerivedProperty != nil })
				}))
		}},
		{Name: "Count_derived", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertCount[inheritance.InheritanceDerived](t, a, nil, nil)
		}},
		{Name: "Any_leaf_with_data", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertAny[inheritance.InheritanceLeaf](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("leaf_data = ?", "leaf data 7") },
				func(ls []inheritance.InheritanceLeaf) []inheritance.InheritanceLeaf {
					return seq.Where(ls, func(l inheritance.InheritanceLeaf) bool { return l.LeafData == "leaf data 7" })
				})
		}},
		{Name: "Changes_in_derived_related_entities_are_detected", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			s := a.NewSession()
			derived, err := persistence.Single[inheritance.InheritanceDerived](persistence.Set[inheritance.InheritanceDerived](s).
				Where("name = ?", "Derived1(4)").Preload("BaseCollection"))
			require.NoError(t, err)
			require.Len(t, derived.BaseCollection, 3)
			require.Zero(t, s.Tracker().DetectChanges())

			// the same rows read again as their derived type
			items, err := persistence.ToList[inheritance.DerivedCollectionItem](persistence.Set[inheritance.DerivedCollectionItem](s).
				Where("base_parent_id = ?", derived.ID).Order("id"))
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, 4, s.Tracker().Count())

			items[0].DerivedProperty = lo.ToPtr(42)
			assert.Equal(t, 1, s.Tracker().DetectChanges())

			entry, ok := s.Tracker().Entry(&items[0])
			require.True(t, ok)
			assert.Equal(t, persistence.Modified, entry.State())
			assert.Equal(t, []string{"derived_property"}, entry.ModifiedColumns(s.Context()))
		}},
	}}
}
