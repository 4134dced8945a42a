package querytest

import (
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/owned"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

// personAddress projects the owned address without its owner
type personAddress struct {
	ID            int
	PersonAddress owned.Address `gorm:"embedded;embeddedPrefix:person_address_"`
}

func ordersOf(p owned.OwnedPerson) []owned.OwnedOrder { return p.Orders }

// Owned covers value objects stored in their owner's columns across a
// type hierarchy
func Owned() Suite {
	return Suite{Name: "Owned", Scenarios: []Scenario{
		{Name: "Query_for_base_type_loads_all_owned_navs", Fixture: owned.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[owned.OwnedPerson](persistence.ToList[owned.OwnedPerson]),
				oracle.Over(identity[owned.OwnedPerson]),
				oracle.EntryCount(4))
		}},
		{Name: "Query_for_branch_type_loads_all_owned_navs", Fixture: owned.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[owned.Branch](persistence.ToList[owned.Branch]),
				oracle.Over(identity[owned.Branch]),
				oracle.EntryCount(2))
		}},
		{Name: "Query_for_leaf_type_loads_all_owned_navs", Fixture: owned.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[owned.LeafA](persistence.ToList[owned.LeafA]),
				oracle.Over(identity[owned.LeafA]),
				oracle.EntryCount(1))
		}},
		{Name: "Include_collection_of_owner", Fixture: owned.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			ps := oracle.Rows[owned.OwnedPerson](a.Expected())
			oracle.AssertIncludeQuery(t, a,
				oracle.From[owned.OwnedPerson](func(q *gorm.DB) ([]owned.OwnedPerson, error) {
					return persistence.ToList[owned.OwnedPerson](q.Preload("Orders"))
				}),
				oracle.Over(identity[owned.OwnedPerson]),
				oracle.Include("Orders"),
				oracle.EntryCount(len(ps)+len(seq.SelectMany(ps, ordersOf))))
		}},
		{Name: "Where_on_owned_property", Fixture: owned.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[owned.Branch](func(q *gorm.DB) ([]owned.Branch, error) {
					return persistence.ToList[owned.Branch](q.Where("branch_address_country_name = ?", "Canada"))
				}),
				oracle.Over(func(bs []owned.Branch) []owned.Branch {
					return seq.Where(bs, func(b owned.Branch) bool { return b.BranchAddress.Country.Name == "Canada" })
				}))
		}},
		{Name: "Where_on_nested_owned_nullable", Fixture: owned.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[owned.OwnedPerson](func(q *gorm.DB) ([]owned.OwnedPerson, error) {
					return persistence.ToList[owned.OwnedPerson](q.Where("person_address_zip_code > ?", 20000))
				}),
				oracle.Over(func(ps []owned.OwnedPerson) []owned.OwnedPerson {
					return seq.Where(ps, func(p owned.OwnedPerson) bool {
						return p.PersonAddress.ZipCode != nil && *p.PersonAddress.ZipCode > 20000
					})
				}))
		}},
		{Name: "Select_owned_scalar", Fixture: owned.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQueryScalar(t, a,
				oracle.From[owned.OwnedPerson](func(q *gorm.DB) ([]string, error) {
					return persistence.Pluck[string](q, "person_address_country_name")
				}),
				oracle.Over(func(ps []owned.OwnedPerson) []string {
					return seq.Select(ps, func(p owned.OwnedPerson) string { return p.PersonAddress.Country.Name })
				}))
		}},
		{Name: "Select_owned_value_is_not_tracked", Fixture: owned.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[owned.OwnedPerson](persistence.ToList[personAddress]),
				oracle.Over(func(ps []owned.OwnedPerson) []personAddress {
					return seq.Select(ps, func(p owned.OwnedPerson) personAddress {
						return personAddress{ID: p.ID, PersonAddress: p.PersonAddress}
					})
				}),
				oracle.ElementSorter(func(r personAddress) oracle.SortKey { return oracle.Key(r.ID) }),
				oracle.ElementAsserter(func(t oracle.TestingT, e, a personAddress) {
					t.Helper()
					owned.AssertAddress(t, e.PersonAddress, a.PersonAddress)
				}))
		}},
		{Name: "Navigation_rewrite_on_owned_collection", Fixture: owned.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[owned.OwnedPerson](func(q *gorm.DB) ([]owned.OwnedPerson, error) {
					return persistence.ToList[owned.OwnedPerson](q.Where(
						"(SELECT COUNT(*) FROM owned_orders WHERE owned_orders.client_id = owned_people.id) > ?", 1))
				}),
				oracle.Over(func(ps []owned.OwnedPerson) []owned.OwnedPerson {
					return seq.Where(ps, func(p owned.OwnedPerson) bool { return len(p.Orders) > 1 })
				}))
		}},
	}}
}
