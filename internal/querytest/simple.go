package querytest

import (
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/northwind"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

// customerContact is a projection that carries no entity
type customerContact struct {
	ID          string
	ContactName *string
	City        *string
}

func orderID(o northwind.Order) int { return o.ID }

func customerID(c northwind.Customer) string { return c.ID }

func identity[T any](rows []T) []T { return rows }

// Simple covers entity reads, projections, ordering and paging
func Simple() Suite {
	return Suite{Name: "Simple", Scenarios: []Scenario{
		{Name: "Entities_all_customers", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](persistence.ToList[northwind.Customer]),
				oracle.Over(identity[northwind.Customer]),
				oracle.EntryCount(northwind.CustomerCount))
		}},
		{Name: "Entities_all_order_details", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			details := oracle.Rows[northwind.OrderDetail](a.Expected())
			oracle.AssertQuery(t, a,
				oracle.From[northwind.OrderDetail](persistence.ToList[northwind.OrderDetail]),
				oracle.Over(identity[northwind.OrderDetail]),
				oracle.EntryCount(len(details)))
		}},
		{Name: "Take_with_order_by", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]northwind.Order, error) {
					return persistence.ToList[northwind.Order](q.Order("id").Limit(10))
				}),
				oracle.Over(func(os []northwind.Order) []northwind.Order {
					return seq.Take(seq.OrderBy(os, orderID), 10)
				}),
				oracle.AssertOrder(),
				oracle.EntryCount(10))
		}},
		{Name: "Skip_take_with_order_by_descending", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]northwind.Order, error) {
					return persistence.ToList[northwind.Order](q.Order("order_date DESC").Order("id").Offset(20).Limit(10))
				}),
				oracle.Over(func(os []northwind.Order) []northwind.Order {
					sorted := seq.SortBy(os,
						seq.Desc(func(o northwind.Order) int64 { return o.OrderDate.Unix() }),
						seq.Asc(orderID))
					return seq.Take(seq.Skip(sorted, 20), 10)
				}),
				oracle.AssertOrder(),
				oracle.EntryCount(10))
		}},
		{Name: "OrderBy_ThenBy_descending", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
					return persistence.ToList[northwind.Customer](q.Order("country").Order("city DESC").Order("id"))
				}),
				oracle.Over(func(cs []northwind.Customer) []northwind.Customer {
					return seq.SortBy(cs,
						seq.Asc(func(c northwind.Customer) string { return *c.Country }),
						seq.Desc(func(c northwind.Customer) string { return *c.City }),
						seq.Asc(customerID))
				}),
				oracle.AssertOrder(),
				oracle.EntryCount(northwind.CustomerCount))
		}},
		{Name: "OrderBy_named_fields", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
					q, err := persistence.OrderByString(q, "Country, City desc, ID")
					if err != nil {
						return nil, err
					}
					return persistence.ToList[northwind.Customer](q)
				}),
				oracle.Over(func(cs []northwind.Customer) []northwind.Customer {
					return seq.SortBy(cs,
						seq.Asc(func(c northwind.Customer) string { return *c.Country }),
						seq.Desc(func(c northwind.Customer) string { return *c.City }),
						seq.Asc(customerID))
				}),
				oracle.AssertOrder(),
				oracle.EntryCount(northwind.CustomerCount))
		}},
		{Name: "OrderBy_decimal_take", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Product](func(q *gorm.DB) ([]northwind.Product, error) {
					return persistence.ToList[northwind.Product](q.Order("unit_price DESC").Order("id").Limit(5))
				}),
				oracle.Over(func(ps []northwind.Product) []northwind.Product {
					sorted := seq.SortBy(ps,
						func(x, y northwind.Product) int { return y.UnitPrice.Cmp(x.UnitPrice) },
						seq.Asc(func(p northwind.Product) int { return p.ID }))
					return seq.Take(sorted, 5)
				}),
				oracle.AssertOrder(),
				oracle.EntryCount(5))
		}},
		{Name: "Select_scalar", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQueryScalar(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]string, error) {
					return persistence.Pluck[string](q, "company_name")
				}),
				oracle.Over(func(cs []northwind.Customer) []string {
					return seq.Select(cs, func(c northwind.Customer) string { return c.CompanyName })
				}))
		}},
		{Name: "Select_distinct_scalar", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQueryScalar(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]string, error) {
					return persistence.Pluck[string](q.Distinct().Where("country IS NOT NULL"), "country")
				}),
				oracle.Over(func(cs []northwind.Customer) []string {
					withCountry := seq.Where(cs, func(c northwind.Customer) bool { return c.Country != nil })
					return seq.Distinct(seq.Select(withCountry, func(c northwind.Customer) string { return *c.Country }))
				}))
		}},
		{Name: "Select_anonymous_projection", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]customerContact, error) {
					return persistence.ToList[customerContact](q.Select("id, contact_name, city"))
				}),
				oracle.Over(func(cs []northwind.Customer) []customerContact {
					return seq.Select(cs, func(c northwind.Customer) customerContact {
						return customerContact{ID: c.ID, ContactName: c.ContactName, City: c.City}
					})
				}),
				oracle.ElementSorter(func(c customerContact) oracle.SortKey { return oracle.Key(c.ID) }),
				oracle.EntryCount(0))
		}},
		{Name: "Select_with_client_projection", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// the projection runs after materialization, so the entities stay tracked
			label := func(e northwind.Employee) string { return e.FirstName + " " + e.LastName }
			oracle.AssertQueryScalar(t, a,
				oracle.From[northwind.Employee](func(q *gorm.DB) ([]string, error) {
					es, err := persistence.ToList[northwind.Employee](q)
					return seq.Select(es, label), err
				}),
				oracle.Over(func(es []northwind.Employee) []string { return seq.Select(es, label) }))
		}},
	}}
}
