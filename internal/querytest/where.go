package querytest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/northwind"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

func eq[T comparable](p *T, v T) bool { return p != nil && *p == v }

// whereCustomers is the common shape of a filter over customers
func whereCustomers(t oracle.TestingT, a *oracle.Asserter, shape func(q *gorm.DB) *gorm.DB, pred func(northwind.Customer) bool) {
	t.Helper()
	want := seq.CountWhere(oracle.Rows[northwind.Customer](a.Expected()), pred)
	oracle.AssertQuery(t, a,
		oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
			return persistence.ToList[northwind.Customer](shape(q))
		}),
		oracle.Over(func(cs []northwind.Customer) []northwind.Customer { return seq.Where(cs, pred) }),
		oracle.EntryCount(want))
}

func whereOrders(t oracle.TestingT, a *oracle.Asserter, shape func(q *gorm.DB) *gorm.DB, pred func(northwind.Order) bool) {
	t.Helper()
	want := seq.CountWhere(oracle.Rows[northwind.Order](a.Expected()), pred)
	oracle.AssertQuery(t, a,
		oracle.From[northwind.Order](func(q *gorm.DB) ([]northwind.Order, error) {
			return persistence.ToList[northwind.Order](shape(q))
		}),
		oracle.Over(func(os []northwind.Order) []northwind.Order { return seq.Where(os, pred) }),
		oracle.EntryCount(want))
}

// Where covers filters translated to SQL predicates
func Where() Suite {
	return Suite{Name: "Where", Scenarios: []Scenario{
		{Name: "Where_equals_string", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			whereCustomers(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("city = ?", "London") },
				func(c northwind.Customer) bool { return eq(c.City, "London") })
		}},
		{Name: "Where_equals_random_customer", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			cs := oracle.Rows[northwind.Customer](a.Expected())
			id := cs[a.Rand().IntN(len(cs))].ID
			whereCustomers(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("id = ?", id) },
				func(c northwind.Customer) bool { return c.ID == id })
		}},
		{Name: "Where_is_null", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			whereCustomers(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("region IS NULL") },
				func(c northwind.Customer) bool { return c.Region == nil })
		}},
		{Name: "Where_is_not_null_and", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			whereCustomers(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("region IS NOT NULL").Where("country = ?", "USA") },
				func(c northwind.Customer) bool { return c.Region != nil && eq(c.Country, "USA") })
		}},
		{Name: "Where_in_list", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			countries := []string{"Germany", "France", "UK"}
			whereCustomers(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("country IN ?", countries) },
				func(c northwind.Customer) bool { return c.Country != nil && seq.Contains(countries, *c.Country) })
		}},
		{Name: "Where_not_in_list", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			whereCustomers(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Not(map[string]any{"id": northwind.IdleCustomers}) },
				func(c northwind.Customer) bool { return !seq.Contains(northwind.IdleCustomers, c.ID) })
		}},
		{Name: "Where_starts_with", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// ids are upper case, so LIKE agrees across case folding rules
			whereCustomers(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("id LIKE ?", "B%") },
				func(c northwind.Customer) bool { return strings.HasPrefix(c.ID, "B") })
		}},
		{Name: "Where_decimal_comparison", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			limit := decimal.NewFromInt(500)
			whereOrders(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("freight > ?", limit) },
				func(o northwind.Order) bool { return o.Freight.GreaterThan(limit) })
		}},
		{Name: "Where_date_range", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			from := time.Date(1997, time.January, 1, 0, 0, 0, 0, time.UTC)
			to := from.AddDate(1, 0, 0)
			whereOrders(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("order_date >= ? AND order_date < ?", from, to) },
				func(o northwind.Order) bool { return !o.OrderDate.Before(from) && o.OrderDate.Before(to) })
		}},
		{Name: "Where_nullable_date_is_null", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			whereOrders(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("shipped_date IS NULL") },
				func(o northwind.Order) bool { return o.ShippedDate == nil })
		}},
		{Name: "Where_compare_columns", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// NULL ship dates compare as unknown and drop out
			whereOrders(t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("shipped_date > required_date") },
				func(o northwind.Order) bool { return o.ShippedDate != nil && o.ShippedDate.After(*o.RequiredDate) })
		}},
		{Name: "Where_bool", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Product](func(q *gorm.DB) ([]northwind.Product, error) {
					return persistence.ToList[northwind.Product](q.Where("discontinued = ?", true))
				}),
				oracle.Over(func(ps []northwind.Product) []northwind.Product {
					return seq.Where(ps, func(p northwind.Product) bool { return p.Discontinued })
				}),
				oracle.EntryCount(northwind.ProductCount/9))
		}},
		{Name: "Where_or", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Product](func(q *gorm.DB) ([]northwind.Product, error) {
					return persistence.ToList[northwind.Product](q.Where("units_in_stock = ?", 0).Or("discontinued = ?", true))
				}),
				oracle.Over(func(ps []northwind.Product) []northwind.Product {
					return seq.Where(ps, func(p northwind.Product) bool { return p.UnitsInStock == 0 || p.Discontinued })
				}))
		}},
		{Name: "Where_nullable_int", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Employee](func(q *gorm.DB) ([]northwind.Employee, error) {
					return persistence.ToList[northwind.Employee](q.Where("reports_to = ?", 5))
				}),
				oracle.Over(func(es []northwind.Employee) []northwind.Employee {
					return seq.Where(es, func(e northwind.Employee) bool { return eq(e.ReportsTo, 5) })
				}),
				oracle.EntryCount(3))
		}},
		{Name: "Where_subquery_in", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			limit := decimal.NewFromInt(900)
			oracle.AssertQuery(t, a,
				oracle.From2[northwind.Customer, northwind.Order](func(customers, orders *gorm.DB) ([]northwind.Customer, error) {
					sub := orders.Select("customer_id").Where("freight > ?", limit)
					return persistence.ToList[northwind.Customer](customers.Where("id IN (?)", sub))
				}),
				oracle.Over2(func(cs []northwind.Customer, os []northwind.Order) []northwind.Customer {
					big := seq.Where(os, func(o northwind.Order) bool { return o.Freight.GreaterThan(limit) })
					ids := seq.Select(big, func(o northwind.Order) string { return *o.CustomerID })
					return seq.Where(cs, func(c northwind.Customer) bool { return seq.Contains(ids, c.ID) })
				}))
		}},
		{Name: "Where_not_exists", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
					return persistence.ToList[northwind.Customer](q.Where("NOT EXISTS (SELECT 1 FROM orders WHERE orders.customer_id = customers.id)"))
				}),
				oracle.Over(func(cs []northwind.Customer) []northwind.Customer {
					return seq.Where(cs, func(c northwind.Customer) bool { return len(c.Orders) == 0 })
				}),
				oracle.EntryCount(len(northwind.IdleCustomers)))
		}},
	}}
}
