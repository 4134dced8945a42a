package querytest

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/northwind"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

func startsWithA(c northwind.Customer) bool { return strings.HasPrefix(c.ID, "A") }

func customersStartingWithA(q *gorm.DB) *gorm.DB { return q.Where("id LIKE ?", "A%") }

// Include covers eager loading of references and collections
func Include() Suite {
	return Suite{Name: "Include", Scenarios: []Scenario{
		{Name: "Include_collection", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			cs := seq.Where(oracle.Rows[northwind.Customer](a.Expected()), startsWithA)
			want := len(cs) + len(seq.SelectMany(cs, func(c northwind.Customer) []northwind.Order { return c.Orders }))
			oracle.AssertIncludeQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
					return persistence.ToList[northwind.Customer](customersStartingWithA(q).Preload("Orders"))
				}),
				oracle.Over(func(cs []northwind.Customer) []northwind.Customer { return seq.Where(cs, startsWithA) }),
				oracle.Include("Orders"),
				oracle.EntryCount(want))
		}},
		{Name: "Include_reference", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			os := oracle.Rows[northwind.Order](a.Expected())
			buyers := seq.Distinct(seq.Select(seq.Where(os, func(o northwind.Order) bool { return o.CustomerID != nil }),
				func(o northwind.Order) string { return *o.CustomerID }))
			oracle.AssertIncludeQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]northwind.Order, error) {
					return persistence.ToList[northwind.Order](q.Preload("Customer"))
				}),
				oracle.Over(identity[northwind.Order]),
				oracle.Include("Customer"),
				oracle.EntryCount(len(os)+len(buyers)))
		}},
		{Name: "Include_then_include", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertIncludeQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
					return persistence.ToList[northwind.Customer](customersStartingWithA(q).Preload("Orders.OrderDetails"))
				}),
				oracle.Over(func(cs []northwind.Customer) []northwind.Customer { return seq.Where(cs, startsWithA) }),
				oracle.Include("Orders"),
				oracle.Include("Orders.OrderDetails"))
		}},
		{Name: "Include_reference_and_collection", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			late := func(o northwind.Order) bool { return o.ShippedDate == nil }
			oracle.AssertIncludeQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]northwind.Order, error) {
					return persistence.ToList[northwind.Order](q.Where("shipped_date IS NULL").
						Preload("Customer").Preload("OrderDetails.Product"))
				}),
				oracle.Over(func(os []northwind.Order) []northwind.Order { return seq.Where(os, late) }),
				oracle.Include("Customer"),
				oracle.Include("OrderDetails.Product"))
		}},
		{Name: "Include_self_reference", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// managers are rows of the same set
			oracle.AssertIncludeQuery(t, a,
				oracle.From[northwind.Employee](func(q *gorm.DB) ([]northwind.Employee, error) {
					return persistence.ToList[northwind.Employee](q.Preload("Manager"))
				}),
				oracle.Over(identity[northwind.Employee]),
				oracle.Include("Manager"),
				oracle.EntryCount(northwind.EmployeeCount))
		}},
		{Name: "Include_filtered_collection", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			limit := decimal.NewFromInt(500)
			heavy := func(o northwind.Order) bool { return o.Freight.GreaterThan(limit) }
			trim := func(c northwind.Customer) northwind.Customer {
				c.Orders = seq.Where(c.Orders, heavy)
				return c
			}
			cs := seq.Select(seq.Where(oracle.Rows[northwind.Customer](a.Expected()), startsWithA), trim)
			want := len(cs) + len(seq.SelectMany(cs, func(c northwind.Customer) []northwind.Order { return c.Orders }))
			oracle.AssertIncludeQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
					return persistence.ToList[northwind.Customer](customersStartingWithA(q).Preload("Orders", "freight > ?", limit))
				}),
				oracle.Over(func(cs []northwind.Customer) []northwind.Customer {
					return seq.Select(seq.Where(cs, startsWithA), trim)
				}),
				oracle.Include("Orders"),
				oracle.EntryCount(want))
		}},
		{Name: "Include_with_first", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertSingleResult(t, a,
				oracle.FromResult[northwind.Customer](func(q *gorm.DB) (int, error) {
					c, err := persistence.Deref[northwind.Customer](persistence.First[northwind.Customer](q.Order("id").Preload("Orders")))
					return len(c.Orders), err
				}),
				oracle.OverResult(func(cs []northwind.Customer) (int, error) {
					c, err := seq.First(customersByID(cs))
					return len(c.Orders), err
				}))
		}},
	}}
}
