package querytest

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/northwind"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

const joinCustomers = "JOIN customers ON customers.id = orders.customer_id"

type orderCity struct {
	ID   int
	City *string
}

type employeeManager struct {
	ID          int
	ManagerName *string
}

type orderEmployee struct {
	OrderID  int
	LastName string
}

type customerOrder struct {
	CustomerID string
	OrderID    *int
}

func activeCustomers(cs []northwind.Customer) []northwind.Customer {
	return seq.Where(cs, func(c northwind.Customer) bool { return len(c.Orders) > 0 })
}

// Navigations covers queries that follow relationships through joins
func Navigations() Suite {
	return Suite{Name: "Navigations", Scenarios: []Scenario{
		{Name: "Select_Navigation", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// one customer per order, resolved to one tracked entity per customer
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
					return persistence.ToList[northwind.Customer](q.Joins("JOIN orders ON orders.customer_id = customers.id"))
				}),
				oracle.Over(func(os []northwind.Order) []northwind.Customer {
					withCustomer := seq.Where(os, func(o northwind.Order) bool { return o.Customer != nil })
					return seq.Select(withCustomer, func(o northwind.Order) northwind.Customer { return *o.Customer })
				}),
				oracle.EntryCount(northwind.CustomerCount-len(northwind.IdleCustomers)))
		}},
		{Name: "Select_reference_navigation_scalar", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]orderCity, error) {
					return persistence.ToList[orderCity](q.Select("orders.id, customers.city").
						Joins("LEFT JOIN customers ON customers.id = orders.customer_id"))
				}),
				oracle.Over(func(os []northwind.Order) []orderCity {
					return seq.Select(os, func(o northwind.Order) orderCity {
						return orderCity{ID: o.ID, City: oracle.Maybe(o.Customer, func(c *northwind.Customer) *string { return c.City })}
					})
				}),
				oracle.ElementSorter(func(r orderCity) oracle.SortKey { return oracle.Key(r.ID) }))
		}},
		{Name: "Where_navigation", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			london := func(o northwind.Order) bool { return o.Customer != nil && eq(o.Customer.City, "London") }
			want := seq.CountWhere(oracle.Rows[northwind.Order](a.Expected()), london)
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]northwind.Order, error) {
					return persistence.ToList[northwind.Order](q.Joins(joinCustomers).Where("customers.city = ?", "London"))
				}),
				oracle.Over(func(os []northwind.Order) []northwind.Order { return seq.Where(os, london) }),
				oracle.EntryCount(want))
		}},
		{Name: "Where_collection_navigation_count", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
					return persistence.ToList[northwind.Customer](q.Where(
						"(SELECT COUNT(*) FROM orders WHERE orders.customer_id = customers.id) > ?", 10))
				}),
				oracle.Over(func(cs []northwind.Customer) []northwind.Customer {
					return seq.Where(cs, func(c northwind.Customer) bool { return len(c.Orders) > 10 })
				}))
		}},
		{Name: "Where_collection_navigation_any", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]northwind.Customer, error) {
					return persistence.ToList[northwind.Customer](q.Where("EXISTS (SELECT 1 FROM orders WHERE orders.customer_id = customers.id)"))
				}),
				oracle.Over(activeCustomers),
				oracle.EntryCount(northwind.CustomerCount-len(northwind.IdleCustomers)))
		}},
		{Name: "Select_self_reference_navigation", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Employee](func(q *gorm.DB) ([]employeeManager, error) {
					return persistence.ToList[employeeManager](q.Select("employees.id, managers.last_name AS manager_name").
						Joins("LEFT JOIN employees managers ON managers.id = employees.reports_to"))
				}),
				oracle.Over(func(es []northwind.Employee) []employeeManager {
					return seq.Select(es, func(e northwind.Employee) employeeManager {
						name := oracle.MaybeScalar(e.Manager, func(m *northwind.Employee) string { return m.LastName })
						return employeeManager{ID: e.ID, ManagerName: name}
					})
				}))
		}},
		{Name: "SelectMany_collection_navigation", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			uk := func(c northwind.Customer) bool { return eq(c.Country, "UK") }
			want := len(seq.SelectMany(seq.Where(oracle.Rows[northwind.Customer](a.Expected()), uk),
				func(c northwind.Customer) []northwind.Order { return c.Orders }))
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]northwind.Order, error) {
					return persistence.ToList[northwind.Order](q.Joins(joinCustomers).Where("customers.country = ?", "UK"))
				}),
				oracle.Over(func(cs []northwind.Customer) []northwind.Order {
					return seq.SelectMany(seq.Where(cs, uk), func(c northwind.Customer) []northwind.Order { return c.Orders })
				}),
				oracle.EntryCount(want))
		}},
		{Name: "Join_on_foreign_key", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]orderEmployee, error) {
					return persistence.ToList[orderEmployee](q.Select("orders.id AS order_id, employees.last_name").
						Joins("JOIN employees ON employees.id = orders.employee_id"))
				}),
				oracle.Over2(func(os []northwind.Order, es []northwind.Employee) []orderEmployee {
					return seq.Join(os, es,
						func(o northwind.Order) int { return *o.EmployeeID },
						func(e northwind.Employee) int { return e.ID },
						func(o northwind.Order, e northwind.Employee) orderEmployee {
							return orderEmployee{OrderID: o.ID, LastName: e.LastName}
						})
				}))
		}},
		{Name: "LeftJoin_with_filtered_inner", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			limit := decimal.NewFromInt(800)
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]customerOrder, error) {
					return persistence.ToList[customerOrder](q.Select("customers.id AS customer_id, orders.id AS order_id").
						Joins("LEFT JOIN orders ON orders.customer_id = customers.id AND orders.freight > ?", limit))
				}),
				oracle.Over2(func(cs []northwind.Customer, os []northwind.Order) []customerOrder {
					big := seq.Where(os, func(o northwind.Order) bool { return o.Freight.GreaterThan(limit) })
					return seq.LeftJoin(cs, big, customerID,
						func(o northwind.Order) string { return *o.CustomerID },
						func(c northwind.Customer, o *northwind.Order) customerOrder {
							return customerOrder{
								CustomerID: c.ID,
								OrderID:    oracle.MaybeScalar(o, func(o *northwind.Order) int { return o.ID }),
							}
						})
				}))
		}},
		{Name: "GroupJoin_count", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			type customerCount struct {
				ID         string
				OrderCount int64
			}
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Customer](func(q *gorm.DB) ([]customerCount, error) {
					return persistence.ToList[customerCount](q.Select("customers.id, COUNT(orders.id) AS order_count").
						Joins("LEFT JOIN orders ON orders.customer_id = customers.id").
						Group("customers.id"))
				}),
				oracle.Over2(func(cs []northwind.Customer, os []northwind.Order) []customerCount {
					return seq.GroupJoin(cs, os, customerID,
						func(o northwind.Order) string { return *o.CustomerID },
						func(c northwind.Customer, inner []northwind.Order) customerCount {
							return customerCount{ID: c.ID, OrderCount: int64(len(inner))}
						})
				}))
		}},
	}}
}
