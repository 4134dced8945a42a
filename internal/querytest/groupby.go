package querytest

import (
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/northwind"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

// orderWithCity carries a whole order next to a column of its customer
type orderWithCity struct {
	Order        northwind.Order `gorm:"embedded"`
	CustomerCity *string
}

type customerTotals struct {
	CustomerID   string
	OrderCount   int64
	TotalFreight float64
}

type shipperStock struct {
	ShipVia   int
	LineCount int64
	UnitCount int64
}

func cityOf(c *string) string {
	if c == nil {
		return ""
	}
	return *c
}

// GroupBy covers grouping on the client and in SQL
func GroupBy() Suite {
	return Suite{Name: "GroupBy", Scenarios: []Scenario{
		{Name: "GroupBy_on_nav_prop", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]oracle.Grouping[string, northwind.Order], error) {
					rows, err := persistence.ToList[orderWithCity](q.Select("orders.*, customers.city AS customer_city").
						Joins("LEFT JOIN customers ON customers.id = orders.customer_id"))
					if err != nil {
						return nil, err
					}
					groups := seq.GroupBy(rows, func(r orderWithCity) string { return cityOf(r.CustomerCity) })
					return seq.Select(groups, func(g seq.Grouping[string, orderWithCity]) oracle.Grouping[string, northwind.Order] {
						return oracle.Grouping[string, northwind.Order]{
							Key:      g.Key,
							Elements: seq.Select(g.Elements, func(r orderWithCity) northwind.Order { return r.Order }),
						}
					}), nil
				}),
				oracle.Over(func(os []northwind.Order) []oracle.Grouping[string, northwind.Order] {
					return seq.GroupBy(os, func(o northwind.Order) string {
						return cityOf(oracle.Maybe(o.Customer, func(c *northwind.Customer) *string { return c.City }))
					})
				}),
				oracle.ElementSorter(oracle.GroupingSorter[string, northwind.Order]()),
				oracle.ElementAsserter(oracle.GroupingAsserter[string](northwind.OrderKey, northwind.AssertOrder)),
				oracle.EntryCount(northwind.OrderCount))
		}},
		{Name: "GroupBy_scalar_key", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Product](func(q *gorm.DB) ([]oracle.Grouping[bool, northwind.Product], error) {
					ps, err := persistence.ToList[northwind.Product](q)
					return seq.GroupBy(ps, func(p northwind.Product) bool { return p.Discontinued }), err
				}),
				oracle.Over(func(ps []northwind.Product) []oracle.Grouping[bool, northwind.Product] {
					return seq.GroupBy(ps, func(p northwind.Product) bool { return p.Discontinued })
				}),
				oracle.ElementSorter(oracle.GroupingSorter[bool, northwind.Product]()),
				oracle.ElementAsserter(oracle.GroupingAsserter[bool](northwind.ProductKey, northwind.AssertProduct)),
				oracle.EntryCount(northwind.ProductCount))
		}},
		{Name: "GroupBy_aggregates", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]customerTotals, error) {
					return persistence.ToList[customerTotals](q.Select("customer_id, COUNT(*) AS order_count, SUM(freight) AS total_freight").
						Group("customer_id"))
				}),
				oracle.Over(func(os []northwind.Order) []customerTotals {
					groups := seq.GroupBy(os, func(o northwind.Order) string { return *o.CustomerID })
					return seq.Select(groups, func(g seq.Grouping[string, northwind.Order]) customerTotals {
						return customerTotals{
							CustomerID:   g.Key,
							OrderCount:   int64(len(g.Elements)),
							TotalFreight: seq.SumDecimal(g.Elements, freight).InexactFloat64(),
						}
					})
				}),
				oracle.ElementSorter(func(r customerTotals) oracle.SortKey { return oracle.Key(r.CustomerID) }))
		}},
		{Name: "GroupBy_having", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQueryScalar(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]string, error) {
					return persistence.Pluck[string](q.Group("customer_id").Having("COUNT(*) > ?", 12), "customer_id")
				}),
				oracle.Over(func(os []northwind.Order) []string {
					groups := seq.GroupBy(os, func(o northwind.Order) string { return *o.CustomerID })
					big := seq.Where(groups, func(g seq.Grouping[string, northwind.Order]) bool { return len(g.Elements) > 12 })
					return seq.Select(big, func(g seq.Grouping[string, northwind.Order]) string { return g.Key })
				}))
		}},
		{Name: "GroupBy_join_aggregates", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.OrderDetail](func(q *gorm.DB) ([]shipperStock, error) {
					return persistence.ToList[shipperStock](q.
						Select("orders.ship_via, COUNT(*) AS line_count, SUM(order_details.quantity) AS unit_count").
						Joins("JOIN orders ON orders.id = order_details.order_id").
						Group("orders.ship_via"))
				}),
				oracle.Over(func(ods []northwind.OrderDetail) []shipperStock {
					groups := seq.GroupBy(ods, func(od northwind.OrderDetail) int { return *od.Order.ShipVia })
					return seq.Select(groups, func(g seq.Grouping[int, northwind.OrderDetail]) shipperStock {
						return shipperStock{
							ShipVia:   g.Key,
							LineCount: int64(len(g.Elements)),
							UnitCount: seq.Sum(g.Elements, func(od northwind.OrderDetail) int64 { return int64(od.Quantity) }),
						}
					})
				}),
				oracle.ElementSorter(func(r shipperStock) oracle.SortKey { return oracle.Key(r.ShipVia) }))
		}},
		{Name: "GroupBy_first_seen_key_order", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// keys keep the order of the sorted source
			oracle.AssertQueryScalar(t, a,
				oracle.From[northwind.Order](func(q *gorm.DB) ([]int, error) {
					os, err := persistence.ToList[northwind.Order](q.Order("id"))
					groups := seq.GroupBy(os, func(o northwind.Order) int { return *o.EmployeeID })
					return seq.Select(groups, func(g seq.Grouping[int, northwind.Order]) int { return g.Key }), err
				}),
				oracle.Over(func(os []northwind.Order) []int {
					groups := seq.GroupBy(seq.OrderBy(os, orderID), func(o northwind.Order) int { return *o.EmployeeID })
					return seq.Select(groups, func(g seq.Grouping[int, northwind.Order]) int { return g.Key })
				}),
				oracle.AssertOrder())
		}},
	}}
}
