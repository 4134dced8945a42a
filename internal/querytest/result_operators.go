package querytest

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/northwind"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

func byID(q *gorm.DB) *gorm.DB { return q.Order("id") }

func customersByID(cs []northwind.Customer) []northwind.Customer {
	return seq.OrderBy(cs, customerID)
}

func unitsInStock(p northwind.Product) int16 { return p.UnitsInStock }

func freight(o northwind.Order) decimal.Decimal { return o.Freight }

func shipVia(o northwind.Order) int { return *o.ShipVia }

// ResultOperators covers terminal operators: element access, counts,
// quantifiers, aggregates and the failures they raise
func ResultOperators() Suite {
	return Suite{Name: "ResultOperators", Scenarios: []Scenario{
		{Name: "First", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertFirst[northwind.Customer](t, a, byID, customersByID, oracle.EntryCount(1))
		}},
		{Name: "First_with_predicate", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertFirst[northwind.Customer](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("city = ?", "London").Order("id") },
				func(cs []northwind.Customer) []northwind.Customer {
					return customersByID(seq.Where(cs, func(c northwind.Customer) bool { return eq(c.City, "London") }))
				})
		}},
		{Name: "FirstOrDefault_empty", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertFirstOrDefault[northwind.Customer](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("id = ?", "XXXXX") },
				func(cs []northwind.Customer) []northwind.Customer {
					return seq.Where(cs, func(c northwind.Customer) bool { return c.ID == "XXXXX" })
				})
		}},
		{Name: "First_throws_on_empty", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertFailsWith(t, a,
				oracle.FromResult[northwind.Customer](func(q *gorm.DB) (northwind.Customer, error) {
					return persistence.Deref[northwind.Customer](persistence.First[northwind.Customer](q.Where("id = ?", "XXXXX")))
				}),
				oracle.OverResult(func(cs []northwind.Customer) (northwind.Customer, error) {
					return seq.FirstWhere(cs, func(c northwind.Customer) bool { return c.ID == "XXXXX" })
				}),
				seq.ErrNoElements)
		}},
		{Name: "Single", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertSingle[northwind.Customer](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("id = ?", "ALFKI") },
				func(cs []northwind.Customer) []northwind.Customer {
					return seq.Where(cs, func(c northwind.Customer) bool { return c.ID == "ALFKI" })
				},
				oracle.EntryCount(1))
		}},
		{Name: "SingleOrDefault_empty", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertSingleOrDefault[northwind.Employee](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("reports_to = ?", 1) },
				func(es []northwind.Employee) []northwind.Employee {
					return seq.Where(es, func(e northwind.Employee) bool { return eq(e.ReportsTo, 1) })
				})
		}},
		{Name: "Single_throws_on_many", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertFailsWith(t, a,
				oracle.FromResult[northwind.Employee](func(q *gorm.DB) (northwind.Employee, error) {
					return persistence.Deref[northwind.Employee](persistence.Single[northwind.Employee](q))
				}),
				oracle.OverResult(seq.Single[northwind.Employee]),
				seq.ErrMoreThanOneElement)
		}},
		{Name: "Last", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// Last materializes the ordered set
			oracle.AssertLast[northwind.Customer](t, a, byID, customersByID, oracle.EntryCount(northwind.CustomerCount))
		}},
		{Name: "LastOrDefault_empty", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertLastOrDefault[northwind.Order](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("freight < ?", 0).Order("id") },
				func(os []northwind.Order) []northwind.Order {
					return seq.Where(os, func(o northwind.Order) bool { return o.Freight.IsNegative() })
				})
		}},
		{Name: "Count", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertCount[northwind.Order](t, a, nil, nil)
		}},
		{Name: "Count_with_predicate", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertCount[northwind.Order](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("ship_via = ?", 2) },
				func(os []northwind.Order) []northwind.Order {
					return seq.Where(os, func(o northwind.Order) bool { return eq(o.ShipVia, 2) })
				})
		}},
		{Name: "LongCount", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertLongCount[northwind.OrderDetail](t, a, nil, nil)
		}},
		{Name: "Any_true", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertAny[northwind.Customer](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("id LIKE ?", "A%") },
				func(cs []northwind.Customer) []northwind.Customer {
					return seq.Where(cs, func(c northwind.Customer) bool { return c.ID[0] == 'A' })
				})
		}},
		{Name: "Any_false", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertAny[northwind.Product](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("units_in_stock < ?", 0) },
				func(ps []northwind.Product) []northwind.Product {
					return seq.Where(ps, func(p northwind.Product) bool { return p.UnitsInStock < 0 })
				})
		}},
		{Name: "All_true", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertAll[northwind.Order](t, a, nil, nil, oracle.Condition[northwind.Order]{
				SQL:   "freight >= ?",
				Args:  []any{0},
				Match: func(o northwind.Order) bool { return !o.Freight.IsNegative() },
			})
		}},
		{Name: "All_false", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertAll[northwind.Customer](t, a, nil, nil, oracle.Condition[northwind.Customer]{
				SQL:   "country = ?",
				Args:  []any{"Germany"},
				Match: func(c northwind.Customer) bool { return eq(c.Country, "Germany") },
			})
		}},
		{Name: "All_with_null_column", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertAll[northwind.Customer](t, a, nil, nil, oracle.Condition[northwind.Customer]{
				SQL:   "region <> ?",
				Args:  []any{"XX"},
				Match: func(c northwind.Customer) bool { return c.Region == nil || *c.Region != "XX" },
			})
		}},
		{Name: "Min", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertMin[northwind.Product](t, a, nil, nil, "units_in_stock", unitsInStock)
		}},
		{Name: "Max_with_predicate", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertMax[northwind.Product](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("discontinued = ?", false) },
				func(ps []northwind.Product) []northwind.Product {
					return seq.Where(ps, func(p northwind.Product) bool { return !p.Discontinued })
				},
				"units_in_stock", unitsInStock)
		}},
		{Name: "Min_throws_on_empty", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			none := func(p northwind.Product) bool { return p.UnitsInStock < 0 }
			oracle.AssertFailsWith(t, a,
				oracle.FromResult[northwind.Product](func(q *gorm.DB) (int16, error) {
					return persistence.Min[int16](q.Where("units_in_stock < ?", 0), "units_in_stock")
				}),
				oracle.OverResult(func(ps []northwind.Product) (int16, error) {
					return seq.Min(seq.Where(ps, none), unitsInStock)
				}),
				seq.ErrNoElements)
		}},
		{Name: "Sum", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertSum[northwind.Order](t, a, nil, nil, "ship_via", shipVia)
		}},
		{Name: "Sum_over_wide_values", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertSum[northwind.OrderDetail](t, a, nil, nil, "quantity",
				func(od northwind.OrderDetail) int64 { return int64(od.Quantity) })
		}},
		{Name: "Sum_decimal", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// engines without a decimal type sum in floating point
			oracle.AssertSingleResult(t, a,
				oracle.FromResult[northwind.Order](func(q *gorm.DB) (decimal.Decimal, error) {
					v, err := persistence.SumDecimal(q, "freight")
					return v.Round(2), err
				}),
				oracle.Value(func(os []northwind.Order) decimal.Decimal {
					return seq.SumDecimal(os, freight).Round(2)
				}))
		}},
		{Name: "Sum_empty_is_zero", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertSum[northwind.Product](t, a,
				func(q *gorm.DB) *gorm.DB { return q.Where("units_in_stock < ?", 0) },
				func(ps []northwind.Product) []northwind.Product {
					return seq.Where(ps, func(p northwind.Product) bool { return p.UnitsInStock < 0 })
				},
				"units_in_stock", func(p northwind.Product) int { return int(p.UnitsInStock) })
		}},
		{Name: "Average", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertAverage[northwind.Product](t, a, nil, nil, "units_in_stock", unitsInStock)
		}},
		{Name: "Average_decimal", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertAverage[northwind.Order](t, a, nil, nil, "freight",
				func(o northwind.Order) float64 { return o.Freight.InexactFloat64() })
		}},
		{Name: "Contains", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertSingleResult(t, a,
				oracle.FromResult[northwind.Customer](func(q *gorm.DB) (bool, error) {
					return persistence.Any(q.Where("id = ?", "ALFKI"))
				}),
				oracle.Value(func(cs []northwind.Customer) bool {
					return seq.Contains(seq.Select(cs, customerID), "ALFKI")
				}))
		}},
		{Name: "Distinct_count", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertSingleResult(t, a,
				oracle.FromResult[northwind.Order](func(q *gorm.DB) (int64, error) {
					var n int64
					err := q.Distinct("customer_id").Count(&n).Error
					return n, err
				}),
				oracle.Value(func(os []northwind.Order) int64 {
					return int64(len(seq.DistinctBy(os, func(o northwind.Order) string { return *o.CustomerID })))
				}))
		}},
	}}
}
