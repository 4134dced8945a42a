package northwind

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormspec/queryspec/internal/oracle"
)

func TestGenerate_Sizes(t *testing.T) {
	d := Generate(1)

	assert.Len(t, d.Customers, CustomerCount)
	assert.Len(t, d.Employees, EmployeeCount)
	assert.Len(t, d.Products, ProductCount)
	require.Len(t, d.Orders, OrderCount)
	assert.Equal(t, FirstOrderID, d.Orders[0].ID)
	assert.Equal(t, FirstOrderID+OrderCount-1, d.Orders[OrderCount-1].ID)

	ordering := lo.Uniq(lo.Map(d.Orders, func(o Order, _ int) string { return *o.CustomerID }))
	assert.Len(t, ordering, CustomerCount-len(IdleCustomers))
	for _, idle := range IdleCustomers {
		assert.NotContains(t, ordering, idle)
	}

	names := lo.Map(d.Products, func(p Product, _ int) string { return p.ProductName })
	assert.Len(t, lo.Uniq(names), ProductCount)

	perOrder := lo.CountValuesBy(d.OrderDetails, func(od OrderDetail) int { return od.OrderID })
	assert.Len(t, perOrder, OrderCount)
	for id, n := range perOrder {
		assert.True(t, n >= 1 && n <= 4, "order %d has %d lines", id, n)
	}

	unshippedOrders := lo.CountBy(d.Orders, func(o Order) bool { return o.ShippedDate == nil })
	assert.Equal(t, unshipped, unshippedOrders)
}

func TestGenerate_Deterministic(t *testing.T) {
	a, b := Generate(7), Generate(7)
	assert.Equal(t, a, b)

	c := Generate(8)
	assert.NotEqual(t, a.Customers, c.Customers)
}

func TestExpected_WiresNavigations(t *testing.T) {
	d := Generate(3)
	e := d.Expected()

	for _, o := range e.Orders {
		require.NotNil(t, o.Customer, "order %d", o.ID)
		assert.Equal(t, *o.CustomerID, o.Customer.ID)
		require.NotNil(t, o.Employee)
		assert.Equal(t, *o.EmployeeID, o.Employee.ID)
		assert.NotEmpty(t, o.OrderDetails)
	}

	total := lo.SumBy(e.Customers, func(c Customer) int { return len(c.Orders) })
	assert.Equal(t, OrderCount, total)

	fuller := lo.Filter(e.Employees, func(emp Employee, _ int) bool { return emp.ID == 2 })
	require.Len(t, fuller, 1)
	assert.Nil(t, fuller[0].Manager)
	assert.Equal(t, "Fuller", e.Employees[0].Manager.LastName)

	// the raw rows stay unwired for seeding
	assert.Nil(t, d.Orders[0].Customer)
	assert.Empty(t, d.Customers[0].Orders)
}

func TestFixture_ExpectedData(t *testing.T) {
	fx := NewFixture(11)
	assert.Equal(t, "northwind", fx.Name())
	assert.Equal(t, "seed-11", fx.Version())
	assert.Len(t, oracle.Rows[Order](fx.ExpectedData()), OrderCount)
	assert.Len(t, oracle.Rows[Customer](fx.ExpectedData()), CustomerCount)
	assert.True(t, oracle.Registered[OrderDetail](fx.Registry()))
}

func TestAssertOrder_ReportsDifferences(t *testing.T) {
	d := Generate(5)
	o := d.Orders[0]
	changed := o
	changed.Freight = o.Freight.Add(o.Freight).Add(oneCent)

	rec := oracle.Capture(func(t oracle.TestingT) { AssertOrder(t, o, o) })
	assert.False(t, rec.Failed(), rec.Failures())

	rec = oracle.Capture(func(t oracle.TestingT) { AssertOrder(t, o, changed) })
	require.True(t, rec.Failed())
	assert.Contains(t, rec.Failures()[0], "freight")
}

var oneCent = decimal.RequireFromString("0.01")
