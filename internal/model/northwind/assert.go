package northwind

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ormspec/queryspec/internal/oracle"
)

func CustomerKey(c Customer) oracle.SortKey { return oracle.Key(c.ID) }

func EmployeeKey(e Employee) oracle.SortKey { return oracle.Key(e.ID) }

func ProductKey(p Product) oracle.SortKey { return oracle.Key(p.ID) }

func OrderKey(o Order) oracle.SortKey { return oracle.Key(o.ID) }

func OrderDetailKey(od OrderDetail) oracle.SortKey { return oracle.Key(od.OrderID, od.ProductID) }

// AssertCustomer compares scalar columns; navigations are checked by include paths
func AssertCustomer(t oracle.TestingT, e, a Customer) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.CompanyName, a.CompanyName, "customer %s", e.ID)
	assert.Equal(t, e.ContactName, a.ContactName, "customer %s", e.ID)
	assert.Equal(t, e.ContactTitle, a.ContactTitle, "customer %s", e.ID)
	assert.Equal(t, e.Address, a.Address, "customer %s", e.ID)
	assert.Equal(t, e.City, a.City, "customer %s", e.ID)
	assert.Equal(t, e.Region, a.Region, "customer %s", e.ID)
	assert.Equal(t, e.PostalCode, a.PostalCode, "customer %s", e.ID)
	assert.Equal(t, e.Country, a.Country, "customer %s", e.ID)
	assert.Equal(t, e.Phone, a.Phone, "customer %s", e.ID)
	assert.Equal(t, e.Fax, a.Fax, "customer %s", e.ID)
}

func AssertEmployee(t oracle.TestingT, e, a Employee) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.LastName, a.LastName)
	assert.Equal(t, e.FirstName, a.FirstName)
	assert.Equal(t, e.Title, a.Title)
	assertTime(t, "hire date", e.HireDate, a.HireDate)
	assert.Equal(t, e.City, a.City)
	assert.Equal(t, e.Country, a.Country)
	assert.Equal(t, e.ReportsTo, a.ReportsTo)
}

func AssertProduct(t oracle.TestingT, e, a Product) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.ProductName, a.ProductName)
	assert.Equal(t, e.SupplierID, a.SupplierID)
	assert.Equal(t, e.CategoryID, a.CategoryID)
	assert.Equal(t, e.QuantityPerUnit, a.QuantityPerUnit)
	assertDecimal(t, "unit price", e.UnitPrice, a.UnitPrice)
	assert.Equal(t, e.UnitsInStock, a.UnitsInStock)
	assert.Equal(t, e.UnitsOnOrder, a.UnitsOnOrder)
	assert.Equal(t, e.ReorderLevel, a.ReorderLevel)
	assert.Equal(t, e.Discontinued, a.Discontinued)
}

func AssertOrder(t oracle.TestingT, e, a Order) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.CustomerID, a.CustomerID, "order %d", e.ID)
	assert.Equal(t, e.EmployeeID, a.EmployeeID, "order %d", e.ID)
	assertTime(t, "order date", e.OrderDate, a.OrderDate)
	assertTime(t, "required date", e.RequiredDate, a.RequiredDate)
	assertTime(t, "shipped date", e.ShippedDate, a.ShippedDate)
	assert.Equal(t, e.ShipVia, a.ShipVia, "order %d", e.ID)
	assertDecimal(t, "freight", e.Freight, a.Freight)
	assert.Equal(t, e.ShipName, a.ShipName, "order %d", e.ID)
	assert.Equal(t, e.ShipCity, a.ShipCity, "order %d", e.ID)
	assert.Equal(t, e.ShipRegion, a.ShipRegion, "order %d", e.ID)
	assert.Equal(t, e.ShipPostalCode, a.ShipPostalCode, "order %d", e.ID)
	assert.Equal(t, e.ShipCountry, a.ShipCountry, "order %d", e.ID)
}

func AssertOrderDetail(t oracle.TestingT, e, a OrderDetail) {
	t.Helper()
	assert.Equal(t, e.OrderID, a.OrderID)
	assert.Equal(t, e.ProductID, a.ProductID)
	assertDecimal(t, "unit price", e.UnitPrice, a.UnitPrice)
	assert.Equal(t, e.Quantity, a.Quantity)
	assert.InDelta(t, e.Discount, a.Discount, 1e-6)
}

func assertTime(t oracle.TestingT, field string, e, a *time.Time) {
	t.Helper()
	switch {
	case e == nil && a == nil:
	case e == nil || a == nil:
		t.Errorf("%s: expected %v, got %v", field, e, a)
	case !e.Equal(*a):
		t.Errorf("%s: expected %s, got %s", field, e.UTC(), a.UTC())
	}
}

func assertDecimal(t oracle.TestingT, field string, e, a decimal.Decimal) {
	t.Helper()
	if !e.Equal(a) {
		t.Errorf("%s: expected %s, got %s", field, e, a)
	}
}

// NewRegistry returns the sorters and asserters of every northwind entity
func NewRegistry() *oracle.Registry {
	r := oracle.NewRegistry()
	oracle.RegisterEntity(r, CustomerKey, AssertCustomer)
	oracle.RegisterEntity(r, EmployeeKey, AssertEmployee)
	oracle.RegisterEntity(r, ProductKey, AssertProduct)
	oracle.RegisterEntity(r, OrderKey, AssertOrder)
	oracle.RegisterEntity(r, OrderDetailKey, AssertOrderDetail)
	return r
}
