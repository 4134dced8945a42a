package oracle

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormspec/queryspec/internal/seq"
)

type lineItem struct {
	OrderID  int
	Product  string
	Quantity int
	Price    decimal.Decimal
}

func TestCapture(t *testing.T) {
	rec := Capture(func(t TestingT) {
		assert.Equal(t, 1, 2)
		require.Equal(t, "a", "b")
		t.Errorf("not reached")
	})
	assert.True(t, rec.Failed())
	assert.Len(t, rec.Failures(), 2)

	rec = Capture(func(t TestingT) { panic("boom") })
	require.True(t, rec.Failed())
	assert.Equal(t, []string{"panic: boom"}, rec.Failures())

	assert.False(t, Capture(func(t TestingT) {}).Failed())
}

func TestSortKey_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b SortKey
		want int
	}{
		{"ints", Key(1), Key(2), -1},
		{"mixed widths", Key(int16(3)), Key(int64(3)), 0},
		{"nil first", Key(nil), Key(0), -1},
		{"nil pointer first", Key((*string)(nil)), Key("a"), -1},
		{"pointers deref", Key(ptrTo("b")), Key("a"), 1},
		{"second part breaks tie", Key("x", 2), Key("x", 1), 1},
		{"shorter first", Key("x"), Key("x", 1), -1},
		{"decimal", Key(decimal.RequireFromString("10.50")), Key(decimal.RequireFromString("10.5")), 0},
		{"time", Key(time.Date(1996, 7, 4, 0, 0, 0, 0, time.UTC)), Key(time.Date(1996, 7, 5, 0, 0, 0, 0, time.UTC)), -1},
		{"bool", Key(false), Key(true), -1},
		{"float", Key(1.5), Key(2), -1},
		{"nested", Key(Key(1, "b")), Key(Key(1, "a")), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func ptrTo[T any](v T) *T { return &v }

func TestRegistry_Equal(t *testing.T) {
	r := NewRegistry()
	at := time.Date(1997, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.True(t, r.Equal(decimal.RequireFromString("1.10"), decimal.RequireFromString("1.1")))
	assert.True(t, r.Equal(at, at.In(time.FixedZone("x", 3600))))
	assert.True(t, r.Equal(0.1+0.2, 0.3))
	assert.True(t, r.Equal([]int(nil), []int{}))
	assert.True(t, r.Equal(ptrTo(3), ptrTo(3)))
	assert.False(t, r.Equal(ptrTo(3), (*int)(nil)))
	assert.False(t, r.Equal(1, int64(1)))
	assert.False(t, r.Equal(lineItem{Product: "Chai"}, lineItem{Product: "Chang"}))

	RegisterEntity(r, func(l lineItem) SortKey { return Key(l.OrderID, l.Product) }, func(t TestingT, e, a lineItem) {
		assert.Equal(t, e.OrderID, a.OrderID)
		assert.Equal(t, e.Product, a.Product)
	})
	assert.True(t, r.Equal(lineItem{OrderID: 1, Product: "Chai", Quantity: 5}, lineItem{OrderID: 1, Product: "Chai", Quantity: 6}))
	assert.True(t, Registered[lineItem](r))
}

func TestRegistry_Merge(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	RegisterEntity(b, func(l lineItem) SortKey { return Key(l.OrderID) }, nil)
	assert.False(t, Registered[lineItem](a))
	a.Merge(b)
	assert.True(t, Registered[lineItem](a))
}

func TestExpectedData_RowsAreCopies(t *testing.T) {
	d := NewExpectedData()
	assert.Empty(t, Rows[lineItem](d))

	Put(d, []lineItem{{OrderID: 1}, {OrderID: 2}})
	rows := Rows[lineItem](d)
	rows[0].OrderID = 99
	assert.Equal(t, 1, Rows[lineItem](d)[0].OrderID)

	other := NewExpectedData()
	Put(other, []string{"x"})
	d.Merge(other)
	assert.Equal(t, []string{"x"}, Rows[string](d))
}

func items() []lineItem {
	return []lineItem{
		{OrderID: 10248, Product: "Queso Cabrales", Quantity: 12, Price: decimal.RequireFromString("14.00")},
		{OrderID: 10248, Product: "Singaporean Hokkien Fried Mee", Quantity: 10, Price: decimal.RequireFromString("9.80")},
		{OrderID: 10249, Product: "Tofu", Quantity: 9, Price: decimal.RequireFromString("18.60")},
		{OrderID: 10250, Product: "Jack's New England Clam Chowder", Quantity: 10, Price: decimal.RequireFromString("7.70")},
		{OrderID: 10250, Product: "Manjimup Dried Apples", Quantity: 35, Price: decimal.RequireFromString("42.40")},
	}
}

func byProduct(l lineItem) SortKey { return Key(l.Product) }

func assertItem(t TestingT, e, a lineItem) {
	t.Helper()
	assert.Equal(t, e.Product, a.Product)
	assert.Equal(t, e.Quantity, a.Quantity)
	assert.True(t, e.Price.Equal(a.Price), "price %s != %s", e.Price, a.Price)
}

func TestGroupingAsserter(t *testing.T) {
	orderID := func(l lineItem) int { return l.OrderID }
	expected := seq.GroupBy(items(), orderID)
	actual := seq.GroupBy(seq.Reverse(items()), orderID)

	sorter := GroupingSorter[int, lineItem]()
	check := CollectionAsserter(sorter, GroupingAsserter[int, lineItem](byProduct, assertItem))

	rec := Capture(func(t TestingT) { check(t, expected, actual) })
	assert.False(t, rec.Failed(), rec.Failures())

	actual[0].Elements[0].Quantity = 1
	rec = Capture(func(t TestingT) { check(t, expected, actual) })
	assert.True(t, rec.Failed())

	wrongKey := []Grouping[int, lineItem]{{Key: 1, Elements: items()[:1]}}
	rec = Capture(func(t TestingT) {
		GroupingAsserter[int, lineItem](nil, nil)(t, expected[0], wrongKey[0])
	})
	require.True(t, rec.Failed())
	assert.Contains(t, rec.Failures()[0], "grouping key mismatch")
}

func TestCollectionAsserter(t *testing.T) {
	check := CollectionAsserter(byProduct, assertItem)

	rec := Capture(func(t TestingT) { check(t, items(), seq.Reverse(items())) })
	assert.False(t, rec.Failed(), rec.Failures())

	rec = Capture(func(t TestingT) { check(t, items(), items()[1:]) })
	require.True(t, rec.Failed())
	assert.Contains(t, rec.Failures()[0], "result count mismatch")

	sameOrder := func(l lineItem) SortKey { return Key(l.OrderID) }
	a, c := items()[0], items()[0]
	c.Product = "Chai"
	rec = Capture(func(t TestingT) {
		CollectionAsserter(sameOrder, assertItem)(t, []lineItem{a, a}, []lineItem{c, a})
	})
	require.True(t, rec.Failed())
	assert.Contains(t, rec.Failures()[0], "has no match among equal keys")

	structural := CollectionAsserter[lineItem](nil, nil)
	rec = Capture(func(t TestingT) { structural(t, items(), seq.Reverse(items())) })
	assert.False(t, rec.Failed(), rec.Failures())

	sorted := CollectionSorter(byProduct)(seq.Reverse(items()))
	assert.Equal(t, "Jack's New England Clam Chowder", sorted[0].Product)
}

type region struct{ Name string }

type territory struct {
	Name   string
	Region *region
	Shops  []string
}

func TestMaybe(t *testing.T) {
	name := func(r *region) string { return r.Name }
	regionOf := func(t *territory) *region { return t.Region }

	withRegion := &territory{Name: "Boston", Region: &region{Name: "Eastern"}, Shops: []string{"a"}}
	orphan := &territory{Name: "Redmond"}

	assert.Equal(t, "Eastern", *MaybeScalar(Maybe(withRegion, regionOf), name))
	assert.Nil(t, MaybeScalar(Maybe(orphan, regionOf), name))
	assert.Nil(t, Maybe((*territory)(nil), regionOf))

	shops := func(t *territory) []string { return t.Shops }
	assert.Equal(t, []string{"a"}, MaybeSlice(withRegion, shops))
	assert.Empty(t, MaybeSlice((*territory)(nil), shops))
}

func TestSeqErrorsMatchThroughWrapping(t *testing.T) {
	_, err := seq.First([]int{})
	assert.True(t, errors.Is(err, seq.ErrNoElements))
}
