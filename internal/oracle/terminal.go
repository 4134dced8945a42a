package oracle

import (
	"cmp"
	"context"

	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/seq"
)

// Shape narrows the provider query of a terminal assertion. A nil Shape
// leaves the entity set unchanged. Aggregate assertions must not order.
type Shape func(q *gorm.DB) *gorm.DB

// Filter narrows the reference rows of a terminal assertion. A nil Filter
// keeps every row.
type Filter[T any] func(rows []T) []T

// Condition is a predicate expressed for both sides. AssertAll counts rows
// where SQL is NULL as satisfying it, so Match must return true for values
// that make SQL NULL, such as a nil column it compares.
type Condition[T any] struct {
	SQL   string
	Args  []any
	Match func(T) bool
}

func (s Shape) apply(q *gorm.DB) *gorm.DB {
	if s == nil {
		return q
	}
	return s(q)
}

func (f Filter[T]) apply(rows []T) []T {
	if f == nil {
		return rows
	}
	return f(rows)
}

func assertTerminal[T, R any](t TestingT, a *Asserter, kind string, actual func(q *gorm.DB) (R, error), expected func(rows []T) (R, error), opts []QueryOption) {
	t.Helper()
	o := newQueryOptions(opts)
	a.run(t, kind, func(ctx context.Context, t TestingT) int {
		return assertSingle(ctx, t, a, FromResult[T](actual), OverResult[T](expected), o)
	})
}

// AssertFirst compares First over the shaped query with First over the
// filtered rows
func AssertFirst[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T], opts ...QueryOption) {
	t.Helper()
	assertTerminal(t, a, "AssertFirst",
		func(q *gorm.DB) (T, error) { return persistence.Deref[T](persistence.First[T](shape.apply(q))) },
		func(rows []T) (T, error) { return seq.First(filter.apply(rows)) }, opts)
}

// AssertFirstOrDefault is AssertFirst yielding the zero value when empty
func AssertFirstOrDefault[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T], opts ...QueryOption) {
	t.Helper()
	assertTerminal(t, a, "AssertFirstOrDefault",
		func(q *gorm.DB) (T, error) { return persistence.Deref[T](persistence.FirstOrDefault[T](shape.apply(q))) },
		func(rows []T) (T, error) { return seq.FirstOrDefault(filter.apply(rows)), nil }, opts)
}

// AssertSingle compares Single on both sides
func AssertSingle[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T], opts ...QueryOption) {
	t.Helper()
	assertTerminal(t, a, "AssertSingle",
		func(q *gorm.DB) (T, error) { return persistence.Deref[T](persistence.Single[T](shape.apply(q))) },
		func(rows []T) (T, error) { return seq.Single(filter.apply(rows)) }, opts)
}

// AssertSingleOrDefault compares SingleOrDefault on both sides
func AssertSingleOrDefault[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T], opts ...QueryOption) {
	t.Helper()
	assertTerminal(t, a, "AssertSingleOrDefault",
		func(q *gorm.DB) (T, error) { return persistence.Deref[T](persistence.SingleOrDefault[T](shape.apply(q))) },
		func(rows []T) (T, error) { return seq.SingleOrDefault(filter.apply(rows)) }, opts)
}

// AssertLast compares Last on both sides. Both sides must be ordered.
func AssertLast[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T], opts ...QueryOption) {
	t.Helper()
	assertTerminal(t, a, "AssertLast",
		func(q *gorm.DB) (T, error) { return persistence.Deref[T](persistence.Last[T](shape.apply(q))) },
		func(rows []T) (T, error) { return seq.Last(filter.apply(rows)) }, opts)
}

// AssertLastOrDefault compares LastOrDefault on both sides
func AssertLastOrDefault[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T], opts ...QueryOption) {
	t.Helper()
	assertTerminal(t, a, "AssertLastOrDefault",
		func(q *gorm.DB) (T, error) { return persistence.Deref[T](persistence.LastOrDefault[T](shape.apply(q))) },
		func(rows []T) (T, error) { return seq.LastOrDefault(filter.apply(rows)), nil }, opts)
}

// AssertCount compares row counts
func AssertCount[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T]) {
	t.Helper()
	assertTerminal(t, a, "AssertCount",
		func(q *gorm.DB) (int, error) { return persistence.Count(shape.apply(q)) },
		func(rows []T) (int, error) { return len(filter.apply(rows)), nil }, nil)
}

// AssertLongCount compares row counts as int64
func AssertLongCount[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T]) {
	t.Helper()
	assertTerminal(t, a, "AssertLongCount",
		func(q *gorm.DB) (int64, error) { return persistence.LongCount(shape.apply(q)) },
		func(rows []T) (int64, error) { return int64(len(filter.apply(rows))), nil }, nil)
}

// AssertAny compares whether the shaped query has rows
func AssertAny[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T]) {
	t.Helper()
	assertTerminal(t, a, "AssertAny",
		func(q *gorm.DB) (bool, error) { return persistence.Any(shape.apply(q)) },
		func(rows []T) (bool, error) { return seq.Any(filter.apply(rows)), nil }, nil)
}

// AssertAll compares whether every row satisfies cond
func AssertAll[T any](t TestingT, a *Asserter, shape Shape, filter Filter[T], cond Condition[T]) {
	t.Helper()
	assertTerminal(t, a, "AssertAll",
		func(q *gorm.DB) (bool, error) { return persistence.All(shape.apply(q), cond.SQL, cond.Args...) },
		func(rows []T) (bool, error) { return seq.All(filter.apply(rows), cond.Match), nil }, nil)
}

// AssertMin compares the minimum of column with the minimum of sel
func AssertMin[T any, K cmp.Ordered](t TestingT, a *Asserter, shape Shape, filter Filter[T], column string, sel func(T) K) {
	t.Helper()
	assertTerminal(t, a, "AssertMin",
		func(q *gorm.DB) (K, error) { return persistence.Min[K](shape.apply(q), column) },
		func(rows []T) (K, error) { return seq.Min(filter.apply(rows), sel) }, nil)
}

// AssertMax compares the maximum of column with the maximum of sel
func AssertMax[T any, K cmp.Ordered](t TestingT, a *Asserter, shape Shape, filter Filter[T], column string, sel func(T) K) {
	t.Helper()
	assertTerminal(t, a, "AssertMax",
		func(q *gorm.DB) (K, error) { return persistence.Max[K](shape.apply(q), column) },
		func(rows []T) (K, error) { return seq.Max(filter.apply(rows), sel) }, nil)
}

// AssertSum compares the sum of column with the sum of sel
func AssertSum[T any, N seq.Number](t TestingT, a *Asserter, shape Shape, filter Filter[T], column string, sel func(T) N) {
	t.Helper()
	assertTerminal(t, a, "AssertSum",
		func(q *gorm.DB) (N, error) { return persistence.Sum[N](shape.apply(q), column) },
		func(rows []T) (N, error) { return seq.Sum(filter.apply(rows), sel), nil }, nil)
}

// AssertAverage compares the mean of column with the mean of sel
func AssertAverage[T any, N seq.Number](t TestingT, a *Asserter, shape Shape, filter Filter[T], column string, sel func(T) N) {
	t.Helper()
	assertTerminal(t, a, "AssertAverage",
		func(q *gorm.DB) (float64, error) { return persistence.Average(shape.apply(q), column) },
		func(rows []T) (float64, error) { return seq.Average(filter.apply(rows), sel) }, nil)
}
