// Package seq evaluates queries over in-memory slices. It is the reference
// evaluator the oracle compares provider results against, so its operators
// follow the ordering, grouping and failure rules of the query operators
// they stand in for.
package seq

import (
	"cmp"
	"errors"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoElements is returned by element and aggregate operators that
	// require a non-empty source
	ErrNoElements = errors.New("sequence contains no elements")
	// ErrMoreThanOneElement is returned by Single and SingleOrDefault when the
	// source has more than one element
	ErrMoreThanOneElement = errors.New("sequence contains more than one element")
)

// Number is the set of types the numeric aggregates accept
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Where returns the elements matching pred
func Where[T any](s []T, pred func(T) bool) []T {
	return lo.Filter(s, func(item T, _ int) bool { return pred(item) })
}

// Select projects every element
func Select[T, R any](s []T, f func(T) R) []R {
	return lo.Map(s, func(item T, _ int) R { return f(item) })
}

// SelectMany projects every element to a slice and flattens the result
func SelectMany[T, R any](s []T, f func(T) []R) []R {
	return lo.FlatMap(s, func(item T, _ int) []R { return f(item) })
}

// Take returns at most n leading elements
func Take[T any](s []T, n int) []T {
	if n <= 0 {
		return []T{}
	}
	return slices.Clone(lo.Slice(s, 0, n))
}

// Skip drops n leading elements
func Skip[T any](s []T, n int) []T {
	if n <= 0 {
		return slices.Clone(s)
	}
	return slices.Clone(lo.Drop(s, n))
}

// Distinct removes duplicates, keeping first occurrences in order
func Distinct[T comparable](s []T) []T {
	return lo.Uniq(s)
}

// DistinctBy removes elements whose key was already seen
func DistinctBy[T any, K comparable](s []T, key func(T) K) []T {
	return lo.UniqBy(s, key)
}

// DefaultIfEmpty returns s, or a one element slice holding def when s is empty
func DefaultIfEmpty[T any](s []T, def T) []T {
	if len(s) == 0 {
		return []T{def}
	}
	return s
}

// Contains reports whether v is in s
func Contains[T comparable](s []T, v T) bool {
	return lo.Contains(s, v)
}

// Any reports whether s has elements
func Any[T any](s []T) bool {
	return len(s) > 0
}

// AnyWhere reports whether some element matches pred
func AnyWhere[T any](s []T, pred func(T) bool) bool {
	return lo.SomeBy(s, pred)
}

// All reports whether every element matches pred. It is true for an empty s
func All[T any](s []T, pred func(T) bool) bool {
	return lo.EveryBy(s, pred)
}

// Count returns the number of elements
func Count[T any](s []T) int {
	return len(s)
}

// CountWhere returns the number of elements matching pred
func CountWhere[T any](s []T, pred func(T) bool) int {
	return lo.CountBy(s, pred)
}

// Sum adds the selected values. An empty source sums to zero
func Sum[T any, N Number](s []T, sel func(T) N) N {
	return lo.SumBy(s, sel)
}

// SumDecimal adds the selected decimals
func SumDecimal[T any](s []T, sel func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range s {
		total = total.Add(sel(v))
	}
	return total
}

// Average returns the arithmetic mean of the selected values
func Average[T any, N Number](s []T, sel func(T) N) (float64, error) {
	if len(s) == 0 {
		return 0, ErrNoElements
	}
	var total float64
	for _, v := range s {
		total += float64(sel(v))
	}
	return total / float64(len(s)), nil
}

// Min returns the smallest selected value
func Min[T any, K cmp.Ordered](s []T, sel func(T) K) (K, error) {
	var zero K
	if len(s) == 0 {
		return zero, ErrNoElements
	}
	m := sel(s[0])
	for _, v := range s[1:] {
		m = min(m, sel(v))
	}
	return m, nil
}

// Max returns the largest selected value
func Max[T any, K cmp.Ordered](s []T, sel func(T) K) (K, error) {
	var zero K
	if len(s) == 0 {
		return zero, ErrNoElements
	}
	m := sel(s[0])
	for _, v := range s[1:] {
		m = max(m, sel(v))
	}
	return m, nil
}
