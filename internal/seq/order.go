package seq

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Comparer orders two elements the way cmp.Compare does
type Comparer[T any] func(a, b T) int

// Asc orders by key ascending
func Asc[T any, K cmp.Ordered](key func(T) K) Comparer[T] {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}

// Desc orders by key descending
func Desc[T any, K cmp.Ordered](key func(T) K) Comparer[T] {
	return func(a, b T) int { return cmp.Compare(key(b), key(a)) }
}

// AscTime orders by a time key ascending
func AscTime[T any](key func(T) time.Time) Comparer[T] {
	return func(a, b T) int { return key(a).Compare(key(b)) }
}

// AscDecimal orders by a decimal key ascending
func AscDecimal[T any](key func(T) decimal.Decimal) Comparer[T] {
	return func(a, b T) int { return key(a).Cmp(key(b)) }
}

// AscNullable orders by a pointer key ascending with nil first, as SQL
// engines that sort NULL low do
func AscNullable[T any, K cmp.Ordered](key func(T) *K) Comparer[T] {
	return func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka == nil && kb == nil:
			return 0
		case ka == nil:
			return -1
		case kb == nil:
			return 1
		default:
			return cmp.Compare(*ka, *kb)
		}
	}
}

// Ordinal compares strings bytewise
func Ordinal(a, b string) int {
	return strings.Compare(a, b)
}

// SortBy returns a stably sorted copy of s. Later comparers break ties
// left by earlier ones, the way ThenBy follows OrderBy
func SortBy[T any](s []T, comparers ...Comparer[T]) []T {
	out := slices.Clone(s)
	slices.SortStableFunc(out, func(a, b T) int {
		for _, c := range comparers {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	})
	return out
}

// OrderBy returns s stably sorted by key
func OrderBy[T any, K cmp.Ordered](s []T, key func(T) K) []T {
	return SortBy(s, Asc(key))
}

// OrderByDescending returns s stably sorted by key, largest first
func OrderByDescending[T any, K cmp.Ordered](s []T, key func(T) K) []T {
	return SortBy(s, Desc(key))
}

// Reverse returns s in reverse order
func Reverse[T any](s []T) []T {
	out := slices.Clone(s)
	slices.Reverse(out)
	return out
}
