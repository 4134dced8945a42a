package oracle

import (
	"reflect"

	"github.com/ormspec/queryspec/internal/seq"
)

// Grouping is a grouped result: a key and its elements
type Grouping[K comparable, V any] = seq.Grouping[K, V]

// plain compares values without entity asserters
var plain = NewRegistry()

// GroupingSorter orders groupings by key
func GroupingSorter[K comparable, V any]() func(Grouping[K, V]) SortKey {
	return func(g Grouping[K, V]) SortKey {
		return plain.structuralKey(reflect.ValueOf(g.Key), 0)
	}
}

// GroupingAsserter compares the keys of two groupings and then their
// elements with CollectionAsserter
func GroupingAsserter[K comparable, V any](elementSorter func(V) SortKey, elementAsserter func(t TestingT, expected, actual V)) func(t TestingT, expected, actual Grouping[K, V]) {
	elements := CollectionAsserter(elementSorter, elementAsserter)
	return func(t TestingT, expected, actual Grouping[K, V]) {
		t.Helper()
		if !plain.Equal(expected.Key, actual.Key) {
			t.Errorf("grouping key mismatch: expected %s, got %s", describe(expected.Key), describe(actual.Key))
			return
		}
		elements(t, expected.Elements, actual.Elements)
	}
}

// CollectionSorter returns a function sorting a collection by elementSorter
func CollectionSorter[T any](elementSorter func(T) SortKey) func([]T) []T {
	if elementSorter == nil {
		elementSorter = sorterFor[T](plain)
	}
	return func(s []T) []T {
		return sortByKey(s, elementSorter)
	}
}

// CollectionAsserter compares two collections after sorting both with
// elementSorter. A nil elementSorter uses a structural key and a nil
// elementAsserter structural equality.
func CollectionAsserter[T any](elementSorter func(T) SortKey, elementAsserter func(t TestingT, expected, actual T)) func(t TestingT, expected, actual []T) {
	if elementSorter == nil {
		elementSorter = sorterFor[T](plain)
	}
	if elementAsserter == nil {
		elementAsserter = asserterFor[T](plain)
	}
	return func(t TestingT, expected, actual []T) {
		t.Helper()
		compareSequences(t, expected, actual, elementSorter, elementAsserter, false)
	}
}

// Maybe evaluates expr on caller, or yields nil when caller is nil. It
// mirrors the null propagation of a navigation whose target is missing.
func Maybe[C, R any](caller *C, expr func(*C) *R) *R {
	if caller == nil {
		return nil
	}
	return expr(caller)
}

// MaybeScalar is Maybe for scalar results, lifted to a nullable pointer
func MaybeScalar[C, R any](caller *C, expr func(*C) R) *R {
	if caller == nil {
		return nil
	}
	v := expr(caller)
	return &v
}

// MaybeSlice is Maybe for collection navigations; nil yields an empty slice
func MaybeSlice[C, R any](caller *C, expr func(*C) []R) []R {
	if caller == nil {
		return []R{}
	}
	return expr(caller)
}
