package oracle

import (
	"reflect"
	"slices"
	"sync"
)

// ExpectedData is the in-memory mirror of a seeded store, one collection per
// entity type. Navigations of the stored values are wired so reference
// queries can traverse them.
type ExpectedData struct {
	mu   sync.RWMutex
	sets map[reflect.Type]any
}

// NewExpectedData creates an empty dataset
func NewExpectedData() *ExpectedData {
	return &ExpectedData{sets: make(map[reflect.Type]any)}
}

// Put stores the collection for T, replacing any previous one
func Put[T any](d *ExpectedData, rows []T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sets[reflect.TypeFor[T]()] = rows
}

// Rows returns a copy of the collection for T. A type that was never put
// yields an empty collection.
func Rows[T any](d *ExpectedData) []T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rows, _ := d.sets[reflect.TypeFor[T]()].([]T)
	if rows == nil {
		return []T{}
	}
	return slices.Clone(rows)
}

// Merge adds every collection of other to d
func (d *ExpectedData) Merge(other *ExpectedData) {
	if other == nil || other == d {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, v := range other.sets {
		d.sets[k] = v
	}
}
