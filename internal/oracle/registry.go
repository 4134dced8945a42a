package oracle

import (
	"fmt"
	"reflect"
	"sync"
)

type entityEntry struct {
	sortKey func(v any) SortKey
	assert  func(t TestingT, expected, actual any)
}

// Registry holds the default sorter and asserter of each entity type. The
// oracle falls back to them when an assertion supplies none.
type Registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]entityEntry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[reflect.Type]entityEntry)}
}

// RegisterEntity sets the sorter and asserter for T. Both apply to T values
// and to *T results.
func RegisterEntity[T any](r *Registry, sorter func(T) SortKey, asserter func(t TestingT, expected, actual T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[reflect.TypeFor[T]()] = entityEntry{
		sortKey: func(v any) SortKey { return sorter(v.(T)) },
		assert: func(t TestingT, expected, actual any) {
			t.Helper()
			asserter(t, expected.(T), actual.(T))
		},
	}
}

// Merge copies every entry of other into r
func (r *Registry) Merge(other *Registry) {
	if other == nil || other == r {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range other.entries {
		r.entries[k] = v
	}
}

// Registered reports whether T has an entry
func Registered[T any](r *Registry) bool {
	_, ok := r.lookup(reflect.TypeFor[T]())
	return ok
}

func (r *Registry) lookup(t reflect.Type) (entityEntry, bool) {
	if r == nil {
		return entityEntry{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[t]
	return e, ok
}

// sorterFor resolves the default sort key of R: the registered entity
// sorter, through one pointer if needed, or a structural key.
func sorterFor[R any](r *Registry) func(R) SortKey {
	t := reflect.TypeFor[R]()
	if e, ok := r.lookup(t); ok {
		return func(v R) SortKey { return e.sortKey(v) }
	}
	if t.Kind() == reflect.Ptr {
		if e, ok := r.lookup(t.Elem()); ok {
			return func(v R) SortKey {
				rv := reflect.ValueOf(v)
				if rv.IsNil() {
					return Key(nil)
				}
				return e.sortKey(rv.Elem().Interface())
			}
		}
	}
	return func(v R) SortKey { return r.structuralKey(reflect.ValueOf(v), 0) }
}

// asserterFor resolves the default element asserter of R
func asserterFor[R any](r *Registry) func(t TestingT, expected, actual R) {
	t := reflect.TypeFor[R]()
	if e, ok := r.lookup(t); ok {
		return func(tt TestingT, expected, actual R) {
			tt.Helper()
			e.assert(tt, expected, actual)
		}
	}
	if t.Kind() == reflect.Ptr {
		if e, ok := r.lookup(t.Elem()); ok {
			return func(tt TestingT, expected, actual R) {
				tt.Helper()
				ev, av := reflect.ValueOf(expected), reflect.ValueOf(actual)
				if ev.IsNil() || av.IsNil() {
					if ev.IsNil() != av.IsNil() {
						tt.Errorf("expected %v, got %v", expected, actual)
					}
					return
				}
				e.assert(tt, ev.Elem().Interface(), av.Elem().Interface())
			}
		}
	}
	return func(tt TestingT, expected, actual R) {
		tt.Helper()
		if !r.Equal(expected, actual) {
			tt.Errorf("element mismatch:\nexpected: %s\nactual:   %s", describe(expected), describe(actual))
		}
	}
}

// structuralKey flattens scalar leaves of v into a key. Registered entities
// contribute their own sort key.
func (r *Registry) structuralKey(v reflect.Value, depth int) SortKey {
	if depth > 4 {
		return nil
	}
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return Key(nil)
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return Key(nil)
	}
	if e, ok := r.lookup(v.Type()); ok && v.CanInterface() {
		return e.sortKey(v.Interface())
	}
	switch v.Type() {
	case timeType, decimalType:
		return Key(v.Interface())
	}
	switch v.Kind() {
	case reflect.Struct:
		var k SortKey
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			k = append(k, r.structuralKey(v.Field(i), depth+1))
		}
		return k
	case reflect.Slice, reflect.Array:
		var k SortKey
		for i := 0; i < v.Len(); i++ {
			k = append(k, r.structuralKey(v.Index(i), depth+1))
		}
		return k
	case reflect.Map, reflect.Func, reflect.Chan:
		return Key(v.Type().String())
	}
	if v.CanInterface() {
		return Key(v.Interface())
	}
	return nil
}

func describe(v any) string {
	return fmt.Sprintf("%+v", v)
}
