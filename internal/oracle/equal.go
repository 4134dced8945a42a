package oracle

import (
	"math"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

const floatTolerance = 1e-9

// Equal reports structural equality of expected and actual. Decimals and
// times compare by value, floats within a relative tolerance, nil and empty
// slices are equal, and values of registered entity types are compared with
// their registered asserter.
func (r *Registry) Equal(expected, actual any) bool {
	return r.equal(reflect.ValueOf(expected), reflect.ValueOf(actual))
}

func (r *Registry) equal(e, a reflect.Value) bool {
	if !e.IsValid() || !a.IsValid() {
		return isNilish(e) && isNilish(a)
	}
	if e.Type() != a.Type() {
		return false
	}

	switch e.Type() {
	case timeType:
		return e.Interface().(time.Time).Equal(a.Interface().(time.Time))
	case decimalType:
		return e.Interface().(decimal.Decimal).Equal(a.Interface().(decimal.Decimal))
	}
	if entry, ok := r.lookup(e.Type()); ok && e.CanInterface() && a.CanInterface() {
		ev, av := e.Interface(), a.Interface()
		return passes(func(t TestingT) { entry.assert(t, ev, av) })
	}

	switch e.Kind() {
	case reflect.Ptr, reflect.Interface:
		if e.IsNil() || a.IsNil() {
			return e.IsNil() && a.IsNil()
		}
		return r.equal(e.Elem(), a.Elem())
	case reflect.Struct:
		for i := 0; i < e.NumField(); i++ {
			if !e.Type().Field(i).IsExported() {
				continue
			}
			if !r.equal(e.Field(i), a.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if e.Len() != a.Len() {
			return false
		}
		for i := 0; i < e.Len(); i++ {
			if !r.equal(e.Index(i), a.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if e.Len() != a.Len() {
			return false
		}
		iter := e.MapRange()
		for iter.Next() {
			av := a.MapIndex(iter.Key())
			if !av.IsValid() || !r.equal(iter.Value(), av) {
				return false
			}
		}
		return true
	case reflect.Float32, reflect.Float64:
		return floatsEqual(e.Float(), a.Float())
	case reflect.Func, reflect.Chan:
		return e.IsNil() && a.IsNil()
	}
	if e.CanInterface() && a.CanInterface() {
		return e.Interface() == a.Interface()
	}
	return false
}

func isNilish(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	case reflect.Slice:
		return v.Len() == 0
	}
	return false
}

func floatsEqual(e, a float64) bool {
	if e == a {
		return true
	}
	if math.IsNaN(e) || math.IsNaN(a) {
		return math.IsNaN(e) && math.IsNaN(a)
	}
	scale := math.Max(1, math.Max(math.Abs(e), math.Abs(a)))
	return math.Abs(e-a) <= floatTolerance*scale
}
