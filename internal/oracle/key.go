package oracle

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SortKey is a composite ordering key. Parts compare left to right.
type SortKey []any

// Key builds a SortKey from its parts. Pointer parts are dereferenced and a
// nil part orders before any value.
func Key(parts ...any) SortKey {
	return SortKey(parts)
}

// Compare orders k against other
func (k SortKey) Compare(other SortKey) int {
	for i := 0; i < len(k) && i < len(other); i++ {
		if c := compareParts(k[i], other[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(k), len(other))
}

func (k SortKey) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = fmt.Sprint(deref(reflect.ValueOf(p)))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	keyType     = reflect.TypeOf(SortKey{})
)

func deref(v reflect.Value) any {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func compareParts(a, b any) int {
	a, b = deref(reflect.ValueOf(a)), deref(reflect.ValueOf(b))
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case av.Type() == timeType && bv.Type() == timeType:
		return a.(time.Time).Compare(b.(time.Time))
	case av.Type() == decimalType && bv.Type() == decimalType:
		return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
	case av.Type() == keyType && bv.Type() == keyType:
		return a.(SortKey).Compare(b.(SortKey))
	}

	switch {
	case isInt(av) && isInt(bv):
		return cmp.Compare(av.Int(), bv.Int())
	case isUint(av) && isUint(bv):
		return cmp.Compare(av.Uint(), bv.Uint())
	case isNumber(av) && isNumber(bv):
		return cmp.Compare(toFloat(av), toFloat(bv))
	case av.Kind() == reflect.String && bv.Kind() == reflect.String:
		return strings.Compare(av.String(), bv.String())
	case av.Kind() == reflect.Bool && bv.Kind() == reflect.Bool:
		return cmp.Compare(boolRank(av.Bool()), boolRank(bv.Bool()))
	case (av.Kind() == reflect.Slice || av.Kind() == reflect.Array) && av.Kind() == bv.Kind():
		for i := 0; i < av.Len() && i < bv.Len(); i++ {
			if c := compareParts(av.Index(i).Interface(), bv.Index(i).Interface()); c != 0 {
				return c
			}
		}
		return cmp.Compare(av.Len(), bv.Len())
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sortByKey returns a stable sorted copy of s
func sortByKey[T any](s []T, key func(T) SortKey) []T {
	type keyed struct {
		key SortKey
		val T
	}
	tmp := make([]keyed, len(s))
	for i, v := range s {
		tmp[i] = keyed{key: key(v), val: v}
	}
	slices.SortStableFunc(tmp, func(a, b keyed) int { return a.key.Compare(b.key) })
	out := make([]T, len(s))
	for i, k := range tmp {
		out[i] = k.val
	}
	return out
}
