package oracle

import (
	"context"
	"reflect"
	"strings"
)

// AssertIncludeQuery is AssertQuery for entity results loaded with eager
// navigations. For every Include path the related entities reachable on
// the actual side must match those on the expected side.
func AssertIncludeQuery[T any](t TestingT, a *Asserter, actual ActualQuery[T], expected ExpectedQuery[T], opts ...QueryOption) {
	t.Helper()
	o := newQueryOptions(opts)
	a.run(t, "AssertIncludeQuery", func(ctx context.Context, t TestingT) int {
		if len(o.includes) == 0 {
			t.Errorf("AssertIncludeQuery needs at least one Include path")
		}
		return assertSequence(ctx, t, a, actual, expected, o, true)
	})
}

func withIncludes[R any](r *Registry, base func(t TestingT, expected, actual R), paths []string) func(t TestingT, expected, actual R) {
	return func(t TestingT, expected, actual R) {
		t.Helper()
		base(t, expected, actual)
		for _, p := range paths {
			r.assertPath(t, p, reflect.ValueOf(expected), reflect.ValueOf(actual), strings.Split(p, "."))
		}
	}
}

func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

// assertPath follows segs from e and a in lockstep, checking each related
// entity on the way
func (r *Registry) assertPath(t TestingT, path string, e, a reflect.Value, segs []string) {
	t.Helper()
	if len(segs) == 0 {
		return
	}
	e, eok := indirect(e)
	a, aok := indirect(a)
	if !eok || !aok {
		if eok != aok {
			t.Errorf("include %s: expected present=%t, actual present=%t", path, eok, aok)
		}
		return
	}
	if e.Kind() != reflect.Struct {
		t.Errorf("include %s: %s is not an entity", path, e.Type())
		return
	}

	fe, fa := e.FieldByName(segs[0]), a.FieldByName(segs[0])
	if !fe.IsValid() || !fa.IsValid() {
		t.Errorf("include %s: %s has no navigation %s", path, e.Type(), segs[0])
		return
	}

	switch fe.Kind() {
	case reflect.Slice:
		if fe.Len() != fa.Len() {
			t.Errorf("include %s: expected %d related entities, got %d", path, fe.Len(), fa.Len())
			return
		}
		want := r.sortValues(fe)
		got := r.sortValues(fa)
		for i := range want {
			r.assertValue(t, path, want[i], got[i])
			r.assertPath(t, path, want[i], got[i], segs[1:])
		}
	default:
		ie, eok := indirect(fe)
		ia, aok := indirect(fa)
		if eok != aok {
			t.Errorf("include %s: expected loaded=%t, actual loaded=%t", path, eok, aok)
			return
		}
		if !eok {
			return
		}
		r.assertValue(t, path, ie, ia)
		r.assertPath(t, path, ie, ia, segs[1:])
	}
}

func (r *Registry) keyOf(v reflect.Value) SortKey {
	if iv, ok := indirect(v); ok {
		if e, found := r.lookup(iv.Type()); found {
			return e.sortKey(iv.Interface())
		}
	}
	return r.structuralKey(v, 0)
}

func (r *Registry) sortValues(slice reflect.Value) []reflect.Value {
	out := make([]reflect.Value, slice.Len())
	for i := range out {
		out[i] = slice.Index(i)
	}
	return sortByKey(out, r.keyOf)
}

func (r *Registry) assertValue(t TestingT, path string, e, a reflect.Value) {
	t.Helper()
	ie, eok := indirect(e)
	ia, aok := indirect(a)
	if eok != aok {
		t.Errorf("include %s: expected present=%t, actual present=%t", path, eok, aok)
		return
	}
	if !eok {
		return
	}
	if entry, ok := r.lookup(ie.Type()); ok {
		entry.assert(t, ie.Interface(), ia.Interface())
		return
	}
	if !r.Equal(ie.Interface(), ia.Interface()) {
		t.Errorf("include %s: expected %s, got %s", path, describe(ie.Interface()), describe(ia.Interface()))
	}
}
