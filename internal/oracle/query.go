package oracle

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
)

// maxReported bounds the element mismatches reported per assertion
const maxReported = 10

// ActualQuery produces a result sequence from the store under test
type ActualQuery[R any] func(s *persistence.Session) ([]R, error)

// ExpectedQuery produces the reference result sequence
type ExpectedQuery[R any] func(d *ExpectedData) []R

// ActualResult produces a single value from the store under test
type ActualResult[R any] func(s *persistence.Session) (R, error)

// ExpectedResult produces the reference single value. An error is the
// failure the actual side must reproduce.
type ExpectedResult[R any] func(d *ExpectedData) (R, error)

// From builds an actual query over the entity set of T
func From[T, R any](q func(set *gorm.DB) ([]R, error)) ActualQuery[R] {
	return func(s *persistence.Session) ([]R, error) {
		return q(persistence.Set[T](s))
	}
}

// From2 builds an actual query over two entity sets
func From2[T1, T2, R any](q func(a, b *gorm.DB) ([]R, error)) ActualQuery[R] {
	return func(s *persistence.Session) ([]R, error) {
		return q(persistence.Set[T1](s), persistence.Set[T2](s))
	}
}

// From3 builds an actual query over three entity sets
func From3[T1, T2, T3, R any](q func(a, b, c *gorm.DB) ([]R, error)) ActualQuery[R] {
	return func(s *persistence.Session) ([]R, error) {
		return q(persistence.Set[T1](s), persistence.Set[T2](s), persistence.Set[T3](s))
	}
}

// Over builds an expected query over the reference rows of T
func Over[T, R any](q func(rows []T) []R) ExpectedQuery[R] {
	return func(d *ExpectedData) []R {
		return q(Rows[T](d))
	}
}

// Over2 builds an expected query over two reference collections
func Over2[T1, T2, R any](q func(a []T1, b []T2) []R) ExpectedQuery[R] {
	return func(d *ExpectedData) []R {
		return q(Rows[T1](d), Rows[T2](d))
	}
}

// Over3 builds an expected query over three reference collections
func Over3[T1, T2, T3, R any](q func(a []T1, b []T2, c []T3) []R) ExpectedQuery[R] {
	return func(d *ExpectedData) []R {
		return q(Rows[T1](d), Rows[T2](d), Rows[T3](d))
	}
}

// FromResult builds an actual single-value query over the entity set of T
func FromResult[T, R any](q func(set *gorm.DB) (R, error)) ActualResult[R] {
	return func(s *persistence.Session) (R, error) {
		return q(persistence.Set[T](s))
	}
}

// OverResult builds an expected single-value query over the rows of T
func OverResult[T, R any](q func(rows []T) (R, error)) ExpectedResult[R] {
	return func(d *ExpectedData) (R, error) {
		return q(Rows[T](d))
	}
}

// Value lifts an infallible reference computation into an ExpectedResult
func Value[T, R any](q func(rows []T) R) ExpectedResult[R] {
	return func(d *ExpectedData) (R, error) {
		return q(Rows[T](d)), nil
	}
}

// QueryOption adjusts a single assertion
type QueryOption func(*queryOptions)

type queryOptions struct {
	sorter      any
	asserter    any
	assertOrder bool
	entryCount  int
	includes    []string
}

func newQueryOptions(opts []QueryOption) queryOptions {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ElementSorter sets the key results are ordered by before comparison
func ElementSorter[R any](f func(R) SortKey) QueryOption {
	return func(o *queryOptions) { o.sorter = f }
}

// ElementAsserter sets the comparison applied to each pair of results
func ElementAsserter[R any](f func(t TestingT, expected, actual R)) QueryOption {
	return func(o *queryOptions) { o.asserter = f }
}

// AssertOrder compares results positionally instead of sorting them
func AssertOrder() QueryOption {
	return func(o *queryOptions) { o.assertOrder = true }
}

// EntryCount sets the number of distinct entities the actual query must
// leave tracked
func EntryCount(n int) QueryOption {
	return func(o *queryOptions) { o.entryCount = n }
}

// Include adds a dotted navigation path whose loaded entities
// AssertIncludeQuery verifies
func Include(path string) QueryOption {
	return func(o *queryOptions) { o.includes = append(o.includes, path) }
}

func resolveSorter[R any](t TestingT, r *Registry, o queryOptions) func(R) SortKey {
	t.Helper()
	if o.sorter != nil {
		if f, ok := o.sorter.(func(R) SortKey); ok {
			return f
		}
		t.Errorf("element sorter %T does not accept the result type", o.sorter)
	}
	return sorterFor[R](r)
}

func resolveAsserter[R any](t TestingT, r *Registry, o queryOptions) func(t TestingT, expected, actual R) {
	t.Helper()
	if o.asserter != nil {
		if f, ok := o.asserter.(func(t TestingT, expected, actual R)); ok {
			return f
		}
		t.Errorf("element asserter %T does not accept the result type", o.asserter)
	}
	return asserterFor[R](r)
}

// AssertQuery runs actual and expected, orders both sides unless
// AssertOrder is given, and compares them element by element
func AssertQuery[R any](t TestingT, a *Asserter, actual ActualQuery[R], expected ExpectedQuery[R], opts ...QueryOption) {
	t.Helper()
	o := newQueryOptions(opts)
	a.run(t, "AssertQuery", func(ctx context.Context, t TestingT) int {
		return assertSequence(ctx, t, a, actual, expected, o, true)
	})
}

// AssertQueryScalar is AssertQuery for sequences of scalar values. Tracked
// entities are not checked.
func AssertQueryScalar[R any](t TestingT, a *Asserter, actual ActualQuery[R], expected ExpectedQuery[R], opts ...QueryOption) {
	t.Helper()
	o := newQueryOptions(opts)
	a.run(t, "AssertQueryScalar", func(ctx context.Context, t TestingT) int {
		return assertSequence(ctx, t, a, actual, expected, o, false)
	})
}

func assertSequence[R any](ctx context.Context, t TestingT, a *Asserter, actual ActualQuery[R], expected ExpectedQuery[R], o queryOptions, countEntries bool) int {
	t.Helper()
	sorter := resolveSorter[R](t, a.registry, o)
	asserter := resolveAsserter[R](t, a.registry, o)
	if len(o.includes) > 0 {
		asserter = withIncludes(a.registry, asserter, o.includes)
	}

	got, s, err := execute(a, ctx, func(s *persistence.Session) ([]R, error) { return actual(s) })
	if err != nil {
		t.Errorf("actual query failed: %v", err)
		return s.Tracker().Count()
	}
	want := expected(a.expected)

	tracked := s.Tracker().Count()
	if countEntries {
		tracked = a.checkEntryCount(t, s, o.entryCount)
	}
	compareSequences(t, want, got, sorter, asserter, o.assertOrder)
	return tracked
}

// compareSequences checks want and got for equal length and pairwise
// equality. Unordered comparison sorts both sides by sorter and matches runs
// of equal keys as multisets.
func compareSequences[R any](t TestingT, want, got []R, sorter func(R) SortKey, asserter func(t TestingT, expected, actual R), ordered bool) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("result count mismatch: expected %d, got %d", len(want), len(got))
		return
	}

	reported := 0
	report := func(idx int, e, a R) bool {
		rec := Capture(func(pt TestingT) { asserter(pt, e, a) })
		if !rec.Failed() {
			return true
		}
		if reported < maxReported {
			t.Errorf("element %d differs: %s", idx, strings.Join(rec.Failures(), "; "))
		}
		reported++
		return false
	}

	if ordered {
		for i := range want {
			report(i, want[i], got[i])
		}
		return
	}

	want = sortByKey(want, sorter)
	got = sortByKey(got, sorter)
	keys := make([]SortKey, len(want))
	for i, v := range want {
		keys[i] = sorter(v)
	}

	for i := 0; i < len(want); {
		j := i + 1
		for j < len(want) && keys[j].Compare(keys[i]) == 0 {
			j++
		}
		if j-i == 1 {
			report(i, want[i], got[i])
			i = j
			continue
		}
		used := make([]bool, j-i)
		var unmatched []int
		for wi := i; wi < j; wi++ {
			matched := false
			for gi := i; gi < j; gi++ {
				if used[gi-i] {
					continue
				}
				e, g := want[wi], got[gi]
				if passes(func(pt TestingT) { asserter(pt, e, g) }) {
					used[gi-i] = true
					matched = true
					break
				}
			}
			if !matched {
				unmatched = append(unmatched, wi)
			}
		}
		// pair what is left on both sides; none of these pairs can pass
		for _, wi := range unmatched {
			gi := i
			for used[gi-i] {
				gi++
			}
			used[gi-i] = true
			if reported < maxReported {
				t.Errorf("element %d differs: expected %s has no match among equal keys, left over %s",
					wi, describe(want[wi]), describe(got[gi]))
			}
			reported++
		}
		i = j
	}
	if reported > maxReported {
		t.Errorf("%d more elements differ", reported-maxReported)
	}
}

// AssertSingleResult compares a single value. When the expected side fails
// the actual side must fail with an error matching it.
func AssertSingleResult[R any](t TestingT, a *Asserter, actual ActualResult[R], expected ExpectedResult[R], opts ...QueryOption) {
	t.Helper()
	o := newQueryOptions(opts)
	a.run(t, "AssertSingleResult", func(ctx context.Context, t TestingT) int {
		return assertSingle(ctx, t, a, actual, expected, o)
	})
}

func assertSingle[R any](ctx context.Context, t TestingT, a *Asserter, actual ActualResult[R], expected ExpectedResult[R], o queryOptions) int {
	t.Helper()
	asserter := resolveAsserter[R](t, a.registry, o)
	if len(o.includes) > 0 {
		asserter = withIncludes(a.registry, asserter, o.includes)
	}

	got, s, actualErr := execute(a, ctx, func(s *persistence.Session) (R, error) { return actual(s) })
	want, expectedErr := expected(a.expected)

	switch {
	case expectedErr != nil && actualErr == nil:
		t.Errorf("expected failure %q, actual query returned %s", expectedErr, describe(got))
	case expectedErr != nil && !errors.Is(actualErr, expectedErr):
		t.Errorf("failure mismatch: expected %q, got %q", expectedErr, actualErr)
	case expectedErr == nil && actualErr != nil:
		t.Errorf("actual query failed: %v", actualErr)
	case expectedErr == nil:
		asserter(t, want, got)
	}
	return a.checkEntryCount(t, s, o.entryCount)
}

// AssertFailsWith requires both sides to fail with an error matching target
func AssertFailsWith[R any](t TestingT, a *Asserter, actual ActualResult[R], expected ExpectedResult[R], target error) {
	t.Helper()
	a.run(t, "AssertFailsWith", func(ctx context.Context, t TestingT) int {
		_, s, actualErr := execute(a, ctx, func(s *persistence.Session) (R, error) { return actual(s) })
		_, expectedErr := expected(a.expected)
		if !errors.Is(expectedErr, target) {
			t.Errorf("expected query: want failure %q, got %v", target, expectedErr)
		}
		if !errors.Is(actualErr, target) {
			t.Errorf("actual query: want failure %q, got %v", target, actualErr)
		}
		return s.Tracker().Count()
	})
}
