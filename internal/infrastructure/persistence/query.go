package persistence

import (
	"cmp"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/seq"
)

// Terminal operators execute a query built with Set or Session.DB. Element
// operators report the seq sentinels so provider and reference failures
// compare equal. Aggregates take a SQL expression over the query's rows and
// must not be combined with ORDER BY.

// ToList runs q and returns every row
func ToList[T any](q *gorm.DB) ([]T, error) {
	out := make([]T, 0)
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Element operators return a pointer into the materialized rows, so the
// caller edits the instance the session tracker is bound to. The OrDefault
// variants return nil when there is no row.

// First returns the first row of q
func First[T any](q *gorm.DB) (*T, error) {
	rows, err := ToList[T](q.Limit(1))
	if err != nil {
		return nil, err
	}
	if _, err := seq.First(rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// FirstOrDefault returns the first row of q or nil
func FirstOrDefault[T any](q *gorm.DB) (*T, error) {
	rows, err := ToList[T](q.Limit(1))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Single returns the only row of q
func Single[T any](q *gorm.DB) (*T, error) {
	rows, err := ToList[T](q.Limit(2))
	if err != nil {
		return nil, err
	}
	if _, err := seq.Single(rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// SingleOrDefault returns the only row of q, or nil when q is empty
func SingleOrDefault[T any](q *gorm.DB) (*T, error) {
	rows, err := ToList[T](q.Limit(2))
	if err != nil {
		return nil, err
	}
	if _, err := seq.SingleOrDefault(rows); err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Last returns the final row of q in its ORDER BY order
func Last[T any](q *gorm.DB) (*T, error) {
	rows, err := ToList[T](q)
	if err != nil {
		return nil, err
	}
	if _, err := seq.Last(rows); err != nil {
		return nil, err
	}
	return &rows[len(rows)-1], nil
}

// LastOrDefault returns the final row of q or nil
func LastOrDefault[T any](q *gorm.DB) (*T, error) {
	rows, err := ToList[T](q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[len(rows)-1], nil
}

// Deref turns the result of an element operator into a value, the zero
// value for nil
func Deref[T any](v *T, err error) (T, error) {
	if v == nil {
		var zero T
		return zero, err
	}
	return *v, err
}

// Count returns the number of rows in q
func Count(q *gorm.DB) (int, error) {
	n, err := LongCount(q)
	return int(n), err
}

// LongCount returns the number of rows in q as int64
func LongCount(q *gorm.DB) (int64, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Any reports whether q has rows
func Any(q *gorm.DB) (bool, error) {
	n, err := LongCount(q)
	return n > 0, err
}

// All reports whether every row of q satisfies the condition. Rows where the
// condition is NULL count as satisfying it, as NOT EXISTS translations do.
func All(q *gorm.DB, query any, args ...any) (bool, error) {
	n, err := LongCount(q.Not(query, args...))
	return n == 0, err
}

// Pluck returns one column of q
func Pluck[R any](q *gorm.DB, column string) ([]R, error) {
	out := make([]R, 0)
	if err := q.Pluck(column, &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Min returns the smallest value of expr over q
func Min[R cmp.Ordered](q *gorm.DB, expr string) (R, error) {
	v, err := aggregate[R](q, "MIN", expr)
	if err != nil {
		return v.V, err
	}
	if !v.Valid {
		return v.V, seq.ErrNoElements
	}
	return v.V, nil
}

// Max returns the largest value of expr over q
func Max[R cmp.Ordered](q *gorm.DB, expr string) (R, error) {
	v, err := aggregate[R](q, "MAX", expr)
	if err != nil {
		return v.V, err
	}
	if !v.Valid {
		return v.V, seq.ErrNoElements
	}
	return v.V, nil
}

// Sum adds expr over q. An empty q sums to zero.
func Sum[R seq.Number](q *gorm.DB, expr string) (R, error) {
	v, err := aggregate[R](q, "SUM", expr)
	return v.V, err
}

// SumDecimal adds a decimal expr over q
func SumDecimal(q *gorm.DB, expr string) (decimal.Decimal, error) {
	var v decimal.NullDecimal
	if err := scanAggregate(q, "SUM", expr, &v); err != nil {
		return decimal.Zero, err
	}
	if !v.Valid {
		return decimal.Zero, nil
	}
	return v.Decimal, nil
}

// Average returns the mean of expr over q
func Average(q *gorm.DB, expr string) (float64, error) {
	v, err := aggregate[float64](q, "AVG", expr)
	if err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, seq.ErrNoElements
	}
	return v.V, nil
}

func aggregate[R any](q *gorm.DB, fn, expr string) (sql.Null[R], error) {
	var v sql.Null[R]
	err := scanAggregate(q, fn, expr, &v)
	return v, err
}

func scanAggregate(q *gorm.DB, fn, expr string, dest any) error {
	row := q.Select(fmt.Sprintf("%s(%s)", fn, expr)).Row()
	if row == nil {
		return fmt.Errorf("%s(%s) returned no row", fn, expr)
	}
	return row.Scan(dest)
}
