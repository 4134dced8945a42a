package persistence

import (
	"context"

	"gorm.io/gorm"
)

// Session is a unit of work over a Database. Queries issued through DB()
// feed the session tracker unless wrapped with NoTracking.
type Session struct {
	ctx     context.Context
	db      *gorm.DB
	tracker *Tracker
}

// DB returns a fresh query builder bound to the session
func (s *Session) DB() *gorm.DB {
	return s.db.Session(&gorm.Session{NewDB: true})
}

// Tracker returns the session identity map
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

// Context returns the context the session was opened with
func (s *Session) Context() context.Context {
	return s.ctx
}

// Discriminated is implemented by models sharing a table with other types
// of the same hierarchy. DiscriminatorValues lists the values that belong
// to the type, including those of its subtypes.
type Discriminated interface {
	DiscriminatorColumn() string
	DiscriminatorValues() []string
}

// Set starts a query over the rows of T, restricted to T's hierarchy slice
// when T is discriminated
func Set[T any](s *Session) *gorm.DB {
	q := s.DB().Model(new(T))
	d, ok := any(new(T)).(Discriminated)
	if !ok {
		return q
	}
	column := d.DiscriminatorColumn()
	if err := q.Statement.Parse(new(T)); err == nil {
		column = q.Statement.Table + "." + column
	}
	return q.Where(q.Statement.Quote(column)+" IN ?", d.DiscriminatorValues())
}
