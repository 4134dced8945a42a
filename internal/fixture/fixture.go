// Package fixture seeds the shared stores the query scenarios read from and
// holds the in-memory copies those scenarios are evaluated against.
package fixture

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ormspec/queryspec/internal/oracle"
)

// ExpectedData is the in-memory mirror of a seeded store
type ExpectedData = oracle.ExpectedData

// Set returns a copy of the reference rows of T
func Set[T any](d *ExpectedData) []T {
	return oracle.Rows[T](d)
}

// Fixture describes one test model: its tables, how to seed them and the
// reference data and comparers scenarios use.
type Fixture interface {
	Name() string
	// Version identifies the generated dataset. A store seeded with another
	// version is rejected.
	Version() string
	Models() []any
	Seed(ctx context.Context, db *gorm.DB) error
	ExpectedData() *ExpectedData
	Registry() *oracle.Registry
}

// Factory builds a fixture for a dataset seed
type Factory func(seed uint64) Fixture

const insertBatchSize = 200

// Insert writes rows in batches. Associations are left to their own Insert.
func Insert[T any](ctx context.Context, db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	err := db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(slices.Clone(rows), insertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to insert %T rows: %w", rows[0], err)
	}
	return nil
}
