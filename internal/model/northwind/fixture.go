package northwind

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/oracle"
)

// Name identifies the northwind fixture
const Name = "northwind"

// Fixture seeds and mirrors a generated northwind dataset
type Fixture struct {
	seed     uint64
	data     *Dataset
	expected *fixture.ExpectedData
	registry *oracle.Registry
}

var _ fixture.Fixture = (*Fixture)(nil)

// NewFixture generates the dataset for seed
func NewFixture(seed uint64) *Fixture {
	data := Generate(seed)
	wired := data.Expected()

	expected := oracle.NewExpectedData()
	oracle.Put(expected, wired.Customers)
	oracle.Put(expected, wired.Employees)
	oracle.Put(expected, wired.Products)
	oracle.Put(expected, wired.Orders)
	oracle.Put(expected, wired.OrderDetails)

	return &Fixture{
		seed:     seed,
		data:     data,
		expected: expected,
		registry: NewRegistry(),
	}
}

// Factory adapts NewFixture to fixture.Factory
func Factory(seed uint64) fixture.Fixture { return NewFixture(seed) }

func (f *Fixture) Name() string { return Name }

func (f *Fixture) Version() string { return fmt.Sprintf("seed-%d", f.seed) }

func (f *Fixture) Models() []any { return Models() }

func (f *Fixture) Seed(ctx context.Context, db *gorm.DB) error {
	if err := fixture.Insert(ctx, db, f.data.Customers); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.Employees); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.Products); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.Orders); err != nil {
		return err
	}
	return fixture.Insert(ctx, db, f.data.OrderDetails)
}

func (f *Fixture) ExpectedData() *fixture.ExpectedData { return f.expected }

func (f *Fixture) Registry() *oracle.Registry { return f.registry }

// Data returns the generated rows without navigations
func (f *Fixture) Data() *Dataset { return f.data }
