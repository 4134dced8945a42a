package inheritance

import (
	"context"

	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/oracle"
)

// Name identifies the inheritance fixture
const Name = "inheritance"

type Fixture struct {
	data     *Dataset
	expected *fixture.ExpectedData
	registry *oracle.Registry
}

var _ fixture.Fixture = (*Fixture)(nil)

func NewFixture() *Fixture {
	data := Generate()
	wired := data.Expected()

	expected := oracle.NewExpectedData()
	oracle.Put(expected, wired.Bases)
	oracle.Put(expected, wired.Derived)
	oracle.Put(expected, wired.Leaves)
	oracle.Put(expected, wired.BaseItems)
	oracle.Put(expected, wired.DerivedItems)

	return &Fixture{data: data, expected: expected, registry: NewRegistry()}
}

func Factory(uint64) fixture.Fixture { return NewFixture() }

func (f *Fixture) Name() string { return Name }

func (f *Fixture) Version() string { return "v1" }

func (f *Fixture) Models() []any { return Models() }

// Seed writes each row through its own type so every hierarchy column is set
func (f *Fixture) Seed(ctx context.Context, db *gorm.DB) error {
	if err := fixture.Insert(ctx, db, f.data.Bases); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.Derived); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.Leaves); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.BaseItems); err != nil {
		return err
	}
	return fixture.Insert(ctx, db, f.data.DerivedItems)
}

func (f *Fixture) ExpectedData() *fixture.ExpectedData { return f.expected }

func (f *Fixture) Registry() *oracle.Registry { return f.registry }

func (f *Fixture) Data() *Dataset { return f.data }
