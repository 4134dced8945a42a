package spatial

import (
	"context"

	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/oracle"
)

// Name identifies the spatial fixture
const Name = "spatial"

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
	oracle.Put(expected, wired.Points)
	oracle.Put(expected, wired.LineStrings)

	return &Fixture{data: data, expected: expected, registry: NewRegistry()}
}

func Factory(uint64) fixture.Fixture { return NewFixture() }

func (f *Fixture) Name() string { return Name }

func (f *Fixture) Version() string { return "v1" }

func (f *Fixture) Models() []any { return Models() }

func (f *Fixture) Seed(ctx context.Context, db *gorm.DB) error {
	if err := fixture.Insert(ctx, db, f.data.Points); err != nil {
		return err
	}
	return fixture.Insert(ctx, db, f.data.LineStrings)
}

func (f *Fixture) ExpectedData() *fixture.ExpectedData { return f.expected }

func (f *Fixture) Registry() *oracle.Registry { return f.registry }
