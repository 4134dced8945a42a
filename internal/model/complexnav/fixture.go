package complexnav

import (
	"context"

	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/oracle"
)

// Name identifies the complex navigation fixture
const Name = "complexnav"

type Fixture struct {
	data     *Dataset
	expected *fixture.ExpectedData
	registry *oracle.Registry
}

var _ fixture.Fixture = (*Fixture)(nil)

// NewFixture builds the fixture. The dataset is fixed, so the seed is ignored.
func NewFixture() *Fixture {
	data := Generate()
	wired := data.Expected()

	expected := oracle.NewExpectedData()
	oracle.Put(expected, wired.Level1)
	oracle.Put(expected, wired.Level2)
	oracle.Put(expected, wired.Level3)
	oracle.Put(expected, wired.Level4)

	return &Fixture{data: data, expected: expected, registry: NewRegistry()}
}

func Factory(uint64) fixture.Fixture { return NewFixture() }

func (f *Fixture) Name() string { return Name }

func (f *Fixture) Version() string { return "v1" }

func (f *Fixture) Models() []any { return Models() }

func (f *Fixture) Seed(ctx context.Context, db *gorm.DB) error {
	if err := fixture.Insert(ctx, db, f.data.Level1); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.Level2); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.Level3); err != nil {
		return err
	}
	return fixture.Insert(ctx, db, f.data.Level4)
}

func (f *Fixture) ExpectedData() *fixture.ExpectedData { return f.expected }

func (f *Fixture) Registry() *oracle.Registry { return f.registry }

func (f *Fixture) Data() *Dataset { return f.data }
