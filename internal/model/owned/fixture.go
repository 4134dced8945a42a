package owned

import (
	"context"

	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/oracle"
)

// Name identifies the owned fixture
const Name = "owned"

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
	oracle.Put(expected, wired.People)
	oracle.Put(expected, wired.Branches)
	oracle.Put(expected, wired.LeafAs)
	oracle.Put(expected, wired.LeafBs)
	oracle.Put(expected, wired.Orders)

	return &Fixture{data: data, expected: expected, registry: NewRegistry()}
}

func Factory(uint64) fixture.Fixture { return NewFixture() }

func (f *Fixture) Name() string { return Name }

func (f *Fixture) Version() string { return "v1" }

func (f *Fixture) Models() []any { return Models() }

func (f *Fixture) Seed(ctx context.Context, db *gorm.DB) error {
	if err := fixture.Insert(ctx, db, f.data.People); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.Branches); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.LeafAs); err != nil {
		return err
	}
	if err := fixture.Insert(ctx, db, f.data.LeafBs); err != nil {
		return err
	}
	return fixture.Insert(ctx, db, f.data.Orders)
}

func (f *Fixture) ExpectedData() *fixture.ExpectedData { return f.expected }

func (f *Fixture) Registry() *oracle.Registry { return f.registry }

func (f *Fixture) Data() *Dataset { return f.data }
