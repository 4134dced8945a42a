package fixture_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/infrastructure/lock"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/testutil"
)

type widget struct {
	ID   int `gorm:"primaryKey;autoIncrement:false"`
	Name string
}

type widgetFixture struct {
	version string
	seedErr error

	mu    sync.Mutex
	seeds int
}

func (f *widgetFixture) Name() string    { return "widgets" }
func (f *widgetFixture) Version() string { return f.version }
func (f *widgetFixture) Models() []any   { return []any{&widget{}} }

func (f *widgetFixture) Seed(ctx context.Context, db *gorm.DB) error {
	f.mu.Lock()
	f.seeds++
	f.mu.Unlock()
	if err := fixture.Insert(ctx, db, []widget{{ID: 1, Name: "bolt"}, {ID: 2, Name: "nut"}}); err != nil {
		return err
	}
	return f.seedErr
}

func (f *widgetFixture) ExpectedData() *fixture.ExpectedData {
	d := oracle.NewExpectedData()
	oracle.Put(d, []widget{{ID: 1, Name: "bolt"}, {ID: 2, Name: "nut"}})
	return d
}

func (f *widgetFixture) Registry() *oracle.Registry { return oracle.NewRegistry() }

func (f *widgetFixture) seedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seeds
}

func TestSharedStore_LockKey(t *testing.T) {
	s := fixture.NewSharedStore("sqlite", nil, 0, nil)
	assert.Equal(t, "queryspec:seed:sqlite:northwind", s.LockKey("northwind"))
}

func TestSharedStore_EnsureSeedsOnce(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDatabase(t)
	fx := &widgetFixture{version: "v1"}

	core, logs := observer.New(zapcore.InfoLevel)
	s := fixture.NewSharedStore("sqlite", lock.NewLocalLocker(), 0, zap.New(core))
	require.NoError(t, s.Ensure(ctx, db, fx))
	require.NoError(t, s.Ensure(ctx, db, fx))

	// a second store over the same database finds the marker
	other := fixture.NewSharedStore("sqlite", nil, 0, nil)
	require.NoError(t, other.Ensure(ctx, db, fx))

	assert.Equal(t, 1, fx.seedCount())
	assert.Equal(t, 1, logs.FilterMessage("fixture seeded").Len())

	var n int64
	require.NoError(t, db.DB.Model(&widget{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestSharedStore_ConcurrentEnsure(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDatabase(t)
	fx := &widgetFixture{version: "v1"}
	locker := lock.NewLocalLocker()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fixture.NewSharedStore("sqlite", locker, 0, nil).Ensure(ctx, db, fx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, fx.seedCount())
}

func TestSharedStore_VersionMismatch(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDatabase(t)

	require.NoError(t, fixture.NewSharedStore("sqlite", nil, 0, nil).Ensure(ctx, db, &widgetFixture{version: "v1"}))

	err := fixture.NewSharedStore("sqlite", nil, 0, nil).Ensure(ctx, db, &widgetFixture{version: "v2"})
	assert.ErrorIs(t, err, fixture.ErrVersionMismatch)
}

func TestSharedStore_SeedFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDatabase(t)
	boom := errors.New("boom")

	err := fixture.NewSharedStore("sqlite", nil, 0, nil).Ensure(ctx, db, &widgetFixture{version: "v1", seedErr: boom})
	require.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, db.DB.Model(&widget{}).Count(&n).Error)
	assert.Zero(t, n)

	var markers int64
	require.NoError(t, db.DB.Model(&fixture.SeedMarker{}).Count(&markers).Error)
	assert.Zero(t, markers)

	// a later attempt seeds normally
	fx := &widgetFixture{version: "v1"}
	require.NoError(t, fixture.NewSharedStore("sqlite", nil, 0, nil).Ensure(ctx, db, fx))
	assert.Equal(t, 1, fx.seedCount())
}

func TestSet_ReturnsCopy(t *testing.T) {
	d := (&widgetFixture{}).ExpectedData()
	rows := fixture.Set[widget](d)
	rows[0].Name = "changed"
	assert.Equal(t, "bolt", fixture.Set[widget](d)[0].Name)
}
