package persistence

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/seq"
)

type shopCustomer struct {
	ID     string `gorm:"primaryKey"`
	City   string
	Orders []shopOrder `gorm:"foreignKey:CustomerID"`
}

type shopOrder struct {
	ID         int `gorm:"primaryKey;autoIncrement:false"`
	CustomerID string
	Freight    float64
	Note       *string
	Customer   *shopCustomer
}

func newShopDatabase(t *testing.T) *Database {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := Open(sqlite.Open(dsn), Options{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.RegisterModels(&shopCustomer{}, &shopOrder{}))
	require.NoError(t, db.AutoMigrate(context.Background()))

	note := "fragile"
	customers := []shopCustomer{{ID: "ALFKI", City: "Berlin"}, {ID: "BONAP", City: "Marseille"}, {ID: "FISSA", City: "Madrid"}}
	orders := []shopOrder{
		{ID: 10248, CustomerID: "ALFKI", Freight: 32.38},
		{ID: 10249, CustomerID: "ALFKI", Freight: 11.61, Note: &note},
		{ID: 10250, CustomerID: "BONAP", Freight: 65.83},
		{ID: 10251, CustomerID: "BONAP", Freight: 41.34},
		{ID: 10252, CustomerID: "BONAP", Freight: 51.30},
	}
	require.NoError(t, db.DB.Create(&customers).Error)
	require.NoError(t, db.DB.Create(&orders).Error)
	return db
}

func TestTracker_SeedingIsNotTracked(t *testing.T) {
	db := newShopDatabase(t)
	s := db.NewSession(context.Background())
	assert.Zero(t, s.Tracker().Count())
}

func TestTracker_CountsDistinctEntities(t *testing.T) {
	db := newShopDatabase(t)
	ctx := context.Background()

	t.Run("plain query", func(t *testing.T) {
		s := db.NewSession(ctx)
		orders, err := ToList[shopOrder](Set[shopOrder](s))
		require.NoError(t, err)
		assert.Len(t, orders, 5)
		assert.Equal(t, 5, s.Tracker().Count())
	})

	t.Run("repeated reads resolve to one entry", func(t *testing.T) {
		s := db.NewSession(ctx)
		_, err := ToList[shopOrder](Set[shopOrder](s))
		require.NoError(t, err)
		_, err = First[shopOrder](Set[shopOrder](s).Order("id"))
		require.NoError(t, err)
		assert.Equal(t, 5, s.Tracker().Count())
	})

	t.Run("preloaded collections", func(t *testing.T) {
		s := db.NewSession(ctx)
		customers, err := ToList[shopCustomer](Set[shopCustomer](s).Preload("Orders"))
		require.NoError(t, err)
		assert.Len(t, customers, 3)
		assert.Equal(t, 8, s.Tracker().Count())
		assert.Equal(t, 5, s.Tracker().CountOf("shop_orders"))
	})

	t.Run("joined references", func(t *testing.T) {
		s := db.NewSession(ctx)
		orders, err := ToList[shopOrder](Set[shopOrder](s).Joins("Customer"))
		require.NoError(t, err)
		require.Len(t, orders, 5)
		assert.NotNil(t, orders[0].Customer)
		assert.Equal(t, 7, s.Tracker().Count())
	})

	t.Run("join without navigation fill", func(t *testing.T) {
		s := db.NewSession(ctx)
		customers, err := ToList[shopCustomer](Set[shopCustomer](s).
			Select("shop_customers.*").
			Joins("JOIN shop_orders ON shop_orders.customer_id = shop_customers.id"))
		require.NoError(t, err)
		assert.Len(t, customers, 5)
		assert.Equal(t, 2, s.Tracker().Count())
	})

	t.Run("no tracking", func(t *testing.T) {
		s := db.NewSession(ctx)
		customers, err := ToList[shopCustomer](NoTracking(Set[shopCustomer](s).Preload("Orders")))
		require.NoError(t, err)
		assert.Len(t, customers, 3)
		assert.Zero(t, s.Tracker().Count())
	})

	t.Run("projections", func(t *testing.T) {
		s := db.NewSession(ctx)
		var cities []string
		require.NoError(t, Set[shopCustomer](s).Pluck("city", &cities).Error)

		type freightRow struct {
			CustomerID string
			Total      float64
		}
		var rows []freightRow
		require.NoError(t, Set[shopOrder](s).Select("customer_id, SUM(freight) AS total").Group("customer_id").Scan(&rows).Error)

		assert.Len(t, cities, 3)
		assert.Len(t, rows, 2)
		assert.Zero(t, s.Tracker().Count())
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		first := db.NewSession(ctx)
		second := db.NewSession(ctx)
		_, err := ToList[shopCustomer](Set[shopCustomer](first))
		require.NoError(t, err)
		assert.Equal(t, 3, first.Tracker().Count())
		assert.Zero(t, second.Tracker().Count())
	})
}

func TestTracker_DetectChanges(t *testing.T) {
	db := newShopDatabase(t)
	s := db.NewSession(context.Background())

	customers, err := ToList[shopCustomer](Set[shopCustomer](s).Preload("Orders").Order("id"))
	require.NoError(t, err)
	require.Equal(t, "ALFKI", customers[0].ID)
	require.Len(t, customers[0].Orders, 2)

	assert.Zero(t, s.Tracker().DetectChanges())

	customers[0].Orders[0].Freight = 99
	*customers[0].Orders[1].Note = "handle with care"

	assert.Equal(t, 2, s.Tracker().DetectChanges())

	entry, ok := s.Tracker().Entry(&customers[0].Orders[0])
	require.True(t, ok)
	assert.Equal(t, Modified, entry.State())
	assert.Equal(t, []string{"freight"}, entry.ModifiedColumns(context.Background()))
	assert.Equal(t, "shop_orders|10248", entry.Key())

	entry, ok = s.Tracker().Entry(&customers[1])
	require.True(t, ok)
	assert.Equal(t, Unchanged, entry.State())
	assert.Equal(t, "Unchanged", entry.State().String())

	_, ok = s.Tracker().Entry(&shopOrder{ID: 1})
	assert.False(t, ok)

	s.Tracker().Clear()
	assert.Zero(t, s.Tracker().Count())
}

func TestTracker_DetectsChangesOnElementResults(t *testing.T) {
	db := newShopDatabase(t)
	ctx := context.Background()

	tests := []struct {
		name string
		read func(s *Session) (*shopOrder, error)
	}{
		{"first", func(s *Session) (*shopOrder, error) { return First[shopOrder](Set[shopOrder](s).Order("id")) }},
		{"first or default", func(s *Session) (*shopOrder, error) { return FirstOrDefault[shopOrder](Set[shopOrder](s).Order("id")) }},
		{"single", func(s *Session) (*shopOrder, error) { return Single[shopOrder](Set[shopOrder](s).Where("id = ?", 10250)) }},
		{"single or default", func(s *Session) (*shopOrder, error) {
			return SingleOrDefault[shopOrder](Set[shopOrder](s).Where("id = ?", 10250))
		}},
		{"last", func(s *Session) (*shopOrder, error) { return Last[shopOrder](Set[shopOrder](s).Order("id")) }},
		{"last or default", func(s *Session) (*shopOrder, error) { return LastOrDefault[shopOrder](Set[shopOrder](s).Order("id")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := db.NewSession(ctx)
			o, err := tt.read(s)
			require.NoError(t, err)
			require.NotNil(t, o)
			require.Zero(t, s.Tracker().DetectChanges())

			o.Freight = 99.5
			assert.Equal(t, 1, s.Tracker().DetectChanges())
			entry, ok := s.Tracker().Entry(o)
			require.True(t, ok)
			assert.Equal(t, []string{"freight"}, entry.ModifiedColumns(ctx))
		})
	}

	t.Run("after the row was read before", func(t *testing.T) {
		s := db.NewSession(ctx)
		_, err := ToList[shopOrder](Set[shopOrder](s))
		require.NoError(t, err)
		o, err := First[shopOrder](Set[shopOrder](s).Order("id"))
		require.NoError(t, err)

		o.Freight = 1
		assert.Equal(t, 1, s.Tracker().DetectChanges())
	})
}

func TestTracker_EntriesKeepFirstSeenOrder(t *testing.T) {
	db := newShopDatabase(t)
	s := db.NewSession(context.Background())

	_, err := ToList[shopCustomer](Set[shopCustomer](s).Order("id DESC"))
	require.NoError(t, err)

	keys := seq.Select(s.Tracker().Entries(), func(e *Entry) string { return e.Key() })
	assert.Equal(t, []string{"shop_customers|FISSA", "shop_customers|BONAP", "shop_customers|ALFKI"}, keys)
}

func TestTerminalOperators(t *testing.T) {
	db := newShopDatabase(t)
	s := db.NewSession(context.Background())
	orders := func() *gorm.DB { return Set[shopOrder](s) }
	none := func() *gorm.DB { return Set[shopOrder](s).Where("customer_id = ?", "FISSA") }

	t.Run("element operators", func(t *testing.T) {
		first, err := First[shopOrder](orders().Order("id"))
		require.NoError(t, err)
		assert.Equal(t, 10248, first.ID)

		last, err := Last[shopOrder](orders().Order("id"))
		require.NoError(t, err)
		assert.Equal(t, 10252, last.ID)

		_, err = First[shopOrder](none())
		assert.ErrorIs(t, err, seq.ErrNoElements)

		def, err := FirstOrDefault[shopOrder](none())
		require.NoError(t, err)
		assert.Nil(t, def)

		_, err = Single[shopOrder](orders())
		assert.ErrorIs(t, err, seq.ErrMoreThanOneElement)

		one, err := Single[shopOrder](orders().Where("id = ?", 10250))
		require.NoError(t, err)
		assert.Equal(t, "BONAP", one.CustomerID)

		def, err = SingleOrDefault[shopOrder](none())
		require.NoError(t, err)
		assert.Nil(t, def)

		def, err = LastOrDefault[shopOrder](none())
		require.NoError(t, err)
		assert.Nil(t, def)

		v, err := Deref[shopOrder](FirstOrDefault[shopOrder](none()))
		require.NoError(t, err)
		assert.Zero(t, v)
		v, err = Deref[shopOrder](Last[shopOrder](orders().Order("id")))
		require.NoError(t, err)
		assert.Equal(t, 10252, v.ID)
	})

	t.Run("quantifiers", func(t *testing.T) {
		n, err := Count(orders())
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		ln, err := LongCount(none())
		require.NoError(t, err)
		assert.Zero(t, ln)

		ok, err := Any(orders())
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = Any(none())
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = All(orders(), "freight > ?", 10)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = All(orders(), "freight > ?", 40)
		require.NoError(t, err)
		assert.False(t, ok)

		// rows with a NULL note do not count against the condition
		ok, err = All(orders(), "note = ?", "fragile")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("aggregates", func(t *testing.T) {
		lo, err := Min[float64](orders(), "freight")
		require.NoError(t, err)
		assert.InDelta(t, 11.61, lo, 1e-9)

		hi, err := Max[string](orders(), "customer_id")
		require.NoError(t, err)
		assert.Equal(t, "BONAP", hi)

		_, err = Min[float64](none(), "freight")
		assert.ErrorIs(t, err, seq.ErrNoElements)

		sum, err := Sum[float64](orders(), "freight")
		require.NoError(t, err)
		assert.InDelta(t, 202.46, sum, 1e-6)

		empty, err := Sum[float64](none(), "freight")
		require.NoError(t, err)
		assert.Zero(t, empty)

		dec, err := SumDecimal(orders().Where("customer_id = ?", "ALFKI"), "freight")
		require.NoError(t, err)
		assert.InDelta(t, 43.99, dec.InexactFloat64(), 1e-6)

		avg, err := Average(orders().Where("customer_id = ?", "ALFKI"), "freight")
		require.NoError(t, err)
		assert.InDelta(t, 21.995, avg, 1e-6)

		_, err = Average(none(), "freight")
		assert.ErrorIs(t, err, seq.ErrNoElements)

		ids, err := Pluck[int](orders().Order("id DESC").Limit(2), "id")
		require.NoError(t, err)
		assert.Equal(t, []int{10252, 10251}, ids)
	})
}

func TestTracker_EntitiesInsideProjections(t *testing.T) {
	db := newShopDatabase(t)
	s := db.NewSession(context.Background())

	type orderWithCity struct {
		Order        shopOrder `gorm:"embedded"`
		CustomerCity string
	}
	var rows []orderWithCity
	err := s.DB().Table("shop_orders").
		Select("shop_orders.*, shop_customers.city AS customer_city").
		Joins("JOIN shop_customers ON shop_customers.id = shop_orders.customer_id").
		Find(&rows).Error
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.NotEmpty(t, rows[0].CustomerCity)

	assert.Equal(t, 5, s.Tracker().Count())
	assert.Equal(t, 5, s.Tracker().CountOf("shop_orders"))
}

func TestTracker_HierarchyRowsShareIdentity(t *testing.T) {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := Open(sqlite.Open(dsn), Options{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.RegisterModels(&testAnimal{}, &testBird{}))
	require.NoError(t, db.AutoMigrate(ctx))
	require.NoError(t, db.DB.Create(&[]testAnimal{{ID: 1, Kind: "cat", Name: "Tom"}}).Error)
	require.NoError(t, db.DB.Create(&[]testBird{{Animal: testAnimal{ID: 2, Kind: "eagle", Name: "Sam"}, CanFly: true}}).Error)

	s := db.NewSession(ctx)
	animals, err := ToList[testAnimal](Set[testAnimal](s))
	require.NoError(t, err)
	assert.Len(t, animals, 2)

	birds, err := ToList[testBird](Set[testBird](s))
	require.NoError(t, err)
	require.Len(t, birds, 1)
	assert.Equal(t, 2, s.Tracker().Count())

	birds[0].CanFly = false
	entry, ok := s.Tracker().Entry(&birds[0])
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(testBird{}), entry.Type())
	assert.Equal(t, []string{"can_fly"}, entry.ModifiedColumns(ctx))
	assert.Equal(t, "test_animals|2", entry.Key())
}
