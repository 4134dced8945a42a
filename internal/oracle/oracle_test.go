package oracle

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/infrastructure/telemetry"
	"github.com/ormspec/queryspec/internal/seq"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type city struct {
	ID      int `gorm:"primaryKey;autoIncrement:false"`
	Name    string
	Country string
	People  []person `gorm:"foreignKey:CityID"`
}

type person struct {
	ID     int `gorm:"primaryKey;autoIncrement:false"`
	Name   string
	CityID *int
	City   *city
	Score  float64
}

func intPtr(v int) *int { return &v }

func byPersonName(p person) string { return p.Name }
func personScore(p person) float64 { return p.Score }

func testRegistry() *Registry {
	r := NewRegistry()
	RegisterEntity(r, func(c city) SortKey { return Key(c.ID) }, func(t TestingT, e, a city) {
		t.Helper()
		assert.Equal(t, e.ID, a.ID)
		assert.Equal(t, e.Name, a.Name)
		assert.Equal(t, e.Country, a.Country)
	})
	RegisterEntity(r, func(p person) SortKey { return Key(p.ID) }, func(t TestingT, e, a person) {
		t.Helper()
		assert.Equal(t, e.ID, a.ID)
		assert.Equal(t, e.Name, a.Name)
		assert.Equal(t, e.CityID, a.CityID)
		assert.InDelta(t, e.Score, a.Score, 1e-9)
	})
	return r
}

func newAsserter(t *testing.T, opts ...Option) *Asserter {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), persistence.Options{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.RegisterModels(&city{}, &person{}))
	require.NoError(t, db.AutoMigrate(ctx))

	cities := []city{
		{ID: 1, Name: "Berlin", Country: "Germany"},
		{ID: 2, Name: "Madrid", Country: "Spain"},
		{ID: 3, Name: "Lyon", Country: "France"},
	}
	people := []person{
		{ID: 1, Name: "Ana", CityID: intPtr(2), Score: 3.5},
		{ID: 2, Name: "Bob", CityID: intPtr(1), Score: 1.25},
		{ID: 3, Name: "Cid", Score: 2},
		{ID: 4, Name: "Dee", CityID: intPtr(1), Score: 4},
	}
	require.NoError(t, db.DB.Omit(clause.Associations).Create(&cities).Error)
	require.NoError(t, db.DB.Omit(clause.Associations).Create(&people).Error)

	for i := range people {
		if people[i].CityID == nil {
			continue
		}
		c := &cities[*people[i].CityID-1]
		people[i].City = c
	}
	for i := range people {
		if people[i].City != nil {
			people[i].City.People = append(people[i].City.People, people[i])
		}
	}

	expected := NewExpectedData()
	Put(expected, cities)
	Put(expected, people)
	return New(db.NewSession, expected, testRegistry(), opts...)
}

func allPeople(q *gorm.DB) ([]person, error) {
	return persistence.ToList[person](q.Order("id DESC"))
}

func identity[T any](rows []T) []T { return rows }

func TestAssertQuery_UnorderedIgnoresOrder(t *testing.T) {
	a := newAsserter(t)
	rec := Capture(func(t TestingT) {
		AssertQuery(t, a, From[person](allPeople), Over(identity[person]), EntryCount(4))
	})
	assert.False(t, rec.Failed(), rec.Failures())
}

func TestAssertQuery_AssertOrderIsPositional(t *testing.T) {
	a := newAsserter(t)

	rec := Capture(func(t TestingT) {
		AssertQuery(t, a, From[person](allPeople), Over(identity[person]), AssertOrder())
	})
	assert.True(t, rec.Failed())

	rec = Capture(func(t TestingT) {
		AssertQuery(t, a,
			From[person](allPeople),
			Over(func(rows []person) []person { return seq.Reverse(rows) }),
			AssertOrder())
	})
	assert.False(t, rec.Failed(), rec.Failures())
}

func TestAssertQuery_Failures(t *testing.T) {
	a := newAsserter(t)

	t.Run("count mismatch", func(t *testing.T) {
		rec := Capture(func(t TestingT) {
			AssertQuery(t, a,
				From[person](func(q *gorm.DB) ([]person, error) { return persistence.ToList[person](q.Where("id > ?", 1)) }),
				Over(identity[person]))
		})
		require.True(t, rec.Failed())
		assert.Contains(t, rec.Failures()[0], "result count mismatch: expected 4, got 3")
	})

	t.Run("element mismatch", func(t *testing.T) {
		rec := Capture(func(t TestingT) {
			AssertQuery(t, a, From[person](allPeople), Over(func(rows []person) []person {
				rows[0].Name = "Zed"
				return rows
			}))
		})
		require.True(t, rec.Failed())
		assert.Contains(t, rec.Failures()[0], "element 0 differs")
	})

	t.Run("tracked count mismatch", func(t *testing.T) {
		rec := Capture(func(t TestingT) {
			AssertQuery(t, a, From[person](allPeople), Over(identity[person]), EntryCount(3))
		})
		require.True(t, rec.Failed())
		assert.Contains(t, rec.Failures()[0], "tracked entity count mismatch: expected 3, got 4")
	})

	t.Run("query error", func(t *testing.T) {
		rec := Capture(func(t TestingT) {
			AssertQuery(t, a,
				From[person](func(q *gorm.DB) ([]person, error) { return persistence.ToList[person](q.Where("no_such_column = 1")) }),
				Over(identity[person]))
		})
		require.True(t, rec.Failed())
		assert.Contains(t, rec.Failures()[0], "actual query failed")
	})

	t.Run("sorter of the wrong type", func(t *testing.T) {
		rec := Capture(func(t TestingT) {
			AssertQuery(t, a, From[person](allPeople), Over(identity[person]),
				ElementSorter(func(c city) SortKey { return Key(c.ID) }))
		})
		require.True(t, rec.Failed())
		assert.Contains(t, rec.Failures()[0], "does not accept the result type")
	})
}

func TestAssertQuery_EqualKeysMatchAsMultiset(t *testing.T) {
	a := newAsserter(t)
	rec := Capture(func(t TestingT) {
		AssertQuery(t, a, From[person](allPeople), Over(identity[person]),
			ElementSorter(func(p person) SortKey { return Key("same") }))
	})
	assert.False(t, rec.Failed(), rec.Failures())
}

func TestAssertQuery_EqualKeysWithDifferentElementsFail(t *testing.T) {
	a := newAsserter(t)
	same := ElementSorter(func(p person) SortKey { return Key("same") })

	// Ana twice on the expected side, Bob and Ana on the actual side
	rec := Capture(func(t TestingT) {
		AssertQuery(t, a, From[person](allPeople), Over(func(rows []person) []person {
			rows[3] = rows[0]
			return rows
		}), same)
	})
	require.True(t, rec.Failed())
	assert.Contains(t, rec.Failures()[0], "has no match among equal keys")

	rec = Capture(func(t TestingT) {
		AssertQuery(t, a,
			From[person](func(q *gorm.DB) ([]person, error) { return persistence.ToList[person](q.Where("id IN ?", []int{1, 2})) }),
			Over(func(rows []person) []person { return []person{rows[0], rows[0]} }),
			same)
	})
	require.True(t, rec.Failed())
	assert.Len(t, rec.Failures(), 1)
}

func TestAssertQuery_StrictEntryCount(t *testing.T) {
	a := newAsserter(t, WithStrictEntryCount())

	rec := Capture(func(t TestingT) {
		AssertQuery(t, a, From[person](allPeople), Over(identity[person]))
	})
	assert.True(t, rec.Failed())

	rec = Capture(func(t TestingT) {
		AssertQuery(t, a,
			From[person](func(q *gorm.DB) ([]person, error) { return persistence.ToList[person](persistence.NoTracking(q)) }),
			Over(identity[person]))
	})
	assert.False(t, rec.Failed(), rec.Failures())

	lenient := newAsserter(t, WithStrictEntryCount(), WithIgnoreEntryCount())
	rec = Capture(func(t TestingT) {
		AssertQuery(t, lenient, From[person](allPeople), Over(identity[person]), EntryCount(1))
	})
	assert.False(t, rec.Failed(), rec.Failures())
}

func TestAssertQueryScalar(t *testing.T) {
	a := newAsserter(t, WithStrictEntryCount())
	rec := Capture(func(t TestingT) {
		AssertQueryScalar(t, a,
			From[person](func(q *gorm.DB) ([]string, error) { return persistence.Pluck[string](q, "name") }),
			Over(func(rows []person) []string { return seq.Select(rows, byPersonName) }))
	})
	assert.False(t, rec.Failed(), rec.Failures())
}

func TestAssertQuery_AsyncMode(t *testing.T) {
	a := newAsserter(t, WithMode(Async))
	assert.Equal(t, Async, a.Mode())

	rec := Capture(func(t TestingT) {
		AssertQuery(t, a, From[person](allPeople), Over(identity[person]), EntryCount(4))
	})
	assert.False(t, rec.Failed(), rec.Failures())
	assert.Equal(t, Sync, a.WithMode(Sync).Mode())
}

func TestAssertQuery_PanicOnActualSideIsRecorded(t *testing.T) {
	for _, mode := range []Mode{Sync, Async} {
		t.Run(string(mode), func(t *testing.T) {
			a := newAsserter(t, WithMode(mode))
			rec := Capture(func(t TestingT) {
				AssertQuery(t, a,
					From[person](func(q *gorm.DB) ([]int, error) {
						rows, err := persistence.ToList[person](q)
						return seq.Select(rows, func(p person) int { return *p.CityID }), err
					}),
					Over(func(rows []person) []int { return seq.Select(rows, func(p person) int { return p.ID }) }))
			})
			require.True(t, rec.Failed())
			assert.Contains(t, rec.Failures()[0], "nil pointer dereference")
		})
	}
}

func TestAssertQuery_TwoSources(t *testing.T) {
	type pair struct {
		Person string
		City   string
	}
	a := newAsserter(t)
	rec := Capture(func(t TestingT) {
		AssertQuery(t, a,
			From2[person, city](func(people, cities *gorm.DB) ([]pair, error) {
				var rows []pair
				err := people.Select("people.name AS person, cities.name AS city").
					Joins("JOIN cities ON cities.id = people.city_id").
					Scan(&rows).Error
				return rows, err
			}),
			Over2(func(people []person, cities []city) []pair {
				return seq.Join(people, cities,
					func(p person) int { return cityKey(p.CityID) },
					func(c city) int { return c.ID },
					func(p person, c city) pair { return pair{Person: p.Name, City: c.Name} })
			}))
	})
	assert.False(t, rec.Failed(), rec.Failures())
}

// cityKey maps a missing foreign key to a key no city has
func cityKey(id *int) int {
	if id == nil {
		return -1
	}
	return *id
}

func TestAssertIncludeQuery(t *testing.T) {
	a := newAsserter(t)

	rec := Capture(func(t TestingT) {
		AssertIncludeQuery(t, a,
			From[city](func(q *gorm.DB) ([]city, error) { return persistence.ToList[city](q.Preload("People")) }),
			Over(identity[city]),
			Include("People"), EntryCount(6))
	})
	assert.False(t, rec.Failed(), rec.Failures())

	rec = Capture(func(t TestingT) {
		AssertIncludeQuery(t, a,
			From[person](func(q *gorm.DB) ([]person, error) { return persistence.ToList[person](q.Preload("City")) }),
			Over(identity[person]),
			Include("City"))
	})
	assert.False(t, rec.Failed(), rec.Failures())

	rec = Capture(func(t TestingT) {
		AssertIncludeQuery(t, a,
			From[city](func(q *gorm.DB) ([]city, error) { return persistence.ToList[city](q) }),
			Over(identity[city]),
			Include("People"))
	})
	require.True(t, rec.Failed())
	assert.Contains(t, rec.Failures()[0], "include People: expected 2 related entities, got 0")
}

func TestAssertSingleResult(t *testing.T) {
	a := newAsserter(t)

	rec := Capture(func(t TestingT) {
		AssertSingleResult(t, a,
			FromResult[person](func(q *gorm.DB) (float64, error) { return persistence.Sum[float64](q, "score") }),
			Value(func(rows []person) float64 { return seq.Sum(rows, personScore) }))
	})
	assert.False(t, rec.Failed(), rec.Failures())

	rec = Capture(func(t TestingT) {
		AssertSingleResult(t, a,
			FromResult[person](func(q *gorm.DB) (person, error) { return persistence.Deref[person](persistence.First[person](q.Order("id"))) }),
			OverResult(func(rows []person) (person, error) { return seq.Single(rows) }))
	})
	require.True(t, rec.Failed())
	assert.Contains(t, rec.Failures()[0], "expected failure")
}

func TestAssertAll_NullCondition(t *testing.T) {
	a := newAsserter(t)
	cond := Condition[person]{SQL: "city_id < ?", Args: []any{3}}

	cond.Match = func(p person) bool { return p.CityID == nil || *p.CityID < 3 }
	rec := Capture(func(t TestingT) { AssertAll[person](t, a, nil, nil, cond) })
	assert.False(t, rec.Failed(), rec.Failures())

	cond.Match = func(p person) bool { return p.CityID != nil && *p.CityID < 3 }
	rec = Capture(func(t TestingT) { AssertAll[person](t, a, nil, nil, cond) })
	assert.True(t, rec.Failed())
}

func TestAssertFailsWith(t *testing.T) {
	a := newAsserter(t)
	none := func(p person) bool { return p.ID < 0 }

	rec := Capture(func(t TestingT) {
		AssertFailsWith(t, a,
			FromResult[person](func(q *gorm.DB) (float64, error) { return persistence.Min[float64](q.Where("id < 0"), "score") }),
			OverResult(func(rows []person) (float64, error) { return seq.Min(seq.Where(rows, none), personScore) }),
			seq.ErrNoElements)
	})
	assert.False(t, rec.Failed(), rec.Failures())

	rec = Capture(func(t TestingT) {
		AssertFailsWith(t, a,
			FromResult[person](func(q *gorm.DB) (float64, error) { return persistence.Min[float64](q, "score") }),
			OverResult(func(rows []person) (float64, error) { return seq.Min(rows, personScore) }),
			seq.ErrNoElements)
	})
	assert.True(t, rec.Failed())
	assert.Len(t, rec.Failures(), 2)
}

func TestTerminalAssertions(t *testing.T) {
	a := newAsserter(t)
	byName := func(q *gorm.DB) *gorm.DB { return q.Order("name") }
	sortedByName := func(rows []person) []person { return seq.OrderBy(rows, byPersonName) }
	noneSQL := func(q *gorm.DB) *gorm.DB { return q.Where("score > ?", 100) }
	noneRows := func(rows []person) []person {
		return seq.Where(rows, func(p person) bool { return p.Score > 100 })
	}

	rec := Capture(func(t TestingT) {
		AssertFirst(t, a, byName, sortedByName, EntryCount(1))
		AssertFirstOrDefault(t, a, noneSQL, noneRows)
		AssertLast(t, a, byName, sortedByName)
		AssertLastOrDefault(t, a, noneSQL, noneRows)
		AssertSingle[person](t, a, nil, nil)
		AssertSingleOrDefault(t, a, noneSQL, noneRows)
		AssertSingle(t, a,
			func(q *gorm.DB) *gorm.DB { return q.Where("name = ?", "Cid") },
			func(rows []person) []person { return seq.Where(rows, func(p person) bool { return p.Name == "Cid" }) })
		AssertCount[person](t, a, nil, nil)
		AssertLongCount(t, a, noneSQL, noneRows)
		AssertAny[person](t, a, nil, nil)
		AssertAny(t, a, noneSQL, noneRows)
		AssertAll[person](t, a, nil, nil, Condition[person]{
			SQL:   "score > ?",
			Args:  []any{1},
			Match: func(p person) bool { return p.Score > 1 },
		})
		AssertMin[person](t, a, nil, nil, "score", personScore)
		AssertMax[person](t, a, nil, nil, "name", byPersonName)
		AssertSum[person](t, a, nil, nil, "score", personScore)
		AssertAverage[person](t, a, nil, nil, "score", personScore)
		AssertMin(t, a, noneSQL, noneRows, "score", personScore)
	})
	assert.False(t, rec.Failed(), rec.Failures())
}

func TestAsserter_Observability(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()
	metrics, err := telemetry.NewAssertionMetrics(mp.Meter("test"))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)

	a := newAsserter(t,
		WithTracer(tp.Tracer("test")),
		WithMetrics(metrics),
		WithLogger(zap.New(core)),
		WithProvider("sqlite"),
	).WithScenario("People_ordered")

	Capture(func(t TestingT) {
		AssertQuery(t, a, From[person](allPeople), Over(identity[person]), EntryCount(4))
		AssertQuery(t, a, From[person](allPeople), Over(identity[person]), EntryCount(1))
	})

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "oracle.AssertQuery", ended[0].Name())
	attrs := map[string]any{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "sqlite", attrs["queryspec.provider"])
	assert.Equal(t, "People_ordered", attrs["queryspec.scenario"])
	assert.Equal(t, int64(4), attrs["queryspec.tracked_entities"])

	assert.Equal(t, 1, logs.FilterMessage("assertion passed").Len())
	failed := logs.FilterMessage("assertion failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, "People_ordered", failed[0].ContextMap()["scenario"])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	results := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "queryspec_assertions_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value(telemetry.AttrResult)
				results[v.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"passed": 1, "failed": 1}, results)
}

func TestAsserter_RandIsSeededPerScenario(t *testing.T) {
	a := New(nil, nil, nil, WithSeed(42))
	first := a.WithScenario("x").Rand().IntN(1 << 30)
	again := a.WithScenario("x").Rand().IntN(1 << 30)
	other := a.WithScenario("y").Rand().IntN(1 << 30)
	assert.Equal(t, first, again)
	assert.NotEqual(t, first, other)
}
