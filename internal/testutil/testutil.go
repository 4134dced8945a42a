// Package testutil provides the databases and helpers shared by package
// tests: sqlmock-backed gorm handles, throwaway sqlite stores, seeded
// fixtures and container-backed postgres and redis instances.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
)

// MockDB wraps a Database whose connection is a sqlmock
type MockDB struct {
	*persistence.Database
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-flavoured Database over sqlmock. The mock
// expectations are checked on cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	db, err := persistence.Open(dialector, persistence.Options{SkipPing: true})
	require.NoError(t, err, "Failed to open mock database")

	m := &MockDB{Database: db, Mock: mock, SqlDB: mockDB}
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet(), "Unmet database expectations")
		_ = mockDB.Close()
	})
	return m
}

// SQLiteDSN returns a private shared-cache in-memory database name
func SQLiteDSN() string {
	return "file:" + uuid.NewString() + "?mode=memory&cache=shared"
}

// NewSQLiteDatabase opens an empty in-memory sqlite store that lives until
// the test ends
func NewSQLiteDatabase(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.Open(sqlite.Open(SQLiteDSN()), persistence.Options{MaxOpenConns: 1})
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Seed ensures every fixture is present in db
func Seed(t *testing.T, db *persistence.Database, fixtures ...fixture.Fixture) {
	t.Helper()

	ctx, cancel := ContextWithTimeout(t, time.Minute)
	defer cancel()

	store := fixture.NewSharedStore("test", nil, 0, zaptest.NewLogger(t))
	for _, fx := range fixtures {
		require.NoError(t, store.Ensure(ctx, db, fx), "Failed to seed %s", fx.Name())
	}
}

// SeededSQLite opens a fresh sqlite store holding fixtures
func SeededSQLite(t *testing.T, fixtures ...fixture.Fixture) *persistence.Database {
	t.Helper()
	db := NewSQLiteDatabase(t)
	Seed(t, db, fixtures...)
	return db
}

// ContextWithTimeout creates a context with a timeout for tests
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}
