package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/infrastructure/config"
	"github.com/ormspec/queryspec/internal/infrastructure/logger"
	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/provider"
	"github.com/ormspec/queryspec/internal/querytest"
	"github.com/ormspec/queryspec/internal/testutil"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := testutil.ContextWithTimeout(t, 5*time.Minute)
	t.Cleanup(cancel)
	return logger.WithContext(ctx, zaptest.NewLogger(t))
}

func openStore(t *testing.T, p provider.Provider, cfg *config.Config) *persistence.Database {
	t.Helper()
	db, err := p.Open(testContext(t), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func runCatalog(t *testing.T, name string, db *persistence.Database) {
	t.Helper()
	log := zaptest.NewLogger(t)
	querytest.RunAll(t, &querytest.Env{
		Provider: name,
		DB:       db,
		Store:    fixture.NewSharedStore(name, nil, 0, log),
		Seed:     config.Default().Seed.Value,
		Options:  []oracle.Option{oracle.WithLogger(log)},
	})
}

func TestRegistry(t *testing.T) {
	r := provider.Default()
	assert.Equal(t, []string{config.ProviderPostgres, config.ProviderSQLite, config.ProviderSQLitePure}, r.Names())

	p, err := r.Get(config.ProviderSQLitePure)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderSQLitePure, p.Name())

	_, err = r.Get("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")

	// no container was started, so closing is a no-op
	require.NoError(t, r.Close(context.Background()))
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := provider.NewRegistry(provider.NewSQLite())
	replacement := provider.NewSQLite()
	r.Register(replacement)

	p, err := r.Get(config.ProviderSQLite)
	require.NoError(t, err)
	assert.Same(t, replacement, p)
	assert.Equal(t, []string{config.ProviderSQLite}, r.Names())
}

func TestSQLite_Open(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.SQLite.DSN = testutil.SQLiteDSN()
	cfg.Telemetry.DBTraceEnabled = true

	db := openStore(t, provider.NewSQLite(), cfg)
	require.NoError(t, db.Ping(context.Background()))

	var n int
	require.NoError(t, db.DB.Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)
}

func TestSQLitePure_Open(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.SQLitePure.DSN = testutil.SQLiteDSN()

	db := openStore(t, provider.NewSQLitePure(), cfg)
	assert.Equal(t, "sqlite", db.DB.Dialector.Name())
	require.NoError(t, db.Ping(context.Background()))
}

func TestSQLite_Catalog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full catalog in short mode")
	}
	cfg := config.Default()
	cfg.Providers.SQLite.DSN = testutil.SQLiteDSN()
	runCatalog(t, config.ProviderSQLite, openStore(t, provider.NewSQLite(), cfg))
}

func TestSQLitePure_Catalog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full catalog in short mode")
	}
	cfg := config.Default()
	cfg.Providers.SQLitePure.DSN = testutil.SQLiteDSN()
	runCatalog(t, config.ProviderSQLitePure, openStore(t, provider.NewSQLitePure(), cfg))
}

func TestPostgres_Catalog(t *testing.T) {
	dsn := testutil.RunPostgres(t, testutil.PostgresImage)

	cfg := config.Default()
	cfg.Providers.Postgres.DSN = dsn
	cfg.Providers.Postgres.UseContainer = false
	runCatalog(t, config.ProviderPostgres, openStore(t, provider.NewPostgres(), cfg))
}

func TestPostgres_CloseWithoutContainer(t *testing.T) {
	require.NoError(t, provider.NewPostgres().Close(context.Background()))
}
