package provider

import (
	"context"

	"gorm.io/driver/sqlite"
	_ "modernc.org/sqlite"

	"github.com/ormspec/queryspec/internal/infrastructure/config"
	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
)

// sqlite in-memory stores are shared between connections only through the
// shared cache, so both providers pin the pool to one connection
var sqliteOptions = persistence.Options{MaxOpenConns: 1, MaxIdleConns: 1}

// SQLite opens stores through the cgo mattn/go-sqlite3 driver
type SQLite struct{}

// NewSQLite creates the cgo sqlite provider
func NewSQLite() *SQLite { return &SQLite{} }

func (*SQLite) Name() string { return config.ProviderSQLite }

func (p *SQLite) Open(ctx context.Context, cfg *config.Config) (*persistence.Database, error) {
	return open(ctx, p.Name(), "sqlite", sqlite.Open(cfg.Providers.SQLite.DSN), sqliteOptions, cfg)
}

// SQLitePure opens stores through the pure Go modernc.org/sqlite driver,
// reusing the gorm sqlite dialect
type SQLitePure struct{}

// NewSQLitePure creates the pure Go sqlite provider
func NewSQLitePure() *SQLitePure { return &SQLitePure{} }

func (*SQLitePure) Name() string { return config.ProviderSQLitePure }

func (p *SQLitePure) Open(ctx context.Context, cfg *config.Config) (*persistence.Database, error) {
	dialector := &sqlite.Dialector{DriverName: "sqlite", DSN: cfg.Providers.SQLitePure.DSN}
	return open(ctx, p.Name(), "sqlite", dialector, sqliteOptions, cfg)
}
