package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Options configures a Database opened with Open
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Logger          logger.Interface
	PrepareStmt     bool
	// SkipPing leaves the connection unverified, for mocked pools
	SkipPing bool
}

// Database holds the database connection and the registry of model types
// whose query results are tracked
type Database struct {
	DB *gorm.DB

	tracker *trackerPlugin
}

// Open connects through the given dialector and installs the change tracker
func Open(dialector gorm.Dialector, opts Options) (*Database, error) {
	gormLogger := opts.Logger
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormLogger,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              opts.PrepareStmt,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	if !opts.SkipPing {
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	tracker := newTrackerPlugin()
	if err := db.Use(tracker); err != nil {
		return nil, fmt.Errorf("failed to install change tracker: %w", err)
	}

	return &Database{DB: db, tracker: tracker}, nil
}

// RegisterModels marks the given model types as trackable entities. Each
// argument is a pointer to a zero value, as with gorm's AutoMigrate.
func (d *Database) RegisterModels(models ...any) error {
	for _, m := range models {
		if err := d.tracker.register(m, d.DB.NamingStrategy); err != nil {
			return err
		}
	}
	return nil
}

// Models returns the registered model values in registration order
func (d *Database) Models() []any {
	return d.tracker.models()
}

// AutoMigrate creates or updates the tables of every registered model
func (d *Database) AutoMigrate(ctx context.Context) error {
	models := d.Models()
	if len(models) == 0 {
		return nil
	}
	if err := d.DB.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}
	return nil
}

// NewSession starts a unit of work with its own identity map
func (d *Database) NewSession(ctx context.Context) *Session {
	t := newTracker(d.tracker)
	return &Session{
		ctx:     ctx,
		db:      d.DB.WithContext(withTracker(ctx, t)),
		tracker: t,
	}
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
	MaxIdleClosed      int64
	MaxIdleTimeClosed  int64
	MaxLifetimeClosed  int64
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

// TableName resolves the table a model is stored in
func (d *Database) TableName(model any) (string, error) {
	s, err := schema.Parse(model, d.tracker.cache, d.DB.NamingStrategy)
	if err != nil {
		return "", fmt.Errorf("failed to parse model %T: %w", model, err)
	}
	return s.Table, nil
}
