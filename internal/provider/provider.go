// Package provider opens the stores the query catalogs run against. Each
// provider turns the shared configuration into a persistence.Database with
// the suite's gorm logger and, when enabled, statement tracing installed.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/config"
	"github.com/ormspec/queryspec/internal/infrastructure/logger"
	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/infrastructure/telemetry"
)

// Provider opens a store for one database backend
type Provider interface {
	Name() string
	Open(ctx context.Context, cfg *config.Config) (*persistence.Database, error)
}

// Closer is implemented by providers holding resources beyond the
// connections of the databases they opened
type Closer interface {
	Close(ctx context.Context) error
}

// Registry maps provider names to providers
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a registry holding providers
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Default returns a registry with every built-in provider
func Default() *Registry {
	return NewRegistry(NewSQLite(), NewSQLitePure(), NewPostgres())
}

// Register adds p, replacing any provider of the same name
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the named provider
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}

// Names lists the registered providers, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the resources of every provider that holds some
func (r *Registry) Close(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var firstErr error
	for _, p := range r.providers {
		c, ok := p.(Closer)
		if !ok {
			continue
		}
		if err := c.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close provider %s: %w", p.Name(), err)
		}
	}
	return firstErr
}

// open connects through dialector with the suite's logging and tracing.
// The logger is taken from ctx.
func open(ctx context.Context, name, dbSystem string, dialector gorm.Dialector, opts persistence.Options, cfg *config.Config) (*persistence.Database, error) {
	log := logger.FromContext(ctx).With(zap.String("provider", name))
	opts.Logger = logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.SQLLevel))

	db, err := persistence.Open(dialector, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", name, err)
	}

	if cfg.Telemetry.DBTraceEnabled {
		tracing := telemetry.DefaultDBTracingConfig(dbSystem)
		tracing.Enabled = true
		if err := telemetry.NewDBTracingPlugin(tracing, log).Register(db.DB); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to install statement tracing on %s: %w", name, err)
		}
	}

	log.Info("Store opened", zap.String("db_system", dbSystem))
	return db, nil
}
