package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"

	"github.com/ormspec/queryspec/internal/infrastructure/config"
	"github.com/ormspec/queryspec/internal/infrastructure/logger"
	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
)

// Postgres opens stores on a configured server or on a throwaway container
// started on first use and kept until Close
type Postgres struct {
	mu        sync.Mutex
	container *tcpostgres.PostgresContainer
	dsn       string
}

// NewPostgres creates the postgres provider
func NewPostgres() *Postgres { return &Postgres{} }

func (*Postgres) Name() string { return config.ProviderPostgres }

func (p *Postgres) Open(ctx context.Context, cfg *config.Config) (*persistence.Database, error) {
	pg := cfg.Providers.Postgres
	dsn := pg.DSN
	if pg.UseContainer {
		var err error
		if dsn, err = p.containerDSN(ctx, pg.Image); err != nil {
			return nil, err
		}
	}

	return open(ctx, p.Name(), "postgresql", postgres.Open(dsn), persistence.Options{
		MaxOpenConns:    pg.MaxOpenConns,
		MaxIdleConns:    pg.MaxIdleConns,
		ConnMaxLifetime: pg.ConnMaxLifetime,
	}, cfg)
}

func (p *Postgres) containerDSN(ctx context.Context, image string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.container != nil {
		return p.dsn, nil
	}

	logger.FromContext(ctx).Info("Starting postgres container", zap.String("image", image))
	container, err := StartPostgresContainer(ctx, image)
	if err != nil {
		return "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(context.Background())
		return "", fmt.Errorf("failed to get postgres connection string: %w", err)
	}
	p.container, p.dsn = container, dsn
	return dsn, nil
}

// Close terminates the container started by Open, if any
func (p *Postgres) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.container == nil {
		return nil
	}
	err := p.container.Terminate(ctx)
	p.container, p.dsn = nil, ""
	if err != nil {
		return fmt.Errorf("failed to terminate postgres container: %w", err)
	}
	return nil
}

// StartPostgresContainer runs a postgres container whose cluster uses the C
// locale, so text ordering is bytewise
func StartPostgresContainer(ctx context.Context, image string) (*tcpostgres.PostgresContainer, error) {
	container, err := tcpostgres.Run(ctx,
		image,
		tcpostgres.WithDatabase("queryspec"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("queryspec"),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_INITDB_ARGS": "--locale=C --encoding=UTF8",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}
	return container, nil
}
