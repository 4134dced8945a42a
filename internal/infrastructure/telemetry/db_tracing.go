package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/logger"
)

// DBTracingConfig holds configuration for statement tracing.
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	TracerProvider  trace.TracerProvider
}

// DefaultDBTracingConfig returns the statement tracing defaults.
func DefaultDBTracingConfig(dbSystem string) DBTracingConfig {
	return DBTracingConfig{
		DBSystem:        dbSystem,
		SlowQueryThresh: 200 * time.Millisecond,
	}
}

// DBTracingPlugin registers otelgorm on a provider connection and annotates
// each statement span with the scenario that issued it.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a statement tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// Register installs otelgorm and the annotation callbacks on db.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	if err := db.Callback().Query().Before("gorm:query").Register("queryspec_trace:before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("queryspec_trace:before_row", before); err != nil {
		return err
	}
	// annotate must run while the otelgorm span is still open
	if err := db.Callback().Query().After("gorm:query").Before("otel:after:select").
		Register("queryspec_trace:after_query", p.annotate); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Before("otel:after:row").
		Register("queryspec_trace:after_row", p.annotate); err != nil {
		return err
	}

	p.logger.Debug("Statement tracing enabled",
		zap.String("db_system", p.config.DBSystem),
		zap.Bool("log_full_sql", p.config.LogFullSQL),
	)
	return nil
}

func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if scenario := logger.Scenario(ctx); scenario != "" {
		span.SetAttributes(AttrScenario.String(scenario))
	}
	if provider := logger.Provider(ctx); provider != "" {
		span.SetAttributes(AttrProvider.String(provider))
	}
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}
