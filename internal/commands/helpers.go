// Package commands holds the queryspec CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/ormspec/queryspec/internal/infrastructure/config"
	"github.com/ormspec/queryspec/internal/infrastructure/logger"
	"github.com/ormspec/queryspec/internal/infrastructure/telemetry"
	"github.com/ormspec/queryspec/internal/querytest"
)

// configDir is an extra directory searched for queryspec.toml, set by the
// root command's --config flag
var configDir string

// SetConfigDir points config loading at dir in addition to the defaults
func SetConfigDir(dir string) { configDir = dir }

func loadConfig() (*config.Config, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultConfig().TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return log, nil
}

// setup loads the configuration and returns a context carrying the
// configured logger, bridged to OTLP when log export is enabled. cleanup
// flushes the logger and the log exporter.
func setup() (context.Context, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx := context.Background()
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, fmt.Errorf("creating logger provider: %w", err)
	}
	log = lp.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	cleanup := func() {
		_ = lp.Shutdown(context.Background())
		_ = log.Sync()
	}
	return logger.WithContext(ctx, log), cfg, cleanup, nil
}

// selectSuites narrows the catalog to the scenarios matching filter
func selectSuites(filter string) ([]querytest.Suite, error) {
	suites := querytest.Catalog()
	if filter == "" {
		return suites, nil
	}
	re, err := regexp.Compile(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
	}
	suites = querytest.Filter(suites, re)
	if len(suites) == 0 {
		return nil, fmt.Errorf("filter %q matches no scenario", filter)
	}
	return suites, nil
}
