package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Provider names understood by the suite.
const (
	ProviderSQLite     = "sqlite"
	ProviderSQLitePure = "sqlitepure"
	ProviderPostgres   = "postgres"
)

// Config holds all queryspec configuration
type Config struct {
	Providers ProvidersConfig
	Seed      SeedConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Lock      LockConfig
	Runner    RunnerConfig
}

// ProvidersConfig selects the stores the catalogs run against
type ProvidersConfig struct {
	Enabled    []string `validate:"min=1,dive,oneof=sqlite sqlitepure postgres"`
	SQLite     SQLiteConfig
	SQLitePure SQLiteConfig
	Postgres   PostgresConfig
}

// SQLiteConfig holds sqlite connection settings
type SQLiteConfig struct {
	DSN string `validate:"required"`
}

// PostgresConfig holds postgres connection settings. When UseContainer is
// set the DSN is ignored and a throwaway container is started instead.
type PostgresConfig struct {
	DSN             string
	UseContainer    bool
	Image           string `validate:"required"`
	MaxOpenConns    int    `validate:"gt=0"`
	MaxIdleConns    int    `validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime time.Duration
}

// SeedConfig controls the generated reference datasets
type SeedConfig struct {
	Value uint64
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level    string `validate:"oneof=debug info warn error"`
	Format   string `validate:"oneof=json console"`
	Output   string
	SQLLevel string `validate:"oneof=silent error warn info"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64 `validate:"gte=0,lte=1"`
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool
	LogsEnabled       bool
	ProfilingEnabled  bool
	ProfilingServer   string
}

// LockConfig selects how concurrent runs coordinate store seeding
type LockConfig struct {
	Backend       string        `validate:"oneof=local redis"`
	TTL           time.Duration `validate:"gt=0"`
	RetryInterval time.Duration `validate:"gt=0"`
	Redis         RedisConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

// RunnerConfig controls the verify command
type RunnerConfig struct {
	Parallel        int    `validate:"gt=0"`
	ReportFormat    string `validate:"oneof=text yaml"`
	MetricsTextfile string
	Filter          string
	Timeout         time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// Load reads queryspec.toml (if present) and QSPEC_ environment variables.
// Extra search paths are consulted after the working directory.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("queryspec")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("QSPEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Providers: ProvidersConfig{
			Enabled:    v.GetStringSlice("providers.enabled"),
			SQLite:     SQLiteConfig{DSN: v.GetString("providers.sqlite.dsn")},
			SQLitePure: SQLiteConfig{DSN: v.GetString("providers.sqlitepure.dsn")},
			Postgres: PostgresConfig{
				DSN:             v.GetString("providers.postgres.dsn"),
				UseContainer:    v.GetBool("providers.postgres.use_container"),
				Image:           v.GetString("providers.postgres.image"),
				MaxOpenConns:    v.GetInt("providers.postgres.max_open_conns"),
				MaxIdleConns:    v.GetInt("providers.postgres.max_idle_conns"),
				ConnMaxLifetime: v.GetDuration("providers.postgres.conn_max_lifetime"),
			},
		},
		Seed: SeedConfig{
			Value: v.GetUint64("seed.value"),
		},
		Log: LogConfig{
			Level:    v.GetString("log.level"),
			Format:   v.GetString("log.format"),
			Output:   v.GetString("log.output"),
			SQLLevel: v.GetString("log.sql_level"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingServer:   v.GetString("telemetry.profiling_server"),
		},
		Lock: LockConfig{
			Backend:       v.GetString("lock.backend"),
			TTL:           v.GetDuration("lock.ttl"),
			RetryInterval: v.GetDuration("lock.retry_interval"),
			Redis: RedisConfig{
				Addr:     v.GetString("lock.redis.addr"),
				Password: v.GetString("lock.redis.password"),
				DB:       v.GetInt("lock.redis.db"),
			},
		},
		Runner: RunnerConfig{
			Parallel:        v.GetInt("runner.parallel"),
			ReportFormat:    v.GetString("runner.report_format"),
			MetricsTextfile: v.GetString("runner.metrics_textfile"),
			Filter:          v.GetString("runner.filter"),
			Timeout:         v.GetDuration("runner.timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment overrides.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if len(cfg.Providers.Enabled) == 0 {
		cfg.Providers.Enabled = []string{ProviderSQLite, ProviderSQLitePure}
	}
	if cfg.Providers.SQLite.DSN == "" {
		cfg.Providers.SQLite.DSN = "file:queryspec?mode=memory&cache=shared"
	}
	if cfg.Providers.SQLitePure.DSN == "" {
		cfg.Providers.SQLitePure.DSN = "file:queryspec_pure?mode=memory&cache=shared"
	}
	if cfg.Providers.Postgres.Image == "" {
		cfg.Providers.Postgres.Image = "postgres:16-alpine"
	}
	if cfg.Providers.Postgres.DSN == "" {
		cfg.Providers.Postgres.UseContainer = true
	}
	if cfg.Providers.Postgres.MaxOpenConns == 0 {
		cfg.Providers.Postgres.MaxOpenConns = 10
	}
	if cfg.Providers.Postgres.MaxIdleConns == 0 {
		cfg.Providers.Postgres.MaxIdleConns = 2
	}
	if cfg.Providers.Postgres.ConnMaxLifetime == 0 {
		cfg.Providers.Postgres.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.Seed.Value == 0 {
		cfg.Seed.Value = 1996
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Log.SQLLevel == "" {
		cfg.Log.SQLLevel = "silent"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "queryspec"
	}
	if cfg.Telemetry.ProfilingServer == "" {
		cfg.Telemetry.ProfilingServer = "http://localhost:4040"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 15 * time.Second
	}
	if cfg.Lock.Backend == "" {
		cfg.Lock.Backend = "local"
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = 2 * time.Minute
	}
	if cfg.Lock.RetryInterval == 0 {
		cfg.Lock.RetryInterval = 100 * time.Millisecond
	}
	if cfg.Lock.Redis.Addr == "" {
		cfg.Lock.Redis.Addr = "localhost:6379"
	}
	if cfg.Runner.Parallel == 0 {
		cfg.Runner.Parallel = 2
	}
	if cfg.Runner.ReportFormat == "" {
		cfg.Runner.ReportFormat = "text"
	}
	if cfg.Runner.Timeout == 0 {
		cfg.Runner.Timeout = 10 * time.Minute
	}
}

// Validate checks struct tags and the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	seen := make(map[string]bool, len(c.Providers.Enabled))
	for _, p := range c.Providers.Enabled {
		if seen[p] {
			return fmt.Errorf("providers.enabled: duplicate provider %q", p)
		}
		seen[p] = true
	}
	if seen[ProviderPostgres] && !c.Providers.Postgres.UseContainer && c.Providers.Postgres.DSN == "" {
		return fmt.Errorf("providers.postgres.dsn is required when use_container is false")
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return fmt.Errorf("invalid configuration: %w", err)
}
