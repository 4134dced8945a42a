package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"runtime/pprof"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ormspec/queryspec/internal/infrastructure/logger"
)

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	_, span := tp.Tracer(TracerName).Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	span.End()
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	m, err := NewAssertionMetrics(mp.Meter("test"))
	require.NoError(t, err)
	m.Record(context.Background(), AssertionSample{Provider: "sqlite", Passed: true})
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestAssertionMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, zap.NewNop())
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewAssertionMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.Record(ctx, AssertionSample{Provider: "sqlite", Assertion: "AssertQuery", Mode: "sync", Passed: true, Duration: 3 * time.Millisecond, Tracked: 91})
	m.Record(ctx, AssertionSample{Provider: "sqlite", Assertion: "AssertQuery", Mode: "sync", Passed: false, Duration: time.Millisecond})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if data, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					key := md.Name
					if result, ok := dp.Attributes.Value(AttrResult); ok {
						key += "/" + result.AsString()
					}
					sums[key] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), sums["queryspec_assertions_total/passed"])
	assert.Equal(t, int64(1), sums["queryspec_assertions_total/failed"])
	assert.Equal(t, int64(91), sums["queryspec_tracked_entities_total"])
}

func TestAssertionMetrics_NilIsNoop(t *testing.T) {
	var m *AssertionMetrics
	assert.NotPanics(t, func() { m.Record(context.Background(), AssertionSample{}) })
}

func TestDBTracingPlugin(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	require.NoError(t, db.Create(&tracedRow{Name: "ALFKI"}).Error)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	cfg := DefaultDBTracingConfig("sqlite")
	cfg.Enabled = true
	cfg.TracerProvider = tp
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))

	ctx := logger.WithScenario(context.Background(), "Queryable_simple")
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	require.Len(t, rows, 1)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	found := false
	for _, s := range spans {
		for _, kv := range s.Attributes() {
			if kv.Key == AttrScenario && kv.Value.AsString() == "Queryable_simple" {
				found = true
			}
		}
	}
	assert.True(t, found, "statement span should carry the scenario name")
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	assert.NoError(t, NewDBTracingPlugin(DefaultDBTracingConfig("sqlite"), zap.NewNop()).Register(db))
	assert.Nil(t, db.Callback().Query().Get("queryspec_trace:after_query"))
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queryspec.prom")
	err := WriteTextfile(path, []ScenarioOutcome{
		{Provider: "sqlite", Scenario: "Select_Navigation", Mode: "sync", Passed: true, Duration: 20 * time.Millisecond},
		{Provider: "sqlite", Scenario: "GroupBy_on_nav_prop", Mode: "async", Passed: false, Duration: 40 * time.Millisecond},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `queryspec_scenario_passed{mode="sync",provider="sqlite",scenario="Select_Navigation"} 1`)
	assert.Contains(t, text, `queryspec_scenario_passed{mode="async",provider="sqlite",scenario="GroupBy_on_nav_prop"} 0`)
	assert.Contains(t, text, `queryspec_scenario_failures_total{provider="sqlite"} 1`)
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
	assert.False(t, lp.Core(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(&levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}).With(zap.String("provider", "sqlite"))

	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "sqlite", logs.All()[0].ContextMap()["provider"])
}

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresServer(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "queryspec"}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address")
}

func TestWithProfileLabels(t *testing.T) {
	var got string
	WithProfileLabels(context.Background(), func(ctx context.Context) {
		got, _ = pprof.Label(ctx, "provider")
	}, "provider", "sqlite")
	assert.Equal(t, "sqlite", got)

	called := false
	WithProfileLabels(context.Background(), func(context.Context) { called = true }, "odd")
	assert.True(t, called)
}
