package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/ormspec/queryspec/internal/infrastructure/config"
	"github.com/ormspec/queryspec/internal/infrastructure/logger"
	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/inheritance"
	"github.com/ormspec/queryspec/internal/model/spatial"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/provider"
	"github.com/ormspec/queryspec/internal/querytest"
	"github.com/ormspec/queryspec/internal/testutil"
)

func init() {
	color.NoColor = true
}

type brokenProvider struct{}

func (brokenProvider) Name() string { return "broken" }

func (brokenProvider) Open(context.Context, *config.Config) (*persistence.Database, error) {
	return nil, errors.New("connection refused")
}

func testConfig(providers ...string) *config.Config {
	cfg := config.Default()
	cfg.Providers.Enabled = providers
	cfg.Providers.SQLite.DSN = testutil.SQLiteDSN()
	cfg.Providers.SQLitePure.DSN = testutil.SQLiteDSN()
	return cfg
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := testutil.ContextWithTimeout(t, 2*time.Minute)
	t.Cleanup(cancel)
	return logger.WithContext(ctx, zaptest.NewLogger(t))
}

func inheritanceSuites() []querytest.Suite {
	return querytest.Filter(querytest.Catalog(), regexp.MustCompile(`^Inheritance/`))
}

func scenarioCount(suites []querytest.Suite) int {
	n := 0
	for _, s := range suites {
		n += len(s.Scenarios)
	}
	return n
}

func TestRun_AllPass(t *testing.T) {
	suites := inheritanceSuites()
	cfg := testConfig(config.ProviderSQLite, config.ProviderSQLitePure)

	report, err := Run(testContext(t), cfg, provider.Default(), suites, Options{})
	require.NoError(t, err)

	assert.Len(t, report.Results, 2*len(querytest.Modes)*scenarioCount(suites))
	assert.Zero(t, report.Failed(), "%+v", report.Results)
	assert.Equal(t, []string{config.ProviderSQLite, config.ProviderSQLitePure}, report.Providers())
	assert.False(t, report.Finished.Before(report.Started))

	first := report.Results[0]
	assert.Equal(t, config.ProviderSQLite, first.Provider)
	assert.Equal(t, string(oracle.Async), first.Mode)
}

func TestRun_ProviderOverride(t *testing.T) {
	suites := inheritanceSuites()
	cfg := testConfig(config.ProviderSQLite, config.ProviderSQLitePure)

	report, err := Run(testContext(t), cfg, provider.Default(), suites, Options{Providers: []string{config.ProviderSQLitePure}})
	require.NoError(t, err)
	assert.Equal(t, []string{config.ProviderSQLitePure}, report.Providers())
}

func TestRun_RecordsFailures(t *testing.T) {
	suites := []querytest.Suite{{Name: "Broken", Scenarios: []querytest.Scenario{
		{Name: "Wrong_count", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[inheritance.InheritanceBase](persistence.ToList[inheritance.InheritanceBase]),
				oracle.Over(func(bs []inheritance.InheritanceBase) []inheritance.InheritanceBase { return bs }),
				oracle.EntryCount(1))
		}},
		{Name: "Panics", Fixture: inheritance.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			var m map[string]int
			m["boom"]++
		}},
		{Name: "Unknown_fixture", Fixture: "missing", Run: func(t oracle.TestingT, a *oracle.Asserter) {}},
	}}}

	report, err := Run(testContext(t), testConfig(config.ProviderSQLite), provider.Default(), suites, Options{})
	require.NoError(t, err)
	require.Len(t, report.Results, 3*len(querytest.Modes))
	assert.Equal(t, len(report.Results), report.Failed())
	assert.Zero(t, report.Passed())

	for _, res := range report.Results {
		require.NotEmpty(t, res.Failures, res.Scenario)
		switch res.Scenario {
		case "Broken/Panics":
			assert.Contains(t, res.Failures[0], "panic")
		case "Broken/Unknown_fixture":
			assert.Contains(t, res.Failures[0], "fixture missing")
		}
	}
}

func TestRun_UnknownProvider(t *testing.T) {
	_, err := Run(testContext(t), testConfig("db2"), provider.Default(), inheritanceSuites(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db2")
}

func TestRun_OpenFailure(t *testing.T) {
	registry := provider.NewRegistry(brokenProvider{})
	_, err := Run(testContext(t), testConfig("broken"), registry, inheritanceSuites(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRun_RedisLock(t *testing.T) {
	addr := testutil.RunRedis(t)
	cfg := testConfig(config.ProviderSQLite, config.ProviderSQLitePure)
	cfg.Lock.Backend = "redis"
	cfg.Lock.Redis.Addr = addr

	suites := querytest.Filter(querytest.Catalog(), regexp.MustCompile(`^Spatial/`))
	report, err := Run(testContext(t), cfg, provider.Default(), suites, Options{})
	require.NoError(t, err)
	assert.Zero(t, report.Failed())
}

func TestSeed(t *testing.T) {
	cfg := testConfig(config.ProviderSQLite)
	suites := querytest.Filter(querytest.Catalog(), regexp.MustCompile(`^(Spatial|Inheritance)/`))

	seeded, err := Seed(testContext(t), cfg, provider.Default(), config.ProviderSQLite, suites)
	require.NoError(t, err)
	assert.Equal(t, []string{inheritance.Name, spatial.Name}, seeded)

	_, err = Seed(testContext(t), cfg, provider.Default(), "db2", suites)
	require.Error(t, err)
}

func sampleReport() *Report {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Report{
		Started:  start,
		Finished: start.Add(time.Second),
		Results: []Result{
			{Provider: "sqlite", Scenario: "Where/Where_simple", Mode: "async", Passed: true, Duration: 3 * time.Millisecond},
			{Provider: "sqlite", Scenario: "Where/Where_simple", Mode: "sync", Passed: false, Failures: []string{"count mismatch"}, Duration: time.Millisecond},
			{Provider: "sqlitepure", Scenario: "Where/Where_simple", Mode: "sync", Passed: true, Duration: 2 * time.Millisecond},
		},
	}
}

func TestReport_Counts(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, 2, r.Passed())
	assert.Equal(t, []string{"sqlite", "sqlitepure"}, r.Providers())
}

func TestReport_WriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, FormatText))

	out := buf.String()
	assert.Contains(t, out, "PROVIDER")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "count mismatch")
	assert.Contains(t, out, "sqlite: 1/2 passed")
	assert.Contains(t, out, "sqlitepure: 1/1 passed")
}

func TestReport_WriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, FormatYAML))

	var decoded struct {
		Results []struct {
			Provider string   `yaml:"provider"`
			Scenario string   `yaml:"scenario"`
			Passed   bool     `yaml:"passed"`
			Failures []string `yaml:"failures"`
		} `yaml:"results"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Results, 3)
	assert.False(t, decoded.Results[1].Passed)
	assert.Equal(t, []string{"count mismatch"}, decoded.Results[1].Failures)
	assert.Empty(t, decoded.Results[0].Failures)
}

func TestReport_UnknownFormat(t *testing.T) {
	require.Error(t, sampleReport().Write(&bytes.Buffer{}, "xml"))
}

func TestReport_WriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queryspec.prom")
	require.NoError(t, sampleReport().WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `queryspec_scenario_passed{mode="sync",provider="sqlite",scenario="Where/Where_simple"} 0`)
	assert.Contains(t, string(data), `queryspec_scenario_failures_total{provider="sqlite"} 1`)
}

func TestReport_Sort(t *testing.T) {
	r := &Report{Results: []Result{
		{Provider: "sqlitepure", Scenario: "A", Mode: "sync"},
		{Provider: "sqlite", Scenario: "B", Mode: "sync"},
		{Provider: "sqlite", Scenario: "A", Mode: "sync"},
		{Provider: "sqlite", Scenario: "A", Mode: "async"},
	}}
	r.sort()
	got := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		got = append(got, res.Provider+" "+res.Scenario+" "+res.Mode)
	}
	assert.Equal(t, []string{"sqlite A async", "sqlite A sync", "sqlite B sync", "sqlitepure A sync"}, got)
}
