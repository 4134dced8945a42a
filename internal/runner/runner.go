// Package runner executes the query catalogs against the configured
// providers outside of go test and collects the outcomes into a Report.
package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/infrastructure/config"
	"github.com/ormspec/queryspec/internal/infrastructure/lock"
	"github.com/ormspec/queryspec/internal/infrastructure/logger"
	"github.com/ormspec/queryspec/internal/infrastructure/telemetry"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/provider"
	"github.com/ormspec/queryspec/internal/querytest"
)

// Result is the outcome of one scenario in one mode on one provider
type Result struct {
	Provider string        `yaml:"provider"`
	Scenario string        `yaml:"scenario"`
	Mode     string        `yaml:"mode"`
	Passed   bool          `yaml:"passed"`
	Failures []string      `yaml:"failures,omitempty"`
	Duration time.Duration `yaml:"duration"`
}

// Options tunes a run beyond what the configuration holds
type Options struct {
	// Providers overrides cfg.Providers.Enabled when set
	Providers []string
	// Locker overrides the locker built from cfg.Lock
	Locker lock.Locker
	// Asserter options applied to every scenario, e.g. tracer and metrics
	Asserter []oracle.Option
}

// Run executes every scenario of suites in each mode on each enabled
// provider. Providers run concurrently up to cfg.Runner.Parallel. A
// provider that cannot be opened fails the run; failing scenarios only
// show up in the report.
func Run(ctx context.Context, cfg *config.Config, providers *provider.Registry, suites []querytest.Suite, opts Options) (*Report, error) {
	log := logger.FromContext(ctx)

	names := opts.Providers
	if len(names) == 0 {
		names = cfg.Providers.Enabled
	}
	selected := make([]provider.Provider, 0, len(names))
	for _, name := range names {
		p, err := providers.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, p)
	}

	locker := opts.Locker
	if locker == nil {
		var err error
		if locker, err = lock.New(cfg.Lock, log); err != nil {
			return nil, fmt.Errorf("failed to create store lock: %w", err)
		}
	}

	report := &Report{Started: time.Now()}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Runner.Parallel)
	for _, p := range selected {
		g.Go(func() error {
			results, err := runProvider(gctx, cfg, p, suites, locker, opts.Asserter)
			mu.Lock()
			report.Results = append(report.Results, results...)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()

	report.Finished = time.Now()
	report.sort()
	log.Info("Run finished",
		zap.Int("results", len(report.Results)),
		zap.Int("failed", report.Failed()),
		zap.Duration("elapsed", report.Finished.Sub(report.Started)),
	)
	return report, err
}

func runProvider(ctx context.Context, cfg *config.Config, p provider.Provider, suites []querytest.Suite, locker lock.Locker, asserterOpts []oracle.Option) ([]Result, error) {
	ctx = logger.WithProvider(ctx, p.Name())
	log := logger.FromContext(ctx)

	db, err := p.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open provider %s: %w", p.Name(), err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close store", zap.Error(err))
		}
	}()

	env := &querytest.Env{
		Provider: p.Name(),
		DB:       db,
		Store:    fixture.NewSharedStore(p.Name(), locker, cfg.Lock.TTL, log),
		Seed:     cfg.Seed.Value,
		Options:  append([]oracle.Option{oracle.WithLogger(log)}, asserterOpts...),
	}

	var (
		results []Result
		runErr  error
	)
	telemetry.WithProfileLabels(ctx, func(ctx context.Context) {
		for _, suite := range suites {
			for _, sc := range suite.Scenarios {
				if runErr = ctx.Err(); runErr != nil {
					return
				}
				results = append(results, runScenario(ctx, env, suite.Name+"/"+sc.Name, sc)...)
			}
		}
	}, "provider", p.Name())
	return results, runErr
}

func runScenario(ctx context.Context, env *querytest.Env, name string, sc querytest.Scenario) []Result {
	ctx = logger.WithScenario(ctx, name)
	results := make([]Result, 0, len(querytest.Modes))

	start := time.Now()
	a, err := env.Asserter(ctx, sc.Fixture)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to prepare fixture", zap.String("fixture", sc.Fixture), zap.Error(err))
		for _, mode := range querytest.Modes {
			results = append(results, Result{
				Provider: env.Provider,
				Scenario: name,
				Mode:     string(mode),
				Failures: []string{fmt.Sprintf("fixture %s: %v", sc.Fixture, err)},
				Duration: time.Since(start),
			})
		}
		return results
	}

	for _, mode := range querytest.Modes {
		start := time.Now()
		rec := oracle.Capture(func(t oracle.TestingT) {
			sc.Run(t, a.WithScenario(name).WithMode(mode))
		})
		results = append(results, Result{
			Provider: env.Provider,
			Scenario: name,
			Mode:     string(mode),
			Passed:   !rec.Failed(),
			Failures: rec.Failures(),
			Duration: time.Since(start),
		})
	}
	return results
}

// Seed opens the named provider and seeds the fixtures the suites read
// from, without running any scenario
func Seed(ctx context.Context, cfg *config.Config, providers *provider.Registry, name string, suites []querytest.Suite) ([]string, error) {
	p, err := providers.Get(name)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithProvider(ctx, name)
	log := logger.FromContext(ctx)

	locker, err := lock.New(cfg.Lock, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create store lock: %w", err)
	}

	db, err := p.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open provider %s: %w", name, err)
	}
	defer func() { _ = db.Close() }()

	env := &querytest.Env{
		Provider: name,
		DB:       db,
		Store:    fixture.NewSharedStore(name, locker, cfg.Lock.TTL, log),
		Seed:     cfg.Seed.Value,
	}
	seeded := querytest.FixtureNames(suites)
	for _, fx := range seeded {
		if _, err := env.Asserter(ctx, fx); err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", fx, err)
		}
		log.Info("Fixture ready", zap.String("fixture", fx))
	}
	return seeded, nil
}

// sort orders results by provider, then scenario, then mode
func (r *Report) sort() {
	sort.SliceStable(r.Results, func(i, j int) bool {
		a, b := r.Results[i], r.Results[j]
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		if a.Scenario != b.Scenario {
			return a.Scenario < b.Scenario
		}
		return a.Mode < b.Mode
	})
}
