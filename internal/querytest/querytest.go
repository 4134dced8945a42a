// Package querytest holds the provider independent query scenarios. Each
// scenario runs queries through an oracle.Asserter against one fixture, so
// the same catalog verifies every provider the suite is pointed at.
package querytest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"testing"

	"github.com/ormspec/queryspec/internal/fixture"
	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/complexnav"
	"github.com/ormspec/queryspec/internal/model/inheritance"
	"github.com/ormspec/queryspec/internal/model/northwind"
	"github.com/ormspec/queryspec/internal/model/owned"
	"github.com/ormspec/queryspec/internal/model/spatial"
	"github.com/ormspec/queryspec/internal/oracle"
)

// Scenario is one named check over a fixture
type Scenario struct {
	Name    string
	Fixture string
	Run     func(t oracle.TestingT, a *oracle.Asserter)
}

// Suite is a named catalog of scenarios
type Suite struct {
	Name      string
	Scenarios []Scenario
}

// Catalog returns every suite in a stable order
func Catalog() []Suite {
	return []Suite{
		Simple(),
		Where(),
		ResultOperators(),
		Navigations(),
		GroupBy(),
		Include(),
		ComplexNavigations(),
		Owned(),
		Inheritance(),
		Spatial(),
		Tracking(),
	}
}

// Filter keeps the scenarios whose "suite/scenario" name matches re. Suites
// left empty are dropped.
func Filter(suites []Suite, re *regexp.Regexp) []Suite {
	if re == nil {
		return suites
	}
	var out []Suite
	for _, s := range suites {
		kept := Suite{Name: s.Name}
		for _, sc := range s.Scenarios {
			if re.MatchString(s.Name + "/" + sc.Name) {
				kept.Scenarios = append(kept.Scenarios, sc)
			}
		}
		if len(kept.Scenarios) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

// FixtureNames lists the fixtures the suites read from, sorted
func FixtureNames(suites []Suite) []string {
	seen := make(map[string]bool)
	for _, s := range suites {
		for _, sc := range s.Scenarios {
			seen[sc.Fixture] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Factories maps fixture names to their constructors
func Factories() map[string]fixture.Factory {
	return map[string]fixture.Factory{
		northwind.Name:   northwind.Factory,
		complexnav.Name:  complexnav.Factory,
		inheritance.Name: inheritance.Factory,
		owned.Name:       owned.Factory,
		spatial.Name:     spatial.Factory,
	}
}

// Env binds the catalogs to one provider store. Fixtures are built lazily
// and seeded on first use.
type Env struct {
	Provider string
	DB       *persistence.Database
	Store    *fixture.SharedStore
	Seed     uint64
	Options  []oracle.Option

	mu       sync.Mutex
	fixtures map[string]fixture.Fixture
}

// Fixture returns the named fixture, building it on first use
func (e *Env) Fixture(name string) (fixture.Fixture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fx, ok := e.fixtures[name]; ok {
		return fx, nil
	}
	factory, ok := Factories()[name]
	if !ok {
		return nil, fmt.Errorf("unknown fixture %q", name)
	}
	if e.fixtures == nil {
		e.fixtures = make(map[string]fixture.Fixture)
	}
	fx := factory(e.Seed)
	e.fixtures[name] = fx
	return fx, nil
}

// Asserter seeds the named fixture if needed and returns an asserter over it
func (e *Env) Asserter(ctx context.Context, name string) (*oracle.Asserter, error) {
	fx, err := e.Fixture(name)
	if err != nil {
		return nil, err
	}
	if err := e.Store.Ensure(ctx, e.DB, fx); err != nil {
		return nil, err
	}
	opts := append([]oracle.Option{
		oracle.WithProvider(e.Provider),
		oracle.WithSeed(e.Seed),
	}, e.Options...)
	return oracle.New(e.DB.NewSession, fx.ExpectedData(), fx.Registry(), opts...).WithContext(ctx), nil
}

// Modes are the execution modes every scenario runs in
var Modes = []oracle.Mode{oracle.Sync, oracle.Async}

// RunAll runs suites as subtests of t, every scenario once per mode
func RunAll(t *testing.T, env *Env, suites ...Suite) {
	t.Helper()
	if len(suites) == 0 {
		suites = Catalog()
	}
	for _, suite := range suites {
		t.Run(suite.Name, func(t *testing.T) {
			for _, sc := range suite.Scenarios {
				t.Run(sc.Name, func(t *testing.T) {
					a, err := env.Asserter(context.Background(), sc.Fixture)
					if err != nil {
						t.Fatalf("fixture %s: %v", sc.Fixture, err)
					}
					for _, mode := range Modes {
						t.Run(string(mode), func(t *testing.T) {
							sc.Run(t, a.WithScenario(suite.Name+"/"+sc.Name).WithMode(mode))
						})
					}
				})
			}
		})
	}
}
