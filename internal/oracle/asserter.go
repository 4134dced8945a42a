// Package oracle checks query results of a provider against a reference
// evaluation over in-memory data. Every assertion runs the actual query
// through a fresh persistence session, runs the expected query over
// ExpectedData, brings both sides into a canonical order and compares them
// element by element.
package oracle

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ormspec/queryspec/internal/infrastructure/logger"
	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/infrastructure/telemetry"
)

// Mode selects how the actual side of an assertion is executed
type Mode string

const (
	// Sync runs the actual query on the calling goroutine
	Sync Mode = "sync"
	// Async runs the actual query on its own goroutine and awaits it
	Async Mode = "async"
)

// SessionFactory opens a session on the store under test
type SessionFactory func(ctx context.Context) *persistence.Session

// Asserter runs assertions against one store and its expected data
type Asserter struct {
	ctx      context.Context
	sessions SessionFactory
	expected *ExpectedData
	registry *Registry

	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   *telemetry.AssertionMetrics
	mode      Mode
	provider  string
	ignoreCnt bool
	strictCnt bool
	seed      uint64
	rand      *rand.Rand
}

// Option configures an Asserter
type Option func(*Asserter)

// WithLogger sets the logger assertions are reported to
func WithLogger(l *zap.Logger) Option {
	return func(a *Asserter) { a.logger = l }
}

// WithTracer sets the tracer opening one span per assertion
func WithTracer(t trace.Tracer) Option {
	return func(a *Asserter) { a.tracer = t }
}

// WithMetrics sets the assertion instruments
func WithMetrics(m *telemetry.AssertionMetrics) Option {
	return func(a *Asserter) { a.metrics = m }
}

// WithMode sets sync or async execution of actual queries
func WithMode(m Mode) Option {
	return func(a *Asserter) { a.mode = m }
}

// WithProvider names the provider in logs, spans and metrics
func WithProvider(name string) Option {
	return func(a *Asserter) { a.provider = name }
}

// WithIgnoreEntryCount skips every tracked entity count check
func WithIgnoreEntryCount() Option {
	return func(a *Asserter) { a.ignoreCnt = true }
}

// WithStrictEntryCount checks the tracked entity count even when an
// assertion expects zero
func WithStrictEntryCount() Option {
	return func(a *Asserter) { a.strictCnt = true }
}

// WithSeed seeds the random source scenarios draw from
func WithSeed(seed uint64) Option {
	return func(a *Asserter) { a.seed = seed }
}

// New creates an Asserter
func New(sessions SessionFactory, expected *ExpectedData, registry *Registry, opts ...Option) *Asserter {
	a := &Asserter{
		ctx:      context.Background(),
		sessions: sessions,
		expected: expected,
		registry: registry,
		logger:   zap.NewNop(),
		tracer:   noop.NewTracerProvider().Tracer(telemetry.TracerName),
		mode:     Sync,
		seed:     1,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = NewRegistry()
	}
	if a.expected == nil {
		a.expected = NewExpectedData()
	}
	a.rand = rand.New(rand.NewPCG(a.seed, a.seed^0x9e3779b97f4a7c15))
	return a
}

// WithContext returns a copy of a bound to ctx
func (a *Asserter) WithContext(ctx context.Context) *Asserter {
	c := *a
	c.ctx = ctx
	return &c
}

// WithScenario returns a copy of a whose context carries the scenario name
func (a *Asserter) WithScenario(name string) *Asserter {
	c := *a
	c.ctx = logger.WithScenario(a.ctx, name)
	c.rand = rand.New(rand.NewPCG(a.seed, hashName(name)))
	return &c
}

// WithMode returns a copy of a running actual queries in mode m
func (a *Asserter) WithMode(m Mode) *Asserter {
	c := *a
	c.mode = m
	return &c
}

// Context returns the context assertions run under
func (a *Asserter) Context() context.Context { return a.ctx }

// Mode returns the execution mode
func (a *Asserter) Mode() Mode { return a.mode }

// Provider returns the provider name
func (a *Asserter) Provider() string { return a.provider }

// Expected returns the reference dataset
func (a *Asserter) Expected() *ExpectedData { return a.expected }

// Registry returns the entity registry
func (a *Asserter) Registry() *Registry { return a.registry }

// Rand returns the scenario's seeded random source. It is not safe for
// concurrent use.
func (a *Asserter) Rand() *rand.Rand { return a.rand }

// NewSession opens a session on the store under test
func (a *Asserter) NewSession() *persistence.Session {
	return a.sessions(a.ctx)
}

func hashName(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// execute runs fn on a fresh session, on its own goroutine in async mode
func execute[R any](a *Asserter, ctx context.Context, fn func(s *persistence.Session) (R, error)) (R, *persistence.Session, error) {
	s := a.sessions(ctx)
	if a.mode != Async {
		r, err := fn(s)
		return r, s, err
	}
	var (
		g        errgroup.Group
		out      R
		panicked any
	)
	g.Go(func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				panicked = p
			}
		}()
		out, err = fn(s)
		return err
	})
	err := g.Wait()
	// surface the panic on the caller as sync mode would
	if panicked != nil {
		panic(panicked)
	}
	return out, s, err
}

// run wraps one assertion with a span, logging and metrics. check receives
// a TestingT that remembers failures and returns the tracked entity count.
func (a *Asserter) run(t TestingT, kind string, check func(ctx context.Context, t TestingT) int) {
	t.Helper()
	scenario := logger.Scenario(a.ctx)
	ctx, span := a.tracer.Start(a.ctx, "oracle."+kind, trace.WithAttributes(
		telemetry.AttrProvider.String(a.provider),
		telemetry.AttrScenario.String(scenario),
		telemetry.AttrAssertion.String(kind),
		telemetry.AttrMode.String(string(a.mode)),
	))
	w := &watch{TestingT: t}
	start := time.Now()
	tracked := 0

	defer func() {
		passed := !w.failed
		elapsed := time.Since(start)
		span.SetAttributes(telemetry.AttrTracked.Int(tracked))
		if !passed {
			span.SetStatus(codes.Error, "assertion failed")
		}
		span.End()

		log := logger.WithTraceContext(ctx, a.logger).With(
			zap.String("scenario", scenario),
			zap.String("provider", a.provider),
			zap.String("assertion", kind),
			zap.String("mode", string(a.mode)),
			zap.Int("tracked", tracked),
			zap.Duration("duration", elapsed),
		)
		if passed {
			log.Debug("assertion passed")
		} else {
			log.Warn("assertion failed")
		}

		a.metrics.Record(ctx, telemetry.AssertionSample{
			Provider:  a.provider,
			Assertion: kind,
			Mode:      string(a.mode),
			Passed:    passed,
			Duration:  elapsed,
			Tracked:   tracked,
		})
	}()

	tracked = check(ctx, w)
}

// checkEntryCount compares the session's tracked entities with expected.
// Zero means unchecked unless the asserter is strict.
func (a *Asserter) checkEntryCount(t TestingT, s *persistence.Session, expected int) int {
	t.Helper()
	got := s.Tracker().Count()
	if a.ignoreCnt {
		return got
	}
	if (expected != 0 || a.strictCnt) && got != expected {
		t.Errorf("tracked entity count mismatch: expected %d, got %d", expected, got)
	}
	return got
}
