package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Assertion results recorded by AssertionMetrics.
const (
	ResultPassed = "passed"
	ResultFailed = "failed"
)

// AssertionMetrics holds the instruments the oracle records into.
type AssertionMetrics struct {
	assertions *Counter
	duration   *Histogram
	tracked    *Counter
}

// NewAssertionMetrics creates the oracle instruments on meter.
func NewAssertionMetrics(meter metric.Meter) (*AssertionMetrics, error) {
	assertions, err := NewCounter(meter,
		"queryspec_assertions_total",
		"Oracle assertions by assertion kind, provider and result",
		"{assertion}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "queryspec_assertion_duration_seconds",
		Description: "Time spent running the actual and expected sides of an assertion",
		Unit:        "s",
		Boundaries:  AssertionDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	tracked, err := NewCounter(meter,
		"queryspec_tracked_entities_total",
		"Entities observed by the change tracker after actual queries",
		"{entity}",
	)
	if err != nil {
		return nil, err
	}

	return &AssertionMetrics{assertions: assertions, duration: duration, tracked: tracked}, nil
}

// AssertionSample describes one finished assertion.
type AssertionSample struct {
	Provider  string
	Assertion string
	Mode      string
	Passed    bool
	Duration  time.Duration
	Tracked   int
}

// Record records s. A nil receiver is a no-op.
func (m *AssertionMetrics) Record(ctx context.Context, s AssertionSample) {
	if m == nil {
		return
	}
	result := ResultPassed
	if !s.Passed {
		result = ResultFailed
	}
	attrs := []attribute.KeyValue{
		AttrProvider.String(s.Provider),
		AttrAssertion.String(s.Assertion),
		AttrMode.String(s.Mode),
	}
	m.assertions.Inc(ctx, append(attrs, AttrResult.String(result))...)
	m.duration.RecordDuration(ctx, s.Duration, attrs...)
	if s.Tracked > 0 {
		m.tracked.Add(ctx, int64(s.Tracked), AttrProvider.String(s.Provider))
	}
}
