package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScenarioOutcome is one scenario result as exported to a textfile.
type ScenarioOutcome struct {
	Provider string
	Scenario string
	Mode     string
	Passed   bool
	Duration time.Duration
}

// WriteTextfile writes outcomes in the prometheus text exposition format to
// path, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string, outcomes []ScenarioOutcome) error {
	reg := prometheus.NewRegistry()

	passed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queryspec_scenario_passed",
		Help: "1 if the scenario passed on the provider, 0 otherwise.",
	}, []string{"provider", "scenario", "mode"})
	duration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queryspec_scenario_duration_seconds",
		Help: "Wall time of the scenario on the provider.",
	}, []string{"provider", "scenario", "mode"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queryspec_scenario_failures_total",
		Help: "Failed scenarios per provider.",
	}, []string{"provider"})

	for _, c := range []prometheus.Collector{passed, duration, failures} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}

	for _, o := range outcomes {
		value := 0.0
		if o.Passed {
			value = 1
		} else {
			failures.WithLabelValues(o.Provider).Inc()
		}
		passed.WithLabelValues(o.Provider, o.Scenario, o.Mode).Set(value)
		duration.WithLabelValues(o.Provider, o.Scenario, o.Mode).Set(o.Duration.Seconds())
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
