package runner

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/ormspec/queryspec/internal/infrastructure/telemetry"
)

// Report formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Report collects the results of a run
type Report struct {
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished"`
	Results  []Result  `yaml:"results"`
}

// Failed counts the failed results
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// Passed counts the passed results
func (r *Report) Passed() int {
	return len(r.Results) - r.Failed()
}

// Providers lists the providers with results, in report order
func (r *Report) Providers() []string {
	var out []string
	seen := make(map[string]bool)
	for _, res := range r.Results {
		if !seen[res.Provider] {
			seen[res.Provider] = true
			out = append(out, res.Provider)
		}
	}
	return out
}

// Write renders the report in format
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "", FormatText:
		return r.WriteText(w)
	case FormatYAML:
		return r.WriteYAML(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteYAML renders the report as a YAML document
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// WriteText renders a table of results followed by the failure messages
// and a per-provider summary
func (r *Report) WriteText(w io.Writer) error {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	bold := color.New(color.Bold)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tSCENARIO\tMODE\tRESULT\tDURATION")
	fmt.Fprintln(tw, "--------\t--------\t----\t------\t--------")
	for _, res := range r.Results {
		status := pass.Sprint("PASS")
		if !res.Passed {
			status = fail.Sprint("FAIL")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			res.Provider, res.Scenario, res.Mode, status, res.Duration.Round(time.Microsecond))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if r.Failed() > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Failures:")
		for _, res := range r.Results {
			if res.Passed {
				continue
			}
			fail.Fprintf(w, "  %s %s [%s]\n", res.Provider, res.Scenario, res.Mode)
			for _, msg := range res.Failures {
				fmt.Fprintf(w, "      %s\n", msg)
			}
		}
	}

	fmt.Fprintln(w)
	for _, p := range r.Providers() {
		passed, total := 0, 0
		for _, res := range r.Results {
			if res.Provider != p {
				continue
			}
			total++
			if res.Passed {
				passed++
			}
		}
		line := fmt.Sprintf("%s: %d/%d passed", p, passed, total)
		if passed == total {
			pass.Fprintln(w, line)
		} else {
			fail.Fprintln(w, line)
		}
	}
	return nil
}

// Outcomes converts the results for the prometheus textfile export
func (r *Report) Outcomes() []telemetry.ScenarioOutcome {
	out := make([]telemetry.ScenarioOutcome, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, telemetry.ScenarioOutcome{
			Provider: res.Provider,
			Scenario: res.Scenario,
			Mode:     res.Mode,
			Passed:   res.Passed,
			Duration: res.Duration,
		})
	}
	return out
}

// WriteTextfile exports the results as prometheus gauges at path
func (r *Report) WriteTextfile(path string) error {
	return telemetry.WriteTextfile(path, r.Outcomes())
}
