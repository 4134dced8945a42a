package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ormspec/queryspec/internal/infrastructure/config"
	"github.com/ormspec/queryspec/internal/infrastructure/logger"
	"github.com/ormspec/queryspec/internal/infrastructure/telemetry"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/provider"
	"github.com/ormspec/queryspec/internal/runner"
)

type verifyOptions struct {
	providers []string
	filter    string
	format    string
	textfile  string
}

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	var opts verifyOptions

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the query catalogs against the configured providers",
		Long: `Verify seeds every fixture the selected scenarios read from, then runs each
scenario in sync and async mode against every provider and compares the
provider's results with the in-memory reference evaluation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.providers, "provider", "p", nil, "providers to verify (default: providers.enabled)")
	cmd.Flags().StringVarP(&opts.filter, "filter", "f", "", "regular expression over suite/scenario names")
	cmd.Flags().StringVar(&opts.format, "format", "", "report format: text or yaml (default: runner.report_format)")
	cmd.Flags().StringVar(&opts.textfile, "metrics-textfile", "", "write prometheus gauges to this path")
	return cmd
}

func runVerify(cmd *cobra.Command, opts verifyOptions) error {
	ctx, cfg, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	log := logger.FromContext(ctx)

	filter := opts.filter
	if filter == "" {
		filter = cfg.Runner.Filter
	}
	suites, err := selectSuites(filter)
	if err != nil {
		return err
	}
	format := opts.format
	if format == "" {
		format = cfg.Runner.ReportFormat
	}
	textfile := opts.textfile
	if textfile == "" {
		textfile = cfg.Runner.MetricsTextfile
	}

	asserterOpts, shutdown, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer shutdown()

	ctx, cancel := context.WithTimeout(ctx, cfg.Runner.Timeout)
	defer cancel()

	registry := provider.Default()
	defer func() {
		if err := registry.Close(context.Background()); err != nil {
			log.Warn("Failed to release providers", zap.Error(err))
		}
	}()

	report, err := runner.Run(ctx, cfg, registry, suites, runner.Options{
		Providers: opts.providers,
		Asserter:  asserterOpts,
	})
	if report == nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if werr := report.Write(cmd.OutOrStdout(), format); werr != nil {
		return werr
	}
	if textfile != "" {
		if werr := report.WriteTextfile(textfile); werr != nil {
			return werr
		}
	}
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d of %d scenario runs failed", n, len(report.Results))
	}
	return nil
}

// setupTelemetry starts the tracer and meter providers and the profiler,
// and returns the asserter options that report into them
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]oracle.Option, func(), error) {
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating tracer provider: %w", err)
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, fmt.Errorf("creating meter provider: %w", err)
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, fmt.Errorf("creating profiler: %w", err)
	}
	if profiler.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	shutdown := func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("Failed to stop profiler", zap.Error(err))
		}
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("Failed to flush traces", zap.Error(err))
		}
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Warn("Failed to flush metrics", zap.Error(err))
		}
	}

	metrics, err := telemetry.NewAssertionMetrics(mp.Meter(telemetry.TracerName))
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("creating assertion metrics: %w", err)
	}
	return []oracle.Option{
		oracle.WithTracer(tp.Tracer(telemetry.TracerName)),
		oracle.WithMetrics(metrics),
	}, shutdown, nil
}
