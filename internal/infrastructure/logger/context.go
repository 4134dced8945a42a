package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey   contextKey = "logger"
	scenarioKey contextKey = "scenario"
	providerKey contextKey = "provider"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithScenario tags ctx and its logger with the running scenario name.
func WithScenario(ctx context.Context, scenario string) context.Context {
	ctx = context.WithValue(ctx, scenarioKey, scenario)
	return WithContext(ctx, FromContext(ctx).With(zap.String("scenario", scenario)))
}

// WithProvider tags ctx and its logger with the provider under test.
func WithProvider(ctx context.Context, provider string) context.Context {
	ctx = context.WithValue(ctx, providerKey, provider)
	return WithContext(ctx, FromContext(ctx).With(zap.String("provider", provider)))
}

// Scenario returns the scenario name stored in ctx.
func Scenario(ctx context.Context) string {
	s, _ := ctx.Value(scenarioKey).(string)
	return s
}

// Provider returns the provider name stored in ctx.
func Provider(ctx context.Context) string {
	p, _ := ctx.Value(providerKey).(string)
	return p
}

// L returns the context logger enriched with the active trace and span ids.
func L(ctx context.Context) *zap.Logger {
	return WithTraceContext(ctx, FromContext(ctx))
}

// WithTraceContext adds trace_id and span_id from the span in ctx. The
// logger is returned unchanged when no valid span is present.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
