// Package tracing sets up an optional, off-by-default OpenTelemetry tracer
// provider with a stdout exporter: a workspace never requires a collector
// to function. The storage, ingestion and query components do not start
// spans themselves.
package tracing

import (
	"context"
	"fmt"

	"github.com/snapbase/snapbase/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds tracing configuration. Endpoint is interpreted by the chosen
// exporter; the stdout exporter used here ignores it but the field is kept so
// a future OTLP exporter can be swapped in without changing callers.
type Config struct {
	Enabled  bool
	Endpoint string
}

// Provider owns a TracerProvider. New installs an enabled one as the
// process-wide OpenTelemetry global provider.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	logger         *logging.Logger
	enabled        bool
}

// New creates and initializes the tracing provider. When cfg.Enabled is
// false it returns a Provider whose GetTracer falls back to the global
// no-op tracer and whose Shutdown is a no-op.
func New(cfg Config) (*Provider, error) {
	logger := logging.GetLogger("tracing")

	if !cfg.Enabled {
		logger.Debug("tracing disabled")
		return &Provider{logger: logger, enabled: false}, nil
	}

	ctx := context.Background()

	exporter, err := stdouttrace.New(stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("snapbase"),
			semconv.ServiceVersion("0.1.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)

	logger.InfoWithFields("tracing initialized", logging.Field("endpoint", cfg.Endpoint))

	return &Provider{tracerProvider: tracerProvider, logger: logger, enabled: true}, nil
}

// Shutdown flushes any pending spans. Safe to call on a disabled provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		p.logger.ErrorWithErr("tracer shutdown failed", err)
		return err
	}
	return nil
}

// Tracer returns a named tracer from the OpenTelemetry global provider.
// That is the no-op tracer unless an enabled Provider has been created in
// this process, so instrumented code never needs to branch on IsEnabled.
func (p *Provider) Tracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}

// IsEnabled reports whether spans are actually being exported.
func (p *Provider) IsEnabled() bool {
	return p.enabled
}
