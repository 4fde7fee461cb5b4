package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// TelemetryConfig describes the service identity reported in telemetry and
// the optional span export.
type TelemetryConfig struct {
	// ServiceName defaults to "readalign".
	ServiceName string

	// ServiceVersion is usually the build version injected via ldflags.
	ServiceVersion string

	// SpanExporter, when set, enables batched span export (OTLP in a real
	// deployment). Left nil, spans stay in-process; metrics are still
	// scraped from /metrics either way.
	SpanExporter sdktrace.SpanExporter
}

// Setup registers the global OTel metric and trace providers for the
// service. Metrics flow through the Prometheus exporter bridge into the
// default registry, which the API serves at /metrics.
//
// The returned function flushes and stops both providers; call it in a defer
// from main.
func Setup(cfg TelemetryConfig) (func(context.Context) error, error) {
	res, err := serviceResource(cfg)
	if err != nil {
		return nil, err
	}

	bridge, err := promexporter.New()
	if err != nil {
		return nil, err
	}
	meters := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(bridge),
	)

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.SpanExporter != nil {
		traceOpts = append(traceOpts, sdktrace.WithBatcher(cfg.SpanExporter))
	}
	tracers := sdktrace.NewTracerProvider(traceOpts...)

	otel.SetMeterProvider(meters)
	otel.SetTracerProvider(tracers)

	return func(ctx context.Context) error {
		return errors.Join(meters.Shutdown(ctx), tracers.Shutdown(ctx))
	}, nil
}

// serviceResource merges the service identity into the default OTel
// resource attributes.
func serviceResource(cfg TelemetryConfig) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "readalign"
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(name),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
}
