// Package observe provides application-wide observability primitives for
// readalign: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is registered by [Setup] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all readalign metrics.
const meterName = "github.com/minhngo-dev/readalign"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// CompareDuration tracks text comparison latency.
	CompareDuration metric.Float64Histogram

	// Comparisons counts comparison calls. Use with attribute:
	//   attribute.String("category", ...)
	Comparisons metric.Int64Counter

	// Mistakes counts detected reading mistakes. Use with attribute:
	//   attribute.String("type", ...)
	Mistakes metric.Int64Counter

	// Scores counts scoring calls. Use with attributes:
	//   attribute.String("difficulty", ...), attribute.String("category", ...)
	Scores metric.Int64Counter

	// SessionsRecorded counts practice sessions written to the history store.
	SessionsRecorded metric.Int64Counter

	// StoreErrors counts history store failures. Use with attribute:
	//   attribute.String("op", ...)
	StoreErrors metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). The
// comparison engine is in-memory and fast, so the buckets skew low.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CompareDuration, err = m.Float64Histogram("readalign.compare.duration",
		metric.WithDescription("Latency of text comparison."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Comparisons, err = m.Int64Counter("readalign.comparisons",
		metric.WithDescription("Total comparisons by performance category."),
	); err != nil {
		return nil, err
	}
	if met.Mistakes, err = m.Int64Counter("readalign.mistakes",
		metric.WithDescription("Total detected reading mistakes by type."),
	); err != nil {
		return nil, err
	}
	if met.Scores, err = m.Int64Counter("readalign.scores",
		metric.WithDescription("Total scoring calls by difficulty and category."),
	); err != nil {
		return nil, err
	}
	if met.SessionsRecorded, err = m.Int64Counter("readalign.sessions.recorded",
		metric.WithDescription("Total practice sessions written to the history store."),
	); err != nil {
		return nil, err
	}
	if met.StoreErrors, err = m.Int64Counter("readalign.store.errors",
		metric.WithDescription("Total history store failures by operation."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("readalign.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordComparison records one comparison call: its latency, the resulting
// performance category, and every detected mistake by type.
func (m *Metrics) RecordComparison(ctx context.Context, seconds float64, category string, mistakeTypes []string) {
	m.CompareDuration.Record(ctx, seconds)
	m.Comparisons.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
	for _, mt := range mistakeTypes {
		m.Mistakes.Add(ctx, 1, metric.WithAttributes(attribute.String("type", mt)))
	}
}

// RecordScore records one scoring call by difficulty and category.
func (m *Metrics) RecordScore(ctx context.Context, difficulty, category string) {
	m.Scores.Add(ctx, 1, metric.WithAttributes(
		attribute.String("difficulty", difficulty),
		attribute.String("category", category),
	))
}

// RecordStoreError counts one history store failure for the named operation.
func (m *Metrics) RecordStoreError(ctx context.Context, op string) {
	m.StoreErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
