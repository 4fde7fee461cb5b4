package observe

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
)

// responseWriter captures the status code written by the downstream handler.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// quietPaths are polled by infrastructure (Prometheus scrapes, liveness and
// readiness probes) and would drown the request log at any realistic scrape
// interval. They are still traced and measured.
var quietPaths = map[string]bool{
	"/metrics": true,
	"/healthz": true,
	"/readyz":  true,
}

// Middleware instruments every request with a server span, the request
// duration histogram, and a completion log line carrying the trace ID as
// X-Correlation-ID. Spans and metrics are labelled with the matched ServeMux
// pattern rather than the raw URL, so a reader hammering
// GET /v1/users/{id}/trend produces one series, not one per user ID.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := StartSpan(ctx, r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(semconv.HTTPRequestMethodKey.String(r.Method)),
			)
			defer span.End()

			if cid := CorrelationID(ctx); cid != "" {
				w.Header().Set("X-Correlation-ID", cid)
			}
			prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			r = r.WithContext(ctx)
			next.ServeHTTP(rw, r)

			// The mux fills in r.Pattern while routing, so the matched route
			// is only known once the handler returns. Unrouted requests (404
			// probes, stray paths) keep the raw path.
			route := r.Pattern
			if route == "" {
				route = r.URL.Path
			}
			span.SetName(route)
			span.SetAttributes(
				semconv.HTTPRoute(route),
				semconv.HTTPResponseStatusCode(rw.status),
			)

			elapsed := time.Since(start)
			m.HTTPRequestDuration.Record(ctx, elapsed.Seconds(),
				metric.WithAttributes(
					attribute.String("route", route),
					attribute.String("status", strconv.Itoa(rw.status)),
				),
			)

			if quietPaths[r.URL.Path] {
				return
			}
			slog.LogAttrs(ctx, slog.LevelInfo, "request completed",
				slog.String("trace_id", CorrelationID(ctx)),
				slog.String("route", route),
				slog.Int("status", rw.status),
				slog.Duration("duration", elapsed),
			)
		})
	}
}
