package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for spans started by this module.
const tracerName = "github.com/minhngo-dev/readalign"

// StartSpan opens a span named name on the module tracer using the global
// provider. Callers end the span themselves.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// CorrelationID returns the active trace ID, or "" outside a recorded
// trace. The middleware mirrors it into the X-Correlation-ID response header
// so a report about one reading session can be matched to its trace and
// logs.
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger bound to the current trace and span IDs
// so handler logs line up with their spans. Outside a span it is just
// [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
