package observe_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/minhngo-dev/readalign/internal/observe"
)

func spanContext(t *testing.T) (context.Context, func()) {
	t.Helper()

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	return ctx, func() {
		span.End()
		_ = tp.Shutdown(context.Background())
	}
}

func TestCorrelationID(t *testing.T) {
	t.Parallel()

	if got := observe.CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(no span) = %q, want empty", got)
	}

	ctx, done := spanContext(t)
	defer done()

	got := observe.CorrelationID(ctx)
	want := trace.SpanContextFromContext(ctx).TraceID().String()
	if got != want {
		t.Errorf("CorrelationID = %q, want %q", got, want)
	}
}

func TestLogger_BindsTraceIDs(t *testing.T) {
	// Not parallel: swaps the default slog logger.
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx, done := spanContext(t)
	defer done()

	observe.Logger(ctx).Info("session recorded", "user_id", "user-1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	wantTrace := trace.SpanContextFromContext(ctx).TraceID().String()
	if line["trace_id"] != wantTrace {
		t.Errorf("trace_id = %v, want %v", line["trace_id"], wantTrace)
	}
	if _, ok := line["span_id"]; !ok {
		t.Error("span_id missing from log line")
	}

	buf.Reset()
	observe.Logger(context.Background()).Info("no span")
	var bare map[string]any
	if err := json.Unmarshal(buf.Bytes(), &bare); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if _, ok := bare["trace_id"]; ok {
		t.Error("trace_id present on a log line outside any span")
	}
}

func TestSetup_Shutdown(t *testing.T) {
	// Not parallel: Setup mutates the global OTel providers.
	shutdown, err := observe.Setup(observe.TelemetryConfig{
		ServiceName:    "readalign-test",
		ServiceVersion: "0.0.0-test",
	})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}
