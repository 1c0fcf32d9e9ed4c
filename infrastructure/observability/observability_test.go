package observability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

func execContext(name string, err error) *middleware.ExecutionContext {
	t := tool.NewBuilder(name).
		WithHandler(func(context.Context, json.RawMessage) (tool.Result, error) {
			if err != nil {
				return tool.Result{}, err
			}
			return tool.Result{Output: json.RawMessage(`{"ok":true}`)}, nil
		}).
		MustBuild()
	return &middleware.ExecutionContext{SessionID: "s1", RequestID: "r1", Tool: t}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Tracer() == nil || p.Meter() == nil {
		t.Fatal("expected non-nil tracer and meter")
	}

	summary, err := p.Snapshot(context.Background())
	if err != nil || summary != nil {
		t.Errorf("Snapshot() with metrics disabled = %v, %v", summary, err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_UnknownExporter(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), WithTracing("zipkin", ""))
	if !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("New() error = %v, want ErrUnknownExporter", err)
	}
}

func TestNew_NoopExporter(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), WithTracing(ExporterNoop, ""))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(p.shutdownFuncs) != 0 {
		t.Errorf("noop exporter registered %d shutdown funcs", len(p.shutdownFuncs))
	}
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, err := New(ctx, WithMetrics())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mw, err := MetricsMiddleware(p.Meter())
	if err != nil {
		t.Fatalf("MetricsMiddleware() error = %v", err)
	}
	handler := mw(middleware.Terminal())

	if _, err := handler(ctx, execContext("get-object", nil)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	failure := storage.Uninitialized("get-object")
	if _, err := handler(ctx, execContext("get-object", failure)); !errors.Is(err, storage.ErrUninitializedBackend) {
		t.Fatalf("handler error = %v, want ErrUninitializedBackend", err)
	}

	summary, err := p.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	got := make(map[string]MetricSummary)
	for _, s := range summary {
		got[s.Name] = s
	}
	if got[MetricCalls].Count != 2 {
		t.Errorf("%s = %d, want 2", MetricCalls, got[MetricCalls].Count)
	}
	if got[MetricErrors].Count != 1 {
		t.Errorf("%s = %d, want 1", MetricErrors, got[MetricErrors].Count)
	}
	if got[MetricDuration].Count != 2 {
		t.Errorf("%s count = %d, want 2", MetricDuration, got[MetricDuration].Count)
	}

	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	handler := TracingMiddleware(tp.Tracer("test"))(middleware.Terminal())

	ctx := context.Background()
	if _, err := handler(ctx, execContext("head-bucket", nil)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	_, _ = handler(ctx, execContext("delete-object", storage.Backend("delete-object", errors.New("denied"))))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "tool.head-bucket" || spans[0].Status().Code != codes.Ok {
		t.Errorf("span[0] = %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Name() != "tool.delete-object" || spans[1].Status().Code != codes.Error {
		t.Errorf("span[1] = %s %v", spans[1].Name(), spans[1].Status())
	}

	var kind string
	for _, attr := range spans[1].Attributes() {
		if attr.Key == "error.kind" {
			kind = attr.Value.AsString()
		}
	}
	if kind != string(storage.KindBackend) {
		t.Errorf("error.kind = %q, want %s", kind, storage.KindBackend)
	}
}
