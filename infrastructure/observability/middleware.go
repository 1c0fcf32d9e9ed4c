package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

// Metric names.
const (
	MetricCalls    = "storage_mcp.tool.calls"
	MetricErrors   = "storage_mcp.tool.errors"
	MetricDuration = "storage_mcp.tool.duration"
)

// TracingMiddleware creates middleware that opens one span per tool call.
func TracingMiddleware(tracer trace.Tracer) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			annotations := execCtx.Tool.Annotations()
			ctx, span := tracer.Start(ctx, "tool."+execCtx.Tool.Name(),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("tool.name", execCtx.Tool.Name()),
					attribute.String("session.id", execCtx.SessionID),
					attribute.String("request.id", execCtx.RequestID),
					attribute.Bool("tool.read_only", annotations.ReadOnly),
					attribute.Bool("tool.destructive", annotations.Destructive),
				),
			)
			defer span.End()

			result, err := next(ctx, execCtx)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(attribute.String("error.kind", string(storage.KindOf(err))))
			} else {
				span.SetStatus(codes.Ok, "")
				span.SetAttributes(attribute.Int("tool.output_bytes", len(result.Output)))
			}
			return result, err
		}
	}
}

// MetricsMiddleware creates middleware that counts tool calls and errors
// and records call latency.
func MetricsMiddleware(meter metric.Meter) (middleware.Middleware, error) {
	calls, err := meter.Int64Counter(MetricCalls,
		metric.WithDescription("Total number of tool calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Total number of failed tool calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of tool calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()
			result, err := next(ctx, execCtx)

			toolAttr := attribute.String("tool", execCtx.Tool.Name())
			status := "success"
			if err != nil {
				status = "error"
				errs.Add(ctx, 1, metric.WithAttributes(toolAttr,
					attribute.String("kind", string(storage.KindOf(err)))))
			}
			attrs := metric.WithAttributes(toolAttr, attribute.String("status", status))
			calls.Add(ctx, 1, attrs)
			duration.Record(ctx, time.Since(start).Seconds(), attrs)

			return result, err
		}
	}, nil
}
