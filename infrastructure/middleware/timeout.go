package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

// Timeout returns middleware that bounds each call by d. A non-positive d
// disables the limit. Backends observe the deadline through ctx.
func Timeout(d time.Duration) middleware.Middleware {
	if d <= 0 {
		return middleware.Noop()
	}
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, execCtx)
		}
	}
}

// Duration returns middleware that stamps the call duration on successful results.
func Duration() middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()
			result, err := next(ctx, execCtx)
			if err == nil {
				result.Duration = time.Since(start)
			}
			return result, err
		}
	}
}
