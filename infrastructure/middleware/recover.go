package middleware

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/logging"
)

// Recover returns middleware that turns a panic in a tool or backend into
// a BackendError, so one bad call cannot take the server down.
func Recover() middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (result tool.Result, err error) {
			defer func() {
				if r := recover(); r != nil {
					logging.Error().
						Add(logging.RequestID(execCtx.RequestID)).
						Add(logging.ToolName(execCtx.Tool.Name())).
						Add(logging.Str("panic", fmt.Sprint(r))).
						Msg("tool panicked")
					result = tool.Result{}
					err = storage.Backend(execCtx.Tool.Name(), fmt.Errorf("panic: %v", r))
				}
			}()
			return next(ctx, execCtx)
		}
	}
}
