// Package middleware provides the tool call middleware of the server.
package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/logging"
)

// maxLoggedOutput caps the bytes of tool output written to the log.
const maxLoggedOutput = 500

// LoggingConfig configures the logging middleware.
type LoggingConfig struct {
	// LogInput logs the tool input (may contain credentials passed to init-backend).
	LogInput bool
	// LogOutput logs the tool output (may be large).
	LogOutput bool
}

// Logging returns middleware that logs tool execution.
func Logging(cfg LoggingConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()

			entry := logging.Debug().
				Add(logging.SessionID(execCtx.SessionID)).
				Add(logging.RequestID(execCtx.RequestID)).
				Add(logging.ToolName(execCtx.Tool.Name()))
			if cfg.LogInput && len(execCtx.Input) > 0 {
				entry = entry.Add(logging.Str("input", string(execCtx.Input)))
			}
			entry.Msg("executing tool")

			result, err := next(ctx, execCtx)
			duration := time.Since(start)

			if err != nil {
				logging.Error().
					Add(logging.SessionID(execCtx.SessionID)).
					Add(logging.RequestID(execCtx.RequestID)).
					Add(logging.ToolName(execCtx.Tool.Name())).
					Add(logging.ErrorField(err)).
					Add(logging.Duration(duration)).
					Msg("tool execution failed")
				return result, err
			}

			done := logging.Info().
				Add(logging.SessionID(execCtx.SessionID)).
				Add(logging.RequestID(execCtx.RequestID)).
				Add(logging.ToolName(execCtx.Tool.Name())).
				Add(logging.Duration(duration)).
				Add(logging.Bytes(int64(len(result.Output))))
			if cfg.LogOutput && len(result.Output) > 0 {
				output := string(result.Output)
				if len(output) > maxLoggedOutput {
					output = output[:maxLoggedOutput] + "..."
				}
				done = done.Add(logging.Str("output", output))
			}
			done.Msg("tool executed")

			return result, nil
		}
	}
}
