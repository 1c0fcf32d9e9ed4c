// Package middleware provides composable middleware for tool execution.
package middleware

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

// ExecutionContext describes one tool call.
type ExecutionContext struct {
	// SessionID identifies the server session the call belongs to.
	SessionID string
	// RequestID is unique per call.
	RequestID string
	// Tool is the tool being executed.
	Tool tool.Tool
	// Input is the JSON input for the tool.
	Input json.RawMessage
	// Vars carries values between middleware, e.g. the backend name.
	Vars map[string]any
}

// Set stores a value in Vars, allocating the map on first use.
func (ec *ExecutionContext) Set(key string, value any) {
	if ec.Vars == nil {
		ec.Vars = make(map[string]any)
	}
	ec.Vars[key] = value
}

// Handler executes a tool and returns its result.
type Handler func(ctx context.Context, execCtx *ExecutionContext) (tool.Result, error)

// Middleware wraps a Handler with additional behavior.
// Middleware can:
// - Execute code before the next handler
// - Execute code after the next handler
// - Short-circuit by not calling next
// - Transform results or errors
type Middleware func(next Handler) Handler

// Chain composes multiple middleware into a single middleware.
// Middleware are executed in the order provided, with each wrapping the next.
// For example, Chain(A, B, C) produces: A -> B -> C -> handler
func Chain(middlewares ...Middleware) Middleware {
	return func(final Handler) Handler {
		handler := final
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// Noop returns a middleware that does nothing, just passes through.
func Noop() Middleware {
	return func(next Handler) Handler {
		return next
	}
}

// Terminal returns the handler that finally executes the tool.
func Terminal() Handler {
	return func(ctx context.Context, ec *ExecutionContext) (tool.Result, error) {
		return ec.Tool.Execute(ctx, ec.Input)
	}
}
