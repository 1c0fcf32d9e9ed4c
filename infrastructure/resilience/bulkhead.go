// Package resilience bounds backend concurrency using fortify.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"

	"github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

const (
	// DefaultMaxConcurrent is the default number of tool calls in flight.
	DefaultMaxConcurrent = 8

	// DefaultMaxQueue is the default number of calls waiting for a slot.
	DefaultMaxQueue = 1024
)

// BulkheadConfig configures the bulkhead middleware.
type BulkheadConfig struct {
	// MaxConcurrent limits concurrent tool executions.
	MaxConcurrent int

	// MaxQueue is how many calls may wait for a free slot. Calls beyond it
	// are rejected.
	MaxQueue int

	// QueueTimeout bounds the wait for a slot. Zero waits until the call's
	// context is done.
	QueueTimeout time.Duration
}

// DefaultBulkheadConfig returns the default configuration.
func DefaultBulkheadConfig() BulkheadConfig {
	return BulkheadConfig{
		MaxConcurrent: DefaultMaxConcurrent,
		MaxQueue:      DefaultMaxQueue,
	}
}

// Option configures the bulkhead.
type Option func(*BulkheadConfig)

// WithMaxConcurrent sets the maximum concurrent executions.
func WithMaxConcurrent(n int) Option {
	return func(c *BulkheadConfig) {
		c.MaxConcurrent = n
	}
}

// WithMaxQueue sets how many calls may wait for a slot.
func WithMaxQueue(n int) Option {
	return func(c *BulkheadConfig) {
		c.MaxQueue = n
	}
}

// WithQueueTimeout bounds how long a call waits for a slot.
func WithQueueTimeout(d time.Duration) Option {
	return func(c *BulkheadConfig) {
		c.QueueTimeout = d
	}
}

// Bulkhead returns middleware that caps the number of tool calls executing
// at once. Calls over the cap wait in a queue until a slot frees up; only a
// full queue or a done context turns a call away.
func Bulkhead(opts ...Option) middleware.Middleware {
	cfg := DefaultBulkheadConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = DefaultMaxQueue
	}

	bh := bulkhead.New[tool.Result](bulkhead.Config{
		MaxConcurrent: cfg.MaxConcurrent,
		MaxQueue:      cfg.MaxQueue,
		QueueTimeout:  cfg.QueueTimeout,
	})

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			return bh.Execute(ctx, func(ctx context.Context) (tool.Result, error) {
				return next(ctx, execCtx)
			})
		}
	}
}
