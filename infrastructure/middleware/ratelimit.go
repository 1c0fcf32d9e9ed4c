package middleware

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/logging"
)

// ErrRateLimitExceeded is returned when a call is rejected by the rate limiter.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimitScope defines the scope for rate limiting.
type RateLimitScope string

const (
	// ScopeGlobal applies one limit across all tools.
	ScopeGlobal RateLimitScope = "global"
	// ScopePerTool applies a separate limit per tool.
	ScopePerTool RateLimitScope = "per_tool"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Limiter is the rate limiter to use. If nil, one is created from Rate and Burst.
	Limiter ratelimit.RateLimiter

	// Scope determines how rate limiting keys are generated. Default is ScopeGlobal.
	Scope RateLimitScope

	// Rate is the number of tokens added per interval.
	Rate int

	// Burst is the bucket capacity; defaults to Rate.
	Burst int

	// Wait blocks until capacity is available instead of rejecting.
	Wait bool
}

// RateLimit returns middleware that enforces a token bucket limit on tool
// calls. A config without Limiter and with a non-positive Rate disables it.
func RateLimit(cfg RateLimitConfig) middleware.Middleware {
	limiter := cfg.Limiter
	if limiter == nil {
		if cfg.Rate <= 0 {
			return middleware.Noop()
		}
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.Rate
		}
		limiter = ratelimit.New(&ratelimit.Config{
			Rate:  cfg.Rate,
			Burst: burst,
		})
	}

	scope := cfg.Scope
	if scope == "" {
		scope = ScopeGlobal
	}

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			key := string(ScopeGlobal)
			if scope == ScopePerTool {
				key = execCtx.Tool.Name()
			}

			if cfg.Wait {
				if err := limiter.Wait(ctx, key); err != nil {
					return tool.Result{}, errors.Join(ErrRateLimitExceeded, err)
				}
				return next(ctx, execCtx)
			}

			if !limiter.Allow(ctx, key) {
				logging.Warn().
					Add(logging.ToolName(execCtx.Tool.Name())).
					Add(logging.Str("scope", string(scope))).
					Msg("rate limit exceeded")
				return tool.Result{}, ErrRateLimitExceeded
			}
			return next(ctx, execCtx)
		}
	}
}
