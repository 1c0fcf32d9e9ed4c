package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/storage-mcp/application"
	domainconfig "github.com/felixgeelhaar/storage-mcp/domain/config"
	domainmw "github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/logging"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/mcp"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/middleware"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/observability"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/resilience"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/storage/memory"
	"github.com/felixgeelhaar/storage-mcp/pack/objectstore"
)

const defaultInstructions = "Call init-backend before any other tool. " +
	"put-cloudobject returns an index; later cloudobject tools refer to that index, " +
	"and deleting a cloudobject shifts every later index down by one."

// runtime wires one server run: session, tools, middleware and telemetry.
type runtime struct {
	config    *domainconfig.ServerConfig
	session   *application.Session
	server    *mcp.Server
	telemetry *observability.Provider
}

func initLogging(cfg domainconfig.LogConfig) {
	logging.Init(logging.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: os.Stderr,
	})
	logging.SetLevel(cfg.Level)
}

func newRuntime(ctx context.Context, cfg *domainconfig.ServerConfig, sessionOpts ...application.Option) (*runtime, error) {
	version := cfg.Server.Version
	if version == "" {
		version = Version
	}

	telemetry, err := observability.New(ctx, telemetryOptions(cfg, version)...)
	if err != nil {
		return nil, fmt.Errorf("set up telemetry: %w", err)
	}

	sessionOpts = append([]application.Option{
		application.WithDefaults(cfg.Storage.InitRequest()),
	}, sessionOpts...)
	session := application.NewSession(sessionOpts...)

	p, err := objectstore.New(session, objectstore.WithMaxObjectSize(cfg.Limits.MaxObjectSize))
	if err != nil {
		return nil, err
	}
	tools := memory.NewToolRegistry()
	if err := p.Install(tools); err != nil {
		return nil, fmt.Errorf("install %s pack: %w", p.Name, err)
	}

	chain, err := buildMiddleware(cfg, telemetry)
	if err != nil {
		return nil, err
	}

	instructions := cfg.Server.Instructions
	if instructions == "" {
		instructions = defaultInstructions
	}
	server, err := mcp.NewServer(mcp.ServerConfig{
		Name:         cfg.Server.Name,
		Version:      version,
		Description:  p.Description,
		Instructions: instructions,
		SessionID:    session.ID(),
		Registry:     tools,
		Middleware:   chain,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		config:    cfg,
		session:   session,
		server:    server,
		telemetry: telemetry,
	}, nil
}

func telemetryOptions(cfg *domainconfig.ServerConfig, version string) []observability.Option {
	opts := []observability.Option{
		observability.WithServiceName(cfg.Server.Name),
		observability.WithServiceVersion(version),
	}
	if cfg.Tracing.Enabled {
		opts = append(opts,
			observability.WithTracing(observability.ExporterType(cfg.Tracing.Exporter), cfg.Tracing.Endpoint),
			observability.WithSampleRate(cfg.Tracing.SampleRate),
		)
		if cfg.Tracing.Insecure {
			opts = append(opts, observability.WithTracingInsecure())
		}
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, observability.WithMetrics())
	}
	return opts
}

// buildMiddleware assembles the tool call chain, outermost first.
func buildMiddleware(cfg *domainconfig.ServerConfig, telemetry *observability.Provider) (*domainmw.Registry, error) {
	metrics, err := observability.MetricsMiddleware(telemetry.Meter())
	if err != nil {
		return nil, fmt.Errorf("set up metrics: %w", err)
	}

	return domainmw.NewRegistry().UseMany(
		middleware.Recover(),
		middleware.Duration(),
		middleware.Logging(middleware.LoggingConfig{}),
		observability.TracingMiddleware(telemetry.Tracer()),
		metrics,
		middleware.RateLimit(middleware.RateLimitConfig{
			Rate:  cfg.Limits.RateLimit,
			Burst: cfg.Limits.RateBurst,
		}),
		resilience.Bulkhead(resilience.WithMaxConcurrent(cfg.Limits.MaxConcurrent)),
		middleware.Timeout(cfg.Limits.CallTimeout.Duration()),
	), nil
}

// close releases the storage client and flushes telemetry.
func (r *runtime) close(ctx context.Context) error {
	return errors.Join(
		r.session.Close(),
		r.telemetry.Shutdown(ctx),
	)
}
