package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/storage-mcp/infrastructure/logging"
)

// shutdownTimeout bounds telemetry flushing after the transport stops.
const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	httpAddr string
}

func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storage tools over MCP",
		Long: `Serve the storage tools over MCP.

The server speaks MCP over stdio by default. With --http (or server.http_addr
in the configuration) it serves the HTTP transport instead. Logs always go to
stderr.

Examples:
  # stdio, backend chosen later by init-backend
  storage-mcp serve

  # initialize the backend from the configuration file at startup
  storage-mcp serve -c storage.yaml

  # HTTP transport
  storage-mcp serve --http :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "Serve the HTTP transport on this address instead of stdio")

	return cmd
}

func (a *App) serve(ctx context.Context, opts *serveOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg.Log)

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := rt.close(shutdownCtx); err != nil {
			logging.Warn().Add(logging.ErrorField(err)).Msg("shutdown incomplete")
		}
	}()

	if cfg.Storage.AutoInit {
		if err := rt.session.AutoInit(ctx); err != nil {
			return fmt.Errorf("initialize storage backend: %w", err)
		}
	}

	addr := opts.httpAddr
	if addr == "" {
		addr = cfg.Server.HTTPAddr
	}

	logging.Info().
		Add(logging.SessionID(rt.session.ID())).
		Add(logging.Count(len(rt.server.Tools()))).
		Add(logging.Str("transport", transportName(addr))).
		Msg("storage MCP server starting")

	if addr != "" {
		err = rt.server.ServeHTTP(ctx, addr)
	} else {
		err = rt.server.ServeStdio(ctx)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func transportName(addr string) string {
	if addr == "" {
		return "stdio"
	}
	return "http " + addr
}
