package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Name is the server name reported to clients.
	Name string

	// Version is the server version reported to clients.
	Version string

	// Description is an optional server description.
	Description string

	// Instructions provides usage instructions for clients.
	Instructions string

	// SessionID is stamped on every call's execution context.
	SessionID string

	// Registry holds the tools to expose.
	Registry tool.Registry

	// Middleware wraps every tool call. Nil means no middleware.
	Middleware *middleware.Registry
}

// Server exposes the tools of a registry over MCP. Every call runs through
// the middleware chain and failures are reported as ToolError.
type Server struct {
	srv       *mcpgo.Server
	registry  tool.Registry
	handler   middleware.Handler
	sessionID string
}

// NewServer creates a server and registers every tool of cfg.Registry.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}
	chain := cfg.Middleware
	if chain == nil {
		chain = middleware.NewRegistry()
	}

	info := mcpgo.ServerInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
		Capabilities: mcpgo.Capabilities{
			Tools: true,
		},
	}

	var opts []mcpgo.Option
	if cfg.Instructions != "" {
		opts = append(opts, mcpgo.WithInstructions(cfg.Instructions))
	}

	s := &Server{
		srv:       mcpgo.NewServer(info, opts...),
		registry:  cfg.Registry,
		handler:   chain.Handler(),
		sessionID: cfg.SessionID,
	}
	for _, t := range cfg.Registry.List() {
		s.register(t)
	}
	return s, nil
}

func (s *Server) register(t tool.Tool) {
	s.srv.Tool(t.Name()).
		Description(t.Description()).
		Handler(func(ctx context.Context, input json.RawMessage) (string, error) {
			return s.execute(ctx, t, input)
		})
}

// Call runs the named tool through the middleware chain, exactly as an MCP
// client request would.
func (s *Server) Call(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := s.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", tool.ErrToolNotFound, name)
	}
	return s.execute(ctx, t, input)
}

func (s *Server) execute(ctx context.Context, t tool.Tool, input json.RawMessage) (string, error) {
	ec := &middleware.ExecutionContext{
		SessionID: s.sessionID,
		RequestID: uuid.NewString(),
		Tool:      t,
		Input:     input,
	}
	result, err := s.handler(ctx, ec)
	if err != nil {
		return "", NewToolError(err)
	}
	return result.OutputString(), nil
}

// Tools returns the exposed tools in registration order.
func (s *Server) Tools() []tool.Tool {
	return s.registry.List()
}

// ServeStdio runs the server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context, opts ...ServeOption) error {
	return mcpgo.ServeStdio(ctx, s.srv, opts...)
}

// ServeHTTP runs the server over HTTP with SSE.
func (s *Server) ServeHTTP(ctx context.Context, addr string, opts ...HTTPOption) error {
	return mcpgo.ServeHTTP(ctx, s.srv, addr, opts...)
}
