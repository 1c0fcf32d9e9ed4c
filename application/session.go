// Package application provides the application layer of the storage server.
package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/backend"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/logging"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/storage/memory"
)

// ClientFactory creates a storage client for a resolved configuration.
type ClientFactory func(ctx context.Context, cfg storage.Config) (storage.Client, error)

// DefaultClientFactory builds clients with the backend package.
func DefaultClientFactory(ctx context.Context, cfg storage.Config) (storage.Client, error) {
	return backend.New(ctx, cfg)
}

// Session is the state shared by every tool call of one server run: the
// active storage client and the cloudobject registry.
//
// The registry outlives client replacement. Handles created under a
// previous backend stay listed, and operations on them fail with a backend
// mismatch once the backend changes.
type Session struct {
	id       string
	factory  ClientFactory
	defaults storage.InitRequest
	registry storage.Registry
	keys     storage.KeySequence

	mu     sync.RWMutex
	client storage.Client
	config storage.Config
}

// NewSession creates an uninitialized session.
func NewSession(opts ...Option) *Session {
	cfg := SessionConfig{
		Factory: DefaultClientFactory,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Registry == nil {
		cfg.Registry = memory.NewCloudObjectRegistry()
	}

	return &Session{
		id:       cfg.ID,
		factory:  cfg.Factory,
		defaults: cfg.Defaults,
		registry: cfg.Registry,
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Registry returns the cloudobject registry.
func (s *Session) Registry() storage.Registry {
	return s.registry
}

// Init creates a client from req and installs it as the active client.
// An empty request falls back to the session defaults. The previous client,
// if any, is closed after the swap. On failure the session is unchanged.
func (s *Session) Init(ctx context.Context, req storage.InitRequest) (storage.Client, error) {
	if req.IsEmpty() {
		req = s.defaults
	}
	cfg, err := storage.ParseConfig(req)
	if err != nil {
		return nil, storage.InvalidArgument("init-backend", err)
	}
	cfg.SessionID = s.id
	cfg.Keys = &s.keys

	client, err := s.factory(ctx, cfg)
	if err != nil {
		return nil, storage.Backend("init-backend", err)
	}

	s.mu.Lock()
	previous := s.client
	s.client = client
	s.config = cfg
	s.mu.Unlock()

	if c, ok := previous.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logging.Warn().
				Add(logging.SessionID(s.id)).
				Add(logging.Backend(previous.Backend())).
				Add(logging.ErrorField(err)).
				Msg("closing replaced storage client failed")
		}
	}

	logging.Info().
		Add(logging.SessionID(s.id)).
		Add(logging.Backend(cfg.Backend)).
		Add(logging.Bucket(cfg.Bucket)).
		Msg("storage backend initialized")
	return client, nil
}

// Client returns the active client, or an UninitializedBackend error for op.
func (s *Session) Client(op string) (storage.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, storage.Uninitialized(op)
	}
	return s.client, nil
}

// Initialized reports whether a client is installed.
func (s *Session) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil
}

// Close closes the active client. The session is uninitialized afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if c, ok := client.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close storage client: %w", err)
		}
	}
	return nil
}

// AutoInit initializes the session from its defaults when they carry any
// configuration. Errors are returned so the caller can decide whether a
// failed eager init is fatal.
func (s *Session) AutoInit(ctx context.Context) error {
	if s.defaults.IsEmpty() {
		return errors.New("no default storage configuration")
	}
	_, err := s.Init(ctx, storage.InitRequest{})
	return err
}
