package application

import (
	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// SessionConfig contains configuration for a session.
type SessionConfig struct {
	ID       string
	Factory  ClientFactory
	Defaults storage.InitRequest
	Registry storage.Registry
}

// Option configures a session.
type Option func(*SessionConfig)

// WithSessionID sets the session ID. By default a random UUID is used.
func WithSessionID(id string) Option {
	return func(c *SessionConfig) {
		c.ID = id
	}
}

// WithClientFactory replaces the storage client factory.
func WithClientFactory(f ClientFactory) Option {
	return func(c *SessionConfig) {
		c.Factory = f
	}
}

// WithDefaults sets the configuration used when init-backend receives none.
func WithDefaults(req storage.InitRequest) Option {
	return func(c *SessionConfig) {
		c.Defaults = req
	}
}

// WithRegistry sets the cloudobject registry.
func WithRegistry(r storage.Registry) Option {
	return func(c *SessionConfig) {
		c.Registry = r
	}
}
