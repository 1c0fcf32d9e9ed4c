// Package objectstore provides the storage tools: bucket and object
// operations forwarded to the session's client, and the cloudobject tools
// that address handles through the session registry.
package objectstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/felixgeelhaar/storage-mcp/domain/pack"
	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

// Session is the state the tools operate on.
type Session interface {
	// Init replaces the session client.
	Init(ctx context.Context, req storage.InitRequest) (storage.Client, error)

	// Client returns the current client, or an UninitializedBackend error for op.
	Client(op string) (storage.Client, error)

	// Registry returns the session's cloudobject registry.
	Registry() storage.Registry
}

// DefaultMaxObjectSize bounds object reads when no limit is configured.
const DefaultMaxObjectSize = 10 * 1024 * 1024

// Config configures the objectstore pack.
type Config struct {
	// Session holds the client and registry (required).
	Session Session

	// MaxObjectSize limits the bytes returned by get-object and
	// get-cloudobject. Zero or negative disables the limit.
	MaxObjectSize int64
}

// Option configures the objectstore pack.
type Option func(*Config)

// WithMaxObjectSize sets the maximum object size for reads. Non-positive
// sizes keep the default.
func WithMaxObjectSize(size int64) Option {
	return func(c *Config) {
		if size > 0 {
			c.MaxObjectSize = size
		}
	}
}

// New creates the objectstore pack.
func New(session Session, opts ...Option) (*pack.Pack, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}

	cfg := Config{
		Session:       session,
		MaxObjectSize: DefaultMaxObjectSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return pack.NewBuilder("objectstore").
		WithDescription("Cloud object storage: buckets, objects, transfers and cloudobject handles").
		WithVersion("1.0.0").
		AddTools(
			initBackendTool(&cfg),
			getStorageConfigTool(&cfg),
			createBucketTool(&cfg),
			headBucketTool(&cfg),
			putObjectTool(&cfg),
			getObjectTool(&cfg),
			headObjectTool(&cfg),
			deleteObjectTool(&cfg),
			deleteObjectsTool(&cfg),
			listObjectsTool(&cfg),
			listKeysTool(&cfg),
			uploadFileTool(&cfg),
			downloadFileTool(&cfg),
			putCloudObjectTool(&cfg),
			getCloudObjectTool(&cfg),
			deleteCloudObjectTool(&cfg),
			deleteCloudObjectsTool(&cfg),
			listCloudObjectsTool(&cfg),
		).
		Build(), nil
}

// jsonResult marshals out as a tool result.
func jsonResult(out any) (tool.Result, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return tool.Result{}, err
	}
	return tool.Result{Output: data}, nil
}
