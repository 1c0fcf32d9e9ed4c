// Package backend implements storage.Client on top of pluggable storage
// providers: in-memory, local disk, AWS S3, S3-compatible services through
// MinIO, Google Cloud Storage, Azure Blob Storage and Redis.
package backend

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// Provider is the per-backend primitive layer. Storage builds the
// cloudobject, listing and transfer semantics on top of it.
type Provider interface {
	// Name returns the canonical backend name.
	Name() string

	CreateBucket(ctx context.Context, bucket string) error

	// HeadBucket reports a missing bucket as Exists=false with a 404 status
	// rather than as an error.
	HeadBucket(ctx context.Context, bucket string) (storage.BucketStatus, error)

	PutObject(ctx context.Context, bucket, key string, body []byte) error

	// GetObject returns the object content, restricted to rng when non-nil.
	GetObject(ctx context.Context, bucket, key string, rng *storage.ByteRange) (io.ReadCloser, error)

	HeadObject(ctx context.Context, bucket, key string) (storage.ObjectMetadata, error)
	DeleteObject(ctx context.Context, bucket, key string) error

	// DeleteObjects removes keys in as few backend requests as the backend allows.
	DeleteObjects(ctx context.Context, bucket string, keys []string) error

	// ListObjects returns every object whose key starts with prefix.
	ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error)
}

// Transferer is implemented by providers with native multipart transfers.
// Providers without it get a single-request fallback.
type Transferer interface {
	UploadFile(ctx context.Context, fileName, bucket, key string, opts storage.TransferOptions) (int64, error)
	DownloadFile(ctx context.Context, bucket, key, fileName string, opts storage.TransferOptions) (int64, error)
}

// New creates the storage client selected by cfg.
func New(ctx context.Context, cfg storage.Config) (*Storage, error) {
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", cfg.Backend, err)
	}
	return NewStorage(provider, cfg), nil
}

func newProvider(ctx context.Context, cfg storage.Config) (Provider, error) {
	s := cfg.Section

	switch cfg.Backend {
	case storage.BackendMemory:
		return NewMemoryProvider(), nil

	case storage.BackendLocalhost:
		return NewLocalhostProvider(LocalhostConfig{
			Root: s.StringOr("storage_root", filepath.Join(os.TempDir(), "storage-mcp")),
		})

	case storage.BackendS3:
		return NewS3Provider(ctx, S3Config{
			Region:          s.StringOr("region", s.String("region_name")),
			AccessKeyID:     s.String("access_key_id"),
			SecretAccessKey: s.String("secret_access_key"),
			SessionToken:    s.String("session_token"),
			Endpoint:        s.String("endpoint"),
		})

	case storage.BackendMinIO, storage.BackendCeph:
		useSSL, err := s.Bool("use_ssl", true)
		if err != nil {
			return nil, err
		}
		return NewMinIOProvider(MinIOConfig{
			Name:            cfg.Backend,
			Endpoint:        s.String("endpoint"),
			AccessKeyID:     s.String("access_key_id"),
			SecretAccessKey: s.String("secret_access_key"),
			SessionToken:    s.String("session_token"),
			Region:          s.String("region"),
			UseSSL:          useSSL,
		})

	case storage.BackendGCS:
		return NewGCSProvider(ctx, GCSConfig{
			ProjectID:       s.String("project_id"),
			CredentialsFile: s.String("credentials_path"),
			CredentialsJSON: []byte(s.String("credentials_json")),
		})

	case storage.BackendAzure:
		return NewAzureProvider(ctx, AzureConfig{
			AccountName:      s.String("storage_account_name"),
			AccountKey:       s.String("storage_account_key"),
			ConnectionString: s.String("connection_string"),
		})

	case storage.BackendRedis:
		db, err := s.Int64("db", 0)
		if err != nil {
			return nil, err
		}
		port, err := s.Int64("port", 6379)
		if err != nil {
			return nil, err
		}
		return NewRedisProvider(ctx, RedisConfig{
			Address:   net.JoinHostPort(s.StringOr("host", "localhost"), strconv.FormatInt(port, 10)),
			Username:  s.String("username"),
			Password:  s.String("password"),
			DB:        int(db),
			KeyPrefix: s.String("key_prefix"),
		})

	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.Backend)
	}
}
