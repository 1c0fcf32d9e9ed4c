package storage

import (
	"context"
	"io"
	"time"
)

// Client is the storage capability the tools forward to. One Client is
// created per init-backend call and replaced wholesale on re-init.
type Client interface {
	// Backend returns the selected backend name (e.g. "aws_s3", "redis").
	Backend() string

	// Bucket returns the default bucket, or "" when none is configured.
	Bucket() string

	// StorageConfig returns the effective configuration with secrets masked.
	StorageConfig() map[string]any

	CreateBucket(ctx context.Context, bucket string) error
	HeadBucket(ctx context.Context, bucket string) (BucketStatus, error)

	PutObject(ctx context.Context, bucket, key string, body []byte) error
	GetObject(ctx context.Context, bucket, key string, opts GetOptions) (io.ReadCloser, error)
	HeadObject(ctx context.Context, bucket, key string) (ObjectMetadata, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	DeleteObjects(ctx context.Context, bucket string, keys []string) error

	// ListObjects lists every object under prefix whose key contains
	// matchPattern (when non-empty), sorted by key.
	ListObjects(ctx context.Context, bucket, prefix, matchPattern string) ([]ObjectInfo, error)
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)

	// PutCloudObject stores body and returns a handle to it. Empty bucket
	// selects the default bucket; empty key generates a temporary key.
	PutCloudObject(ctx context.Context, body []byte, bucket, key string) (*CloudObject, error)
	GetCloudObject(ctx context.Context, obj *CloudObject, opts GetOptions) (io.ReadCloser, error)
	DeleteCloudObject(ctx context.Context, obj *CloudObject) error
	DeleteCloudObjects(ctx context.Context, objs []*CloudObject) error

	// UploadFile copies a local file into the bucket, using multipart
	// transfers where the backend supports them. It returns the bytes sent.
	UploadFile(ctx context.Context, fileName, bucket, key string, opts TransferOptions) (int64, error)

	// DownloadFile copies an object into a local file and returns the bytes written.
	DownloadFile(ctx context.Context, bucket, key, fileName string, opts TransferOptions) (int64, error)
}

// BucketStatus is the result of a bucket HEAD request.
type BucketStatus struct {
	Bucket     string `json:"bucket"`
	Exists     bool   `json:"exists"`
	StatusCode int    `json:"status_code"`
	Region     string `json:"region,omitempty"`
}

// ObjectInfo is one entry of an object listing.
type ObjectInfo struct {
	Key          string    `json:"Key"`
	Size         int64     `json:"Size"`
	LastModified time.Time `json:"LastModified,omitempty"`
	ETag         string    `json:"ETag,omitempty"`
}

// ObjectMetadata is the result of an object HEAD request.
type ObjectMetadata struct {
	ContentLength   int64             `json:"content-length"`
	ContentType     string            `json:"content-type,omitempty"`
	ContentEncoding string            `json:"content-encoding,omitempty"`
	ETag            string            `json:"etag,omitempty"`
	LastModified    time.Time         `json:"last-modified,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// GetOptions tunes an object read.
type GetOptions struct {
	// Stream asks for a reader suitable for incremental consumption.
	Stream bool

	// Range restricts the read to a byte range.
	Range *ByteRange
}
