package backend

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// MemoryProvider keeps buckets in process memory.
// Useful for testing and development.
type MemoryProvider struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*memoryObject
}

type memoryObject struct {
	content  []byte
	modified time.Time
	etag     string
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		buckets: make(map[string]map[string]*memoryObject),
	}
}

// Name returns the provider name.
func (p *MemoryProvider) Name() string {
	return storage.BackendMemory
}

// CreateBucket creates a new bucket.
func (p *MemoryProvider) CreateBucket(ctx context.Context, bucket string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.buckets[bucket]; exists {
		return fmt.Errorf("%w: %s", storage.ErrBucketExists, bucket)
	}
	p.buckets[bucket] = make(map[string]*memoryObject)
	return nil
}

// HeadBucket reports whether the bucket exists.
func (p *MemoryProvider) HeadBucket(ctx context.Context, bucket string) (storage.BucketStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, exists := p.buckets[bucket]
	return bucketStatus(bucket, exists), nil
}

// PutObject stores a copy of body.
func (p *MemoryProvider) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, exists := p.buckets[bucket]
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}
	sum := md5.Sum(body)
	b[key] = &memoryObject{
		content:  bytes.Clone(body),
		modified: time.Now().UTC(),
		etag:     hex.EncodeToString(sum[:]),
	}
	return nil
}

// GetObject returns the object content.
func (p *MemoryProvider) GetObject(ctx context.Context, bucket, key string, rng *storage.ByteRange) (io.ReadCloser, error) {
	obj, err := p.object(bucket, key)
	if err != nil {
		return nil, err
	}
	content, err := sliceRange(obj.content, rng)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// HeadObject returns object metadata.
func (p *MemoryProvider) HeadObject(ctx context.Context, bucket, key string) (storage.ObjectMetadata, error) {
	obj, err := p.object(bucket, key)
	if err != nil {
		return storage.ObjectMetadata{}, err
	}
	return storage.ObjectMetadata{
		ContentLength: int64(len(obj.content)),
		ContentType:   http.DetectContentType(obj.content),
		ETag:          obj.etag,
		LastModified:  obj.modified,
	}, nil
}

// DeleteObject deletes an object. Deleting a missing key succeeds, as on S3.
func (p *MemoryProvider) DeleteObject(ctx context.Context, bucket, key string) error {
	return p.DeleteObjects(ctx, bucket, []string{key})
}

// DeleteObjects deletes keys from bucket.
func (p *MemoryProvider) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, exists := p.buckets[bucket]
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}
	for _, key := range keys {
		delete(b, key)
	}
	return nil
}

// ListObjects lists objects under prefix.
func (p *MemoryProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	b, exists := p.buckets[bucket]
	if !exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}

	objects := make([]storage.ObjectInfo, 0, len(b))
	for key, obj := range b {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, storage.ObjectInfo{
			Key:          key,
			Size:         int64(len(obj.content)),
			LastModified: obj.modified,
			ETag:         obj.etag,
		})
	}
	return objects, nil
}

func (p *MemoryProvider) object(bucket, key string) (*memoryObject, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	b, exists := p.buckets[bucket]
	if !exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}
	obj, exists := b[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)
	}
	return obj, nil
}

func bucketStatus(bucket string, exists bool) storage.BucketStatus {
	status := storage.BucketStatus{Bucket: bucket, Exists: exists, StatusCode: http.StatusOK}
	if !exists {
		status.StatusCode = http.StatusNotFound
	}
	return status
}

// sliceRange applies rng to an in-memory object.
func sliceRange(content []byte, rng *storage.ByteRange) ([]byte, error) {
	if rng == nil {
		return content, nil
	}
	offset, length, err := rng.Resolve(int64(len(content)))
	if err != nil {
		return nil, err
	}
	return content[offset : offset+length], nil
}

var _ Provider = (*MemoryProvider)(nil)
