package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

const (
	redisScanCount = 1000
	redisDelBatch  = 500
)

// RedisConfig configures the Redis provider.
type RedisConfig struct {
	Address   string
	Username  string
	Password  string
	DB        int
	KeyPrefix string // namespace for every key the provider writes
}

// RedisProvider stores objects as Redis strings under "<prefix><bucket>/<key>"
// and tracks buckets in the set "<prefix>buckets".
type RedisProvider struct {
	client *redis.Client
	prefix string
}

// NewRedisProvider connects and pings the server.
func NewRedisProvider(ctx context.Context, cfg RedisConfig) (*RedisProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}
	return newRedisProvider(client, cfg.KeyPrefix), nil
}

func newRedisProvider(client *redis.Client, prefix string) *RedisProvider {
	return &RedisProvider{client: client, prefix: prefix}
}

// Name returns the provider name.
func (p *RedisProvider) Name() string {
	return storage.BackendRedis
}

// Close closes the connection pool.
func (p *RedisProvider) Close() error {
	return p.client.Close()
}

func (p *RedisProvider) CreateBucket(ctx context.Context, bucket string) error {
	if err := checkRedisBucket(bucket); err != nil {
		return err
	}
	added, err := p.client.SAdd(ctx, p.bucketsKey(), bucket).Result()
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	if added == 0 {
		return fmt.Errorf("%w: %s", storage.ErrBucketExists, bucket)
	}
	return nil
}

func (p *RedisProvider) HeadBucket(ctx context.Context, bucket string) (storage.BucketStatus, error) {
	if err := checkRedisBucket(bucket); err != nil {
		return storage.BucketStatus{}, err
	}
	exists, err := p.client.SIsMember(ctx, p.bucketsKey(), bucket).Result()
	if err != nil {
		return storage.BucketStatus{}, fmt.Errorf("failed to check bucket: %w", err)
	}
	return bucketStatus(bucket, exists), nil
}

func (p *RedisProvider) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	if err := p.requireBucket(ctx, bucket); err != nil {
		return err
	}
	if err := p.client.Set(ctx, p.objectKey(bucket, key), body, 0).Err(); err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func (p *RedisProvider) GetObject(ctx context.Context, bucket, key string, rng *storage.ByteRange) (io.ReadCloser, error) {
	if err := checkRedisBucket(bucket); err != nil {
		return nil, err
	}
	k := p.objectKey(bucket, key)
	if rng == nil {
		body, err := p.client.Get(ctx, k).Bytes()
		if err != nil {
			return nil, p.classify(ctx, err, bucket, key, "get object")
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	size, err := p.size(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	offset, length, err := rng.Resolve(size)
	if err != nil {
		return nil, err
	}
	body, err := p.client.GetRange(ctx, k, offset, offset+length-1).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get object range: %w", err)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (p *RedisProvider) HeadObject(ctx context.Context, bucket, key string) (storage.ObjectMetadata, error) {
	size, err := p.size(ctx, bucket, key)
	if err != nil {
		return storage.ObjectMetadata{}, err
	}
	return storage.ObjectMetadata{
		ContentLength: size,
		ContentType:   "application/octet-stream",
	}, nil
}

func (p *RedisProvider) DeleteObject(ctx context.Context, bucket, key string) error {
	return p.DeleteObjects(ctx, bucket, []string{key})
}

// DeleteObjects issues DEL in batches. Missing keys are ignored.
func (p *RedisProvider) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	if err := p.requireBucket(ctx, bucket); err != nil {
		return err
	}
	for batch := range slices.Chunk(keys, redisDelBatch) {
		full := make([]string, len(batch))
		for i, key := range batch {
			full[i] = p.objectKey(bucket, key)
		}
		if err := p.client.Del(ctx, full...).Err(); err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
	}
	return nil
}

// ListObjects scans for matching keys and fetches their sizes in one pipeline.
func (p *RedisProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	if err := p.requireBucket(ctx, bucket); err != nil {
		return nil, err
	}

	base := p.objectKey(bucket, "")
	match := escapeGlob(base+prefix) + "*"

	var keys []string
	it := p.client.Scan(ctx, 0, match, redisScanCount).Iterator()
	for it.Next(ctx) {
		keys = append(keys, it.Val())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan objects: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := p.client.Pipeline()
	sizes := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		sizes[i] = pipe.StrLen(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to stat objects: %w", err)
	}

	objects := make([]storage.ObjectInfo, 0, len(keys))
	for i, k := range keys {
		objects = append(objects, storage.ObjectInfo{
			Key:  strings.TrimPrefix(k, base),
			Size: sizes[i].Val(),
		})
	}
	return objects, nil
}

func (p *RedisProvider) size(ctx context.Context, bucket, key string) (int64, error) {
	if err := checkRedisBucket(bucket); err != nil {
		return 0, err
	}
	k := p.objectKey(bucket, key)
	pipe := p.client.Pipeline()
	exists := pipe.Exists(ctx, k)
	size := pipe.StrLen(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to stat object: %w", err)
	}
	if exists.Val() == 0 {
		return 0, p.classify(ctx, redis.Nil, bucket, key, "stat object")
	}
	return size.Val(), nil
}

func (p *RedisProvider) requireBucket(ctx context.Context, bucket string) error {
	status, err := p.HeadBucket(ctx, bucket)
	if err != nil {
		return err
	}
	if status.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}
	return nil
}

func (p *RedisProvider) classify(ctx context.Context, err error, bucket, key, op string) error {
	if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if berr := p.requireBucket(ctx, bucket); berr != nil {
		return berr
	}
	return fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)
}

func (p *RedisProvider) bucketsKey() string {
	return p.prefix + "buckets"
}

// checkRedisBucket rejects names that would make "<bucket>/<key>" ambiguous.
func checkRedisBucket(bucket string) error {
	if bucket == "" || strings.Contains(bucket, "/") {
		return fmt.Errorf("invalid bucket name %q", bucket)
	}
	return nil
}

func (p *RedisProvider) objectKey(bucket, key string) string {
	return p.prefix + bucket + "/" + key
}

// escapeGlob quotes the characters SCAN MATCH treats as wildcards.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Provider = (*RedisProvider)(nil)
