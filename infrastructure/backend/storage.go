package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// tempPrefix is where cloudobjects without an explicit key are written.
const tempPrefix = "lithops.jobs/tmp"

// Storage implements storage.Client over a Provider.
type Storage struct {
	provider Provider
	config   storage.Config
	keys     *storage.KeySequence
	closed   atomic.Bool
}

// NewStorage wraps provider with the cloudobject and listing semantics of
// storage.Client.
func NewStorage(provider Provider, cfg storage.Config) *Storage {
	keys := cfg.Keys
	if keys == nil {
		keys = new(storage.KeySequence)
	}
	return &Storage{provider: provider, config: cfg, keys: keys}
}

// Provider returns the underlying provider.
func (s *Storage) Provider() Provider {
	return s.provider
}

// Backend returns the backend name.
func (s *Storage) Backend() string {
	return s.config.Backend
}

// Bucket returns the default bucket.
func (s *Storage) Bucket() string {
	return s.config.Bucket
}

// StorageConfig returns the masked configuration.
func (s *Storage) StorageConfig() map[string]any {
	return s.config.Masked()
}

// Close releases the provider's resources. Calls after the first are no-ops.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c, ok := s.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Storage) CreateBucket(ctx context.Context, bucket string) error {
	if err := s.check(bucket, "bucket"); err != nil {
		return err
	}
	return s.provider.CreateBucket(ctx, bucket)
}

func (s *Storage) HeadBucket(ctx context.Context, bucket string) (storage.BucketStatus, error) {
	if err := s.check(bucket, "bucket"); err != nil {
		return storage.BucketStatus{}, err
	}
	return s.provider.HeadBucket(ctx, bucket)
}

func (s *Storage) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	if err := s.check(bucket, "bucket", key, "key"); err != nil {
		return err
	}
	return s.provider.PutObject(ctx, bucket, key, body)
}

func (s *Storage) GetObject(ctx context.Context, bucket, key string, opts storage.GetOptions) (io.ReadCloser, error) {
	if err := s.check(bucket, "bucket", key, "key"); err != nil {
		return nil, err
	}
	return s.provider.GetObject(ctx, bucket, key, opts.Range)
}

func (s *Storage) HeadObject(ctx context.Context, bucket, key string) (storage.ObjectMetadata, error) {
	if err := s.check(bucket, "bucket", key, "key"); err != nil {
		return storage.ObjectMetadata{}, err
	}
	return s.provider.HeadObject(ctx, bucket, key)
}

func (s *Storage) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := s.check(bucket, "bucket", key, "key"); err != nil {
		return err
	}
	return s.provider.DeleteObject(ctx, bucket, key)
}

func (s *Storage) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	if err := s.check(bucket, "bucket"); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.provider.DeleteObjects(ctx, bucket, keys)
}

func (s *Storage) ListObjects(ctx context.Context, bucket, prefix, matchPattern string) ([]storage.ObjectInfo, error) {
	if err := s.check(bucket, "bucket"); err != nil {
		return nil, err
	}
	objs, err := s.provider.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}
	if matchPattern != "" {
		objs = slices.DeleteFunc(objs, func(o storage.ObjectInfo) bool {
			return !strings.Contains(o.Key, matchPattern)
		})
	}
	slices.SortFunc(objs, func(a, b storage.ObjectInfo) int {
		return strings.Compare(a.Key, b.Key)
	})
	if objs == nil {
		objs = []storage.ObjectInfo{}
	}
	return objs, nil
}

func (s *Storage) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	objs, err := s.ListObjects(ctx, bucket, prefix, "")
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(objs))
	for i, o := range objs {
		keys[i] = o.Key
	}
	return keys, nil
}

func (s *Storage) PutCloudObject(ctx context.Context, body []byte, bucket, key string) (*storage.CloudObject, error) {
	if bucket == "" {
		bucket = s.config.Bucket
	}
	if bucket == "" {
		return nil, storage.ErrNoBucket
	}
	if key == "" {
		key = s.nextTempKey()
	}
	if err := s.PutObject(ctx, bucket, key, body); err != nil {
		return nil, err
	}
	return storage.NewCloudObject(s.Backend(), bucket, key), nil
}

func (s *Storage) GetCloudObject(ctx context.Context, obj *storage.CloudObject, opts storage.GetOptions) (io.ReadCloser, error) {
	if err := s.owns(obj); err != nil {
		return nil, err
	}
	return s.GetObject(ctx, obj.Bucket(), obj.Key(), opts)
}

func (s *Storage) DeleteCloudObject(ctx context.Context, obj *storage.CloudObject) error {
	if err := s.owns(obj); err != nil {
		return err
	}
	return s.DeleteObject(ctx, obj.Bucket(), obj.Key())
}

// DeleteCloudObjects issues one batch delete per bucket, in the order the
// buckets first appear. Nothing is deleted if any handle belongs to another
// backend.
func (s *Storage) DeleteCloudObjects(ctx context.Context, objs []*storage.CloudObject) error {
	var buckets []string
	keys := make(map[string][]string)
	for _, obj := range objs {
		if err := s.owns(obj); err != nil {
			return err
		}
		if _, seen := keys[obj.Bucket()]; !seen {
			buckets = append(buckets, obj.Bucket())
		}
		keys[obj.Bucket()] = append(keys[obj.Bucket()], obj.Key())
	}

	for _, bucket := range buckets {
		if err := s.DeleteObjects(ctx, bucket, keys[bucket]); err != nil {
			return fmt.Errorf("delete cloudobjects in %s: %w", bucket, err)
		}
	}
	return nil
}

func (s *Storage) UploadFile(ctx context.Context, fileName, bucket, key string, opts storage.TransferOptions) (int64, error) {
	if bucket == "" {
		bucket = s.config.Bucket
	}
	if key == "" {
		key = filepath.Base(fileName)
	}
	if err := s.check(fileName, "file_name", bucket, "bucket"); err != nil {
		return 0, err
	}
	if t, ok := s.provider.(Transferer); ok {
		return t.UploadFile(ctx, fileName, bucket, key, opts)
	}

	body, err := os.ReadFile(fileName)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", fileName, err)
	}
	if err := s.provider.PutObject(ctx, bucket, key, body); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

func (s *Storage) DownloadFile(ctx context.Context, bucket, key, fileName string, opts storage.TransferOptions) (int64, error) {
	if bucket == "" {
		bucket = s.config.Bucket
	}
	if fileName == "" {
		fileName = filepath.Base(key)
	}
	if err := s.check(bucket, "bucket", key, "key"); err != nil {
		return 0, err
	}
	if t, ok := s.provider.(Transferer); ok {
		return t.DownloadFile(ctx, bucket, key, fileName, opts)
	}

	body, err := s.provider.GetObject(ctx, bucket, key, nil)
	if err != nil {
		return 0, err
	}
	defer body.Close()
	return writeFileAtomic(fileName, body)
}

// check rejects calls on a closed client and empty required parameters,
// given as value/name pairs.
func (s *Storage) check(pairs ...string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i] == "" {
			if pairs[i+1] == "bucket" {
				return storage.ErrNoBucket
			}
			return fmt.Errorf("%w: %s", storage.ErrMissingParameter, pairs[i+1])
		}
	}
	return nil
}

func (s *Storage) owns(obj *storage.CloudObject) error {
	if obj == nil {
		return errors.New("nil cloudobject")
	}
	if obj.Backend() != s.Backend() {
		return fmt.Errorf("%w: %s belongs to %s, client is %s",
			storage.ErrBackendMismatch, obj, obj.Backend(), s.Backend())
	}
	return nil
}

func (s *Storage) nextTempKey() string {
	n := strconv.FormatUint(s.keys.Next(), 16)
	if s.config.SessionID == "" {
		return tempPrefix + "/cloudobject_" + n
	}
	return tempPrefix + "/" + s.config.SessionID + "/cloudobject_" + n
}

// writeFileAtomic streams r into a temporary file next to fileName and
// renames it into place once complete.
func writeFileAtomic(fileName string, r io.Reader) (int64, error) {
	dir := filepath.Dir(fileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fileName)+".*"+partialSuffix)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), fileName)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}

var _ storage.Client = (*Storage)(nil)
