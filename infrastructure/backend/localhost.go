package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// partialSuffix marks files still being written; listings skip them.
const partialSuffix = ".partial"

// LocalhostConfig configures the localhost provider.
type LocalhostConfig struct {
	// Root is the directory holding one subdirectory per bucket.
	Root string
}

// LocalhostProvider stores buckets as directories on the local disk.
type LocalhostProvider struct {
	root string
}

// NewLocalhostProvider creates the root directory if needed.
func NewLocalhostProvider(cfg LocalhostConfig) (*LocalhostProvider, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: storage_root", storage.ErrMissingParameter)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalhostProvider{root: root}, nil
}

// Name returns the provider name.
func (p *LocalhostProvider) Name() string {
	return storage.BackendLocalhost
}

// Root returns the storage root directory.
func (p *LocalhostProvider) Root() string {
	return p.root
}

func (p *LocalhostProvider) CreateBucket(ctx context.Context, bucket string) error {
	dir, err := p.bucketDir(bucket)
	if err != nil {
		return err
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", storage.ErrBucketExists, bucket)
		}
		return err
	}
	return nil
}

func (p *LocalhostProvider) HeadBucket(ctx context.Context, bucket string) (storage.BucketStatus, error) {
	dir, err := p.bucketDir(bucket)
	if err != nil {
		return storage.BucketStatus{}, err
	}
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return bucketStatus(bucket, false), nil
	case err != nil:
		return storage.BucketStatus{}, err
	}
	return bucketStatus(bucket, info.IsDir()), nil
}

func (p *LocalhostProvider) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	file, err := p.objectPath(bucket, key)
	if err != nil {
		return err
	}
	_, err = writeFileAtomic(file, bytes.NewReader(body))
	return err
}

func (p *LocalhostProvider) GetObject(ctx context.Context, bucket, key string, rng *storage.ByteRange) (io.ReadCloser, error) {
	file, err := p.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, p.notFound(bucket, key, err)
	}
	if rng == nil {
		return f, nil
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	offset, length, err := rng.Resolve(info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{io.NewSectionReader(f, offset, length), f}, nil
}

func (p *LocalhostProvider) HeadObject(ctx context.Context, bucket, key string) (storage.ObjectMetadata, error) {
	file, err := p.objectPath(bucket, key)
	if err != nil {
		return storage.ObjectMetadata{}, err
	}
	info, err := os.Stat(file)
	if err != nil {
		return storage.ObjectMetadata{}, p.notFound(bucket, key, err)
	}
	if info.IsDir() {
		return storage.ObjectMetadata{}, fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return storage.ObjectMetadata{
		ContentLength: info.Size(),
		ContentType:   contentType,
		LastModified:  info.ModTime().UTC(),
	}, nil
}

func (p *LocalhostProvider) DeleteObject(ctx context.Context, bucket, key string) error {
	return p.DeleteObjects(ctx, bucket, []string{key})
}

// DeleteObjects removes the files and any directories left empty by them.
func (p *LocalhostProvider) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	dir, err := p.bucketDir(bucket)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		return p.notFound(bucket, "", err)
	}

	var errs []error
	for _, key := range keys {
		file, err := p.objectPath(bucket, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		pruneEmptyDirs(filepath.Dir(file), dir)
	}
	return errors.Join(errs...)
}

func (p *LocalhostProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	dir, err := p.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, p.notFound(bucket, "", err)
	}

	var objects []storage.ObjectInfo
	err = filepath.WalkDir(dir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), partialSuffix) {
			return nil
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, storage.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

func (p *LocalhostProvider) bucketDir(bucket string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || !filepath.IsLocal(bucket) {
		return "", fmt.Errorf("invalid bucket name %q", bucket)
	}
	return filepath.Join(p.root, bucket), nil
}

func (p *LocalhostProvider) objectPath(bucket, key string) (string, error) {
	dir, err := p.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(dir, rel), nil
}

func (p *LocalhostProvider) notFound(bucket, key string, err error) error {
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if _, serr := os.Stat(filepath.Join(p.root, bucket)); serr != nil {
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}
	return fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)
}

// pruneEmptyDirs removes empty directories from dir up to, not including, stop.
func pruneEmptyDirs(dir, stop string) {
	for dir != stop && strings.HasPrefix(dir, stop) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

var _ Provider = (*LocalhostProvider)(nil)
