package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// gcsDeleteConcurrency bounds parallel deletes; GCS has no multi-object delete.
const gcsDeleteConcurrency = 16

// GCSProvider implements Provider for Google Cloud Storage.
type GCSProvider struct {
	client    *gcs.Client
	projectID string
}

// GCSConfig configures the GCS provider.
type GCSConfig struct {
	ProjectID       string // GCP project ID (required for bucket creation)
	CredentialsFile string // Optional: path to service account JSON file
	CredentialsJSON []byte // Optional: service account JSON content
}

// NewGCSProvider creates a new Google Cloud Storage provider.
func NewGCSProvider(ctx context.Context, cfg GCSConfig) (*GCSProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	} else if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}
	// With no credentials, Application Default Credentials apply.

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSProvider{
		client:    client,
		projectID: cfg.ProjectID,
	}, nil
}

// Name returns the provider name.
func (p *GCSProvider) Name() string {
	return storage.BackendGCS
}

// Close closes the GCS client.
func (p *GCSProvider) Close() error {
	return p.client.Close()
}

func (p *GCSProvider) CreateBucket(ctx context.Context, bucket string) error {
	if p.projectID == "" {
		return fmt.Errorf("%w: project_id", storage.ErrMissingParameter)
	}
	if err := p.client.Bucket(bucket).Create(ctx, p.projectID, nil); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			return fmt.Errorf("%w: %s", storage.ErrBucketExists, bucket)
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (p *GCSProvider) HeadBucket(ctx context.Context, bucket string) (storage.BucketStatus, error) {
	attrs, err := p.client.Bucket(bucket).Attrs(ctx)
	if errors.Is(err, gcs.ErrBucketNotExist) {
		return bucketStatus(bucket, false), nil
	}
	if err != nil {
		return storage.BucketStatus{}, fmt.Errorf("failed to check bucket: %w", err)
	}
	status := bucketStatus(bucket, true)
	status.Region = attrs.Location
	return status, nil
}

func (p *GCSProvider) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	return p.write(ctx, bucket, key, bytes.NewReader(body), storage.DefaultTransferOptions())
}

func (p *GCSProvider) write(ctx context.Context, bucket, key string, r io.Reader, opts storage.TransferOptions) error {
	w := p.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ChunkSize = int(opts.PartSize)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return p.classify(err, bucket, key, "write object")
	}
	if err := w.Close(); err != nil {
		return p.classify(err, bucket, key, "finalize object")
	}
	return nil
}

func (p *GCSProvider) GetObject(ctx context.Context, bucket, key string, rng *storage.ByteRange) (io.ReadCloser, error) {
	offset, length := int64(0), int64(-1)
	switch {
	case rng == nil:
	case rng.Suffix > 0:
		offset = -rng.Suffix
	default:
		offset = rng.Start
		if rng.End >= 0 {
			length = rng.End - rng.Start + 1
		}
	}

	r, err := p.client.Bucket(bucket).Object(key).NewRangeReader(ctx, offset, length)
	if err != nil {
		return nil, p.classify(err, bucket, key, "create object reader")
	}
	return r, nil
}

func (p *GCSProvider) HeadObject(ctx context.Context, bucket, key string) (storage.ObjectMetadata, error) {
	attrs, err := p.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return storage.ObjectMetadata{}, p.classify(err, bucket, key, "get object metadata")
	}
	return storage.ObjectMetadata{
		ContentType:     attrs.ContentType,
		ContentLength:   attrs.Size,
		ContentEncoding: attrs.ContentEncoding,
		ETag:            attrs.Etag,
		LastModified:    attrs.Updated,
		Metadata:        attrs.Metadata,
	}, nil
}

// DeleteObject treats a missing object as already deleted.
func (p *GCSProvider) DeleteObject(ctx context.Context, bucket, key string) error {
	err := p.client.Bucket(bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return p.classify(err, bucket, key, "delete object")
	}
	return nil
}

func (p *GCSProvider) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gcsDeleteConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			return p.DeleteObject(gctx, bucket, key)
		})
	}
	return g.Wait()
}

func (p *GCSProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	it := p.client.Bucket(bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, p.classify(err, bucket, "", "list objects")
		}
		objects = append(objects, storage.ObjectInfo{
			Key:          attrs.Name,
			Size:         attrs.Size,
			LastModified: attrs.Updated,
			ETag:         attrs.Etag,
		})
	}
	return objects, nil
}

// UploadFile streams the file through a resumable writer using PartSize chunks.
func (p *GCSProvider) UploadFile(ctx context.Context, fileName, bucket, key string, opts storage.TransferOptions) (int64, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if err := p.write(ctx, bucket, key, f, opts); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (p *GCSProvider) DownloadFile(ctx context.Context, bucket, key, fileName string, opts storage.TransferOptions) (int64, error) {
	meta, err := p.HeadObject(ctx, bucket, key)
	if err != nil {
		return 0, err
	}
	if meta.ContentLength <= opts.MultipartThreshold {
		body, err := p.GetObject(ctx, bucket, key, nil)
		if err != nil {
			return 0, err
		}
		defer body.Close()
		return writeFileAtomic(fileName, body)
	}
	return downloadRanges(ctx, fileName, meta.ContentLength, opts, func(ctx context.Context, rng storage.ByteRange) (io.ReadCloser, error) {
		return p.GetObject(ctx, bucket, key, &rng)
	})
}

func (p *GCSProvider) classify(err error, bucket, key, op string) error {
	switch {
	case errors.Is(err, gcs.ErrBucketNotExist):
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	case errors.Is(err, gcs.ErrObjectNotExist):
		return fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

var (
	_ Provider   = (*GCSProvider)(nil)
	_ Transferer = (*GCSProvider)(nil)
)
