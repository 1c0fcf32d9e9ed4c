package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// MinIOConfig configures the MinIO provider.
type MinIOConfig struct {
	// Name is the backend name reported for handles, "minio" or "ceph".
	Name            string
	Endpoint        string // host[:port], or a URL whose scheme sets UseSSL
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	UseSSL          bool
}

// MinIOProvider implements Provider for S3-compatible services such as
// MinIO and the Ceph object gateway.
type MinIOProvider struct {
	client *minio.Client
	name   string
	region string
}

// NewMinIOProvider creates a provider for an S3-compatible endpoint.
func NewMinIOProvider(cfg MinIOConfig) (*MinIOProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint", storage.ErrMissingParameter)
	}
	endpoint, secure := cfg.Endpoint, cfg.UseSSL
	if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint, secure = rest, true
	} else if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, secure = rest, false
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = storage.BackendMinIO
	}
	return &MinIOProvider{client: client, name: name, region: cfg.Region}, nil
}

// Name returns the provider name.
func (p *MinIOProvider) Name() string {
	return p.name
}

func (p *MinIOProvider) CreateBucket(ctx context.Context, bucket string) error {
	err := p.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: p.region})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return fmt.Errorf("%w: %s", storage.ErrBucketExists, bucket)
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (p *MinIOProvider) HeadBucket(ctx context.Context, bucket string) (storage.BucketStatus, error) {
	exists, err := p.client.BucketExists(ctx, bucket)
	if err != nil {
		return storage.BucketStatus{}, fmt.Errorf("failed to check bucket: %w", err)
	}
	status := bucketStatus(bucket, exists)
	status.Region = p.region
	return status, nil
}

func (p *MinIOProvider) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	_, err := p.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{})
	if err != nil {
		return p.classify(err, bucket, key, "put object")
	}
	return nil
}

// GetObject stats the object first so a missing key fails here rather than
// on the first Read.
func (p *MinIOProvider) GetObject(ctx context.Context, bucket, key string, rng *storage.ByteRange) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if rng != nil {
		opts.Set("Range", rng.String())
	}
	obj, err := p.client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, p.classify(err, bucket, key, "get object")
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, p.classify(err, bucket, key, "get object")
	}
	return obj, nil
}

func (p *MinIOProvider) HeadObject(ctx context.Context, bucket, key string) (storage.ObjectMetadata, error) {
	info, err := p.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return storage.ObjectMetadata{}, p.classify(err, bucket, key, "head object")
	}
	return storage.ObjectMetadata{
		ContentLength:   info.Size,
		ContentType:     info.ContentType,
		ContentEncoding: info.Metadata.Get("Content-Encoding"),
		ETag:            info.ETag,
		LastModified:    info.LastModified,
		Metadata:        map[string]string(info.UserMetadata),
	}, nil
}

func (p *MinIOProvider) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := p.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return p.classify(err, bucket, key, "delete object")
	}
	return nil
}

// DeleteObjects streams keys to the multi-object delete API.
func (p *MinIOProvider) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	objects := make(chan minio.ObjectInfo)
	go func() {
		defer close(objects)
		for _, key := range keys {
			select {
			case objects <- minio.ObjectInfo{Key: key}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var errs []error
	for rerr := range p.client.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("%s: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to delete %d objects: %w", len(errs), errors.Join(errs...))
	}
	return ctx.Err()
}

func (p *MinIOProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	for obj := range p.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, p.classify(obj.Err, bucket, "", "list objects")
		}
		objects = append(objects, storage.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
		})
	}
	return objects, nil
}

// UploadFile lets the client pick single or multipart upload from the
// configured threshold and part size.
func (p *MinIOProvider) UploadFile(ctx context.Context, fileName, bucket, key string, opts storage.TransferOptions) (int64, error) {
	info, err := os.Stat(fileName)
	if err != nil {
		return 0, err
	}
	put := minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
		NumThreads:   uint(max(opts.Concurrency, 1)),
	}
	if info.Size() > opts.MultipartThreshold {
		put.PartSize = uint64(opts.PartSize)
	} else {
		put.DisableMultipart = true
	}

	out, err := p.client.FPutObject(ctx, bucket, key, fileName, put)
	if err != nil {
		return 0, p.classify(err, bucket, key, "upload file")
	}
	return out.Size, nil
}

// DownloadFile writes through a temporary part file that the client renames
// on completion.
func (p *MinIOProvider) DownloadFile(ctx context.Context, bucket, key, fileName string, opts storage.TransferOptions) (int64, error) {
	if err := p.client.FGetObject(ctx, bucket, key, fileName, minio.GetObjectOptions{}); err != nil {
		return 0, p.classify(err, bucket, key, "download file")
	}
	info, err := os.Stat(fileName)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (p *MinIOProvider) classify(err error, bucket, key, op string) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchBucket":
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	case resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

var (
	_ Provider   = (*MinIOProvider)(nil)
	_ Transferer = (*MinIOProvider)(nil)
)
