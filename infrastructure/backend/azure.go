package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

const azureDeleteConcurrency = 16

// AzureProvider implements Provider for Azure Blob Storage. Buckets map to
// containers.
type AzureProvider struct {
	client      *azblob.Client
	accountName string
}

// AzureConfig configures the Azure Blob Storage provider. Without an account
// key or connection string, DefaultAzureCredential is used.
type AzureConfig struct {
	AccountName      string
	AccountKey       string
	ConnectionString string
}

// NewAzureProvider creates a new Azure Blob Storage provider.
func NewAzureProvider(ctx context.Context, cfg AzureConfig) (*AzureProvider, error) {
	if cfg.AccountName == "" && cfg.ConnectionString == "" {
		return nil, fmt.Errorf("%w: storage_account_name or connection_string", storage.ErrMissingParameter)
	}

	var client *azblob.Client
	var err error
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)

	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client from connection string: %w", err)
		}
	case cfg.AccountKey != "":
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client with shared key: %w", err)
		}
	default:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create default credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client with default credential: %w", err)
		}
	}

	return &AzureProvider{
		client:      client,
		accountName: cfg.AccountName,
	}, nil
}

// Name returns the provider name.
func (p *AzureProvider) Name() string {
	return storage.BackendAzure
}

func (p *AzureProvider) CreateBucket(ctx context.Context, bucket string) error {
	if _, err := p.client.CreateContainer(ctx, bucket, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return fmt.Errorf("%w: %s", storage.ErrBucketExists, bucket)
		}
		return fmt.Errorf("failed to create container: %w", err)
	}
	return nil
}

func (p *AzureProvider) HeadBucket(ctx context.Context, bucket string) (storage.BucketStatus, error) {
	_, err := p.client.ServiceClient().NewContainerClient(bucket).GetProperties(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return bucketStatus(bucket, false), nil
		}
		return storage.BucketStatus{}, fmt.Errorf("failed to check container: %w", err)
	}
	return bucketStatus(bucket, true), nil
}

func (p *AzureProvider) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	if _, err := p.client.UploadBuffer(ctx, bucket, key, body, nil); err != nil {
		return p.classify(err, bucket, key, "upload blob")
	}
	return nil
}

// GetObject resolves suffix ranges against the blob size, since the
// download API only takes offset and count.
func (p *AzureProvider) GetObject(ctx context.Context, bucket, key string, rng *storage.ByteRange) (io.ReadCloser, error) {
	opts := &azblob.DownloadStreamOptions{}
	if rng != nil {
		var offset, count int64
		if rng.Suffix > 0 {
			meta, err := p.HeadObject(ctx, bucket, key)
			if err != nil {
				return nil, err
			}
			if offset, count, err = rng.Resolve(meta.ContentLength); err != nil {
				return nil, err
			}
		} else {
			offset = rng.Start
			if rng.End >= 0 {
				count = rng.End - rng.Start + 1
			}
		}
		opts.Range = blob.HTTPRange{Offset: offset, Count: count}
	}

	resp, err := p.client.DownloadStream(ctx, bucket, key, opts)
	if err != nil {
		return nil, p.classify(err, bucket, key, "download blob")
	}
	return resp.Body, nil
}

func (p *AzureProvider) HeadObject(ctx context.Context, bucket, key string) (storage.ObjectMetadata, error) {
	blobClient := p.client.ServiceClient().NewContainerClient(bucket).NewBlobClient(key)
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return storage.ObjectMetadata{}, p.classify(err, bucket, key, "get blob properties")
	}

	var meta storage.ObjectMetadata
	if props.ContentLength != nil {
		meta.ContentLength = *props.ContentLength
	}
	if props.ContentType != nil {
		meta.ContentType = *props.ContentType
	}
	if props.ContentEncoding != nil {
		meta.ContentEncoding = *props.ContentEncoding
	}
	if props.ETag != nil {
		meta.ETag = string(*props.ETag)
	}
	if props.LastModified != nil {
		meta.LastModified = *props.LastModified
	}
	if props.Metadata != nil {
		meta.Metadata = make(map[string]string, len(props.Metadata))
		for k, v := range props.Metadata {
			if v != nil {
				meta.Metadata[k] = *v
			}
		}
	}
	return meta, nil
}

// DeleteObject treats a missing blob as already deleted.
func (p *AzureProvider) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := p.client.DeleteBlob(ctx, bucket, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return p.classify(err, bucket, key, "delete blob")
	}
	return nil
}

func (p *AzureProvider) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(azureDeleteConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			return p.DeleteObject(gctx, bucket, key)
		})
	}
	return g.Wait()
}

func (p *AzureProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	listOpts := &azblob.ListBlobsFlatOptions{}
	if prefix != "" {
		listOpts.Prefix = &prefix
	}

	var objects []storage.ObjectInfo
	pager := p.client.NewListBlobsFlatPager(bucket, listOpts)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, p.classify(err, bucket, "", "list blobs")
		}
		for _, b := range resp.Segment.BlobItems {
			if b.Name == nil {
				continue
			}
			object := storage.ObjectInfo{Key: *b.Name}
			if b.Properties != nil {
				if b.Properties.ContentLength != nil {
					object.Size = *b.Properties.ContentLength
				}
				if b.Properties.LastModified != nil {
					object.LastModified = *b.Properties.LastModified
				}
				if b.Properties.ETag != nil {
					object.ETag = string(*b.Properties.ETag)
				}
			}
			objects = append(objects, object)
		}
	}
	return objects, nil
}

// UploadFile uses block uploads sized by PartSize with Concurrency workers.
func (p *AzureProvider) UploadFile(ctx context.Context, fileName, bucket, key string, opts storage.TransferOptions) (int64, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	uploadOpts := &azblob.UploadFileOptions{
		BlockSize:   opts.PartSize,
		Concurrency: uint16(max(opts.Concurrency, 1)),
	}
	if opts.ContentType != "" {
		uploadOpts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &opts.ContentType}
	}
	if len(opts.Metadata) > 0 {
		uploadOpts.Metadata = make(map[string]*string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			uploadOpts.Metadata[k] = &v
		}
	}

	if info.Size() <= opts.MultipartThreshold {
		body, err := io.ReadAll(f)
		if err != nil {
			return 0, err
		}
		_, err = p.client.UploadBuffer(ctx, bucket, key, body, &azblob.UploadBufferOptions{
			HTTPHeaders: uploadOpts.HTTPHeaders,
			Metadata:    uploadOpts.Metadata,
		})
		if err != nil {
			return 0, p.classify(err, bucket, key, "upload file")
		}
		return int64(len(body)), nil
	}

	if _, err := p.client.UploadFile(ctx, bucket, key, f, uploadOpts); err != nil {
		return 0, p.classify(err, bucket, key, "upload file")
	}
	return info.Size(), nil
}

func (p *AzureProvider) DownloadFile(ctx context.Context, bucket, key, fileName string, opts storage.TransferOptions) (int64, error) {
	dir := filepath.Dir(fileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(fileName)+".*"+partialSuffix)
	if err != nil {
		return 0, err
	}

	n, err := p.client.DownloadFile(ctx, bucket, key, f, &azblob.DownloadFileOptions{
		BlockSize:   opts.PartSize,
		Concurrency: uint16(max(opts.Concurrency, 1)),
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(f.Name(), fileName)
	}
	if err != nil {
		os.Remove(f.Name())
		return 0, p.classify(err, bucket, key, "download file")
	}
	return n, nil
}

func (p *AzureProvider) classify(err error, bucket, key, op string) error {
	switch {
	case bloberror.HasCode(err, bloberror.ContainerNotFound):
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

var (
	_ Provider   = (*AzureProvider)(nil)
	_ Transferer = (*AzureProvider)(nil)
)
