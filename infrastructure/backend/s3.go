package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// maxDeleteBatch is the most keys one DeleteObjects request accepts.
const maxDeleteBatch = 1000

// S3Provider implements Provider for AWS S3.
type S3Provider struct {
	client *s3.Client
	region string
}

// S3Config configures the S3 provider.
type S3Config struct {
	Region          string // AWS region (default: us-east-1)
	AccessKeyID     string // Optional: uses the default credential chain if empty
	SecretAccessKey string
	SessionToken    string
	Endpoint        string // Optional: custom endpoint for S3-compatible storage
}

// NewS3Provider creates a new AWS S3 provider.
func NewS3Provider(ctx context.Context, cfg S3Config) (*S3Provider, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Provider{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		region: region,
	}, nil
}

// Name returns the provider name.
func (p *S3Provider) Name() string {
	return storage.BackendS3
}

func (p *S3Provider) CreateBucket(ctx context.Context, bucket string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if p.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(p.region),
		}
	}
	if _, err := p.client.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return fmt.Errorf("%w: %s", storage.ErrBucketExists, bucket)
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (p *S3Provider) HeadBucket(ctx context.Context, bucket string) (storage.BucketStatus, error) {
	out, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		if code := httpStatus(err); code == http.StatusNotFound || code == http.StatusForbidden {
			return storage.BucketStatus{Bucket: bucket, StatusCode: code}, nil
		}
		return storage.BucketStatus{}, fmt.Errorf("failed to check bucket: %w", err)
	}
	return storage.BucketStatus{
		Bucket:     bucket,
		Exists:     true,
		StatusCode: http.StatusOK,
		Region:     aws.ToString(out.BucketRegion),
	}, nil
}

func (p *S3Provider) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return p.classify(err, bucket, key, "put object")
	}
	return nil
}

func (p *S3Provider) GetObject(ctx context.Context, bucket, key string, rng *storage.ByteRange) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if rng != nil {
		input.Range = aws.String(rng.String())
	}
	out, err := p.client.GetObject(ctx, input)
	if err != nil {
		return nil, p.classify(err, bucket, key, "get object")
	}
	return out.Body, nil
}

func (p *S3Provider) HeadObject(ctx context.Context, bucket, key string) (storage.ObjectMetadata, error) {
	out, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storage.ObjectMetadata{}, p.classify(err, bucket, key, "head object")
	}

	meta := storage.ObjectMetadata{
		ContentLength:   aws.ToInt64(out.ContentLength),
		ContentType:     aws.ToString(out.ContentType),
		ContentEncoding: aws.ToString(out.ContentEncoding),
		ETag:            strings.Trim(aws.ToString(out.ETag), `"`),
		Metadata:        out.Metadata,
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}
	return meta, nil
}

func (p *S3Provider) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return p.classify(err, bucket, key, "delete object")
	}
	return nil
}

// DeleteObjects sends batches of up to 1000 keys.
func (p *S3Provider) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	for batch := range slices.Chunk(keys, maxDeleteBatch) {
		ids := make([]types.ObjectIdentifier, len(batch))
		for i, key := range batch {
			ids[i] = types.ObjectIdentifier{Key: aws.String(key)}
		}
		out, err := p.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return p.classify(err, bucket, "", "delete objects")
		}
		if len(out.Errors) > 0 {
			var errs []error
			for _, e := range out.Errors {
				errs = append(errs, fmt.Errorf("%s: %s: %s",
					aws.ToString(e.Key), aws.ToString(e.Code), aws.ToString(e.Message)))
			}
			return fmt.Errorf("failed to delete %d objects: %w", len(errs), errors.Join(errs...))
		}
	}
	return nil
}

// ListObjects pages through ListObjectsV2.
func (p *S3Provider) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []storage.ObjectInfo
	pages := s3.NewListObjectsV2Paginator(p.client, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, p.classify(err, bucket, "", "list objects")
		}
		for _, obj := range page.Contents {
			info := storage.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
				ETag: strings.Trim(aws.ToString(obj.ETag), `"`),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			objects = append(objects, info)
		}
	}
	return objects, nil
}

// UploadFile uses a single PutObject up to the multipart threshold and a
// parallel multipart upload above it.
func (p *S3Provider) UploadFile(ctx context.Context, fileName, bucket, key string, opts storage.TransferOptions) (int64, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()

	if size <= opts.MultipartThreshold {
		input := &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          f,
			ContentLength: aws.Int64(size),
			Metadata:      opts.Metadata,
		}
		if opts.ContentType != "" {
			input.ContentType = aws.String(opts.ContentType)
		}
		if _, err := p.client.PutObject(ctx, input); err != nil {
			return 0, p.classify(err, bucket, key, "upload file")
		}
		return size, nil
	}

	if err := p.multipartUpload(ctx, f, size, bucket, key, opts); err != nil {
		return 0, err
	}
	return size, nil
}

func (p *S3Provider) multipartUpload(ctx context.Context, f *os.File, size int64, bucket, key string, opts storage.TransferOptions) error {
	create := &s3.CreateMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		Metadata: opts.Metadata,
	}
	if opts.ContentType != "" {
		create.ContentType = aws.String(opts.ContentType)
	}
	upload, err := p.client.CreateMultipartUpload(ctx, create)
	if err != nil {
		return p.classify(err, bucket, key, "create multipart upload")
	}

	parts := splitParts(size, opts.PartSize)
	completed := make([]types.CompletedPart, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))
	for i, pt := range parts {
		g.Go(func() error {
			out, err := p.client.UploadPart(gctx, &s3.UploadPartInput{
				Bucket:        aws.String(bucket),
				Key:           aws.String(key),
				UploadId:      upload.UploadId,
				PartNumber:    aws.Int32(pt.number),
				Body:          io.NewSectionReader(f, pt.offset, pt.size),
				ContentLength: aws.Int64(pt.size),
			})
			if err != nil {
				return fmt.Errorf("upload part %d: %w", pt.number, err)
			}
			completed[i] = types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(pt.number)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.abort(ctx, bucket, key, upload.UploadId)
		return p.classify(err, bucket, key, "multipart upload")
	}

	_, err = p.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        upload.UploadId,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		p.abort(ctx, bucket, key, upload.UploadId)
		return p.classify(err, bucket, key, "complete multipart upload")
	}
	return nil
}

func (p *S3Provider) abort(ctx context.Context, bucket, key string, uploadID *string) {
	_, _ = p.client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: uploadID,
	})
}

// DownloadFile fetches objects above the multipart threshold with parallel
// ranged GETs.
func (p *S3Provider) DownloadFile(ctx context.Context, bucket, key, fileName string, opts storage.TransferOptions) (int64, error) {
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

// classify maps S3 not-found responses onto the storage sentinels.
func (p *S3Provider) classify(err error, bucket, key, op string) error {
	var noBucket *types.NoSuchBucket
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	switch {
	case errors.As(err, &noBucket):
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	case errors.As(err, &noKey), errors.As(err, &notFound):
		return fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// httpStatus extracts the HTTP status code from an SDK error, or 0.
func httpStatus(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

var (
	_ Provider   = (*S3Provider)(nil)
	_ Transferer = (*S3Provider)(nil)
)
