package storagebackend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/snapbase/snapbase/internal/logging"
	"github.com/snapbase/snapbase/internal/snaperr"
)

// S3Config describes one S3-compatible backend target. UseExpress selects
// S3 Express One Zone (directory buckets): those require path-style
// addressing and a zonal endpoint, and the SDK transparently swaps in
// session-token credentials (via the service's CreateSession API) for any
// bucket whose name carries the "--x-s3" directory-bucket suffix.
type S3Config struct {
	Bucket             string
	Prefix             string
	Region             string
	UseExpress         bool
	AvailabilityZone   string
}

// S3Backend stores objects in a single S3 (or S3-compatible) bucket under a
// fixed key prefix. Regular buckets use virtual-host addressing and
// standard V4 signing; Express One Zone buckets use path-style addressing,
// selected by S3Config.UseExpress.
type S3Backend struct {
	client *s3.Client
	bucket string
	prefix string
	logger *logging.Logger
}

// NewS3Backend builds the client from the standard credential chain
// (environment, then shared config, then instance metadata) and applies
// the addressing style the config calls for.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, snaperr.NewConfigInvalid("storage.s3.bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, snaperr.NewConfigInvalid("load AWS credential chain: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.UseExpress {
			// Directory buckets require path-style addressing; the SDK
			// recognizes the "--x-s3" bucket suffix and switches to the
			// S3 Express session-credential provider automatically.
			o.UsePathStyle = true
			if cfg.AvailabilityZone != "" && cfg.Region != "" {
				o.BaseEndpoint = aws.String(fmt.Sprintf("https://s3express-%s.%s.amazonaws.com", cfg.AvailabilityZone, cfg.Region))
			}
		}
	})

	prefix := strings.Trim(cfg.Prefix, "/")
	return &S3Backend{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		logger: logging.GetLogger("storagebackend.s3"),
	}, nil
}

func (b *S3Backend) objectKey(key string) string {
	trimmed := strings.TrimPrefix(key, "/")
	if b.prefix == "" {
		return trimmed
	}
	return b.prefix + "/" + trimmed
}

func (b *S3Backend) String() string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, b.prefix)
}

func (b *S3Backend) PutBytes(ctx context.Context, key string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return snaperr.NewStorageUnavailable(err, "put %q", key)
	}
	return nil
}

// PutIfAbsent relies on S3's conditional-write support (If-None-Match: "*"),
// which every modern S3-compatible endpoint honors for object creation.
func (b *S3Backend) PutIfAbsent(ctx context.Context, key string, data []byte) (bool, error) {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.objectKey(key)),
		Body:        bytes.NewReader(data),
		IfNoneMatch: aws.String("*"),
	})
	if err == nil {
		return true, nil
	}
	var apiErr interface {
		ErrorCode() string
	}
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if code == "PreconditionFailed" || code == "ConditionalRequestConflict" {
			return false, nil
		}
	}
	return false, snaperr.NewStorageUnavailable(err, "claim %q", key)
}

func (b *S3Backend) GetBytes(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, snaperr.NewNotFound("object %q not found", key)
		}
		return nil, snaperr.NewStorageUnavailable(err, "get %q", key)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, snaperr.NewStorageUnavailable(err, "read body of %q", key)
	}
	return data, nil
}

func (b *S3Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, snaperr.NewStorageUnavailable(err, "head %q", key)
}

func (b *S3Backend) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.objectKey(prefix)),
	}
	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, snaperr.NewStorageUnavailable(err, "list prefix %q", prefix)
		}
		for _, obj := range page.Contents {
			full := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(full, b.prefix+"/")
			keys = append(keys, rel)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *S3Backend) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := b.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(b.objectKey(k)),
		}); err != nil {
			return snaperr.NewStorageUnavailable(err, "delete %q", k)
		}
	}
	return nil
}

func (b *S3Backend) OpenWriter(ctx context.Context, key string) (io.WriteCloser, error) {
	// S3 has no partial-object visibility to guard against: PutObject is
	// already atomic from a reader's perspective, so the writer simply
	// buffers and uploads once on Close.
	return &s3Writer{ctx: ctx, backend: b, key: key}, nil
}

type s3Writer struct {
	ctx     context.Context
	backend *S3Backend
	key     string
	buf     bytes.Buffer
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *s3Writer) Close() error {
	return w.backend.PutBytes(w.ctx, w.key, w.buf.Bytes())
}
