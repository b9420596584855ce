// Package s3 implements the S3-compatible object storage adapter.
// It supports AWS S3, the Supabase Storage S3 endpoint, Cloudflare R2, MinIO and
// other S3-compatible services.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/broadstream/qgem/pkg/storage"
)

// maxPageKeys is the S3 upper bound for a single ListObjectsV2 page.
const maxPageKeys = 1000

// Config holds S3 storage configuration.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	PathStyle bool // Use path-style URLs (required for MinIO and Supabase)
}

// API is the subset of the S3 client used by Storage.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Storage implements storage.Storage using S3-compatible storage.
type Storage struct {
	client API
}

// New creates a new S3 storage adapter.
func New(cfg Config) (*Storage, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("access key and secret key are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var optFns []func(*config.LoadOptions) error

	optFns = append(optFns, config.WithRegion(cfg.Region))
	optFns = append(optFns, config.WithCredentialsProvider(
		credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	))

	awsCfg, err := config.LoadDefaultConfig(context.Background(), optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var s3OptFns []func(*s3.Options)

	if cfg.Endpoint != "" {
		s3OptFns = append(s3OptFns, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	if cfg.PathStyle {
		s3OptFns = append(s3OptFns, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewWithClient(s3.NewFromConfig(awsCfg, s3OptFns...)), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API) *Storage {
	return &Storage{client: client}
}

// List returns one page of direct children under prefix.
// Sorting is applied to that page only, since S3 lists in key order.
func (s *Storage) List(ctx context.Context, bucket, prefix string, opts storage.ListOptions) ([]storage.Entry, error) {
	keyPrefix := ""
	if prefix != "" {
		keyPrefix = prefix + "/"
	}

	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(keyPrefix),
		Delimiter: aws.String("/"),
	}
	if opts.Limit > 0 {
		input.MaxKeys = aws.Int32(int32(min(opts.Limit, maxPageKeys)))
	}

	output, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	entries := make([]storage.Entry, 0, len(output.CommonPrefixes)+len(output.Contents))
	for _, cp := range output.CommonPrefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), keyPrefix), "/")
		if name == "" {
			continue
		}
		entries = append(entries, storage.Entry{Name: name})
	}
	for _, obj := range output.Contents {
		key := aws.ToString(obj.Key)
		name := strings.TrimPrefix(key, keyPrefix)
		if name == "" {
			// folder placeholder object
			continue
		}
		entry := storage.Entry{
			Name:      name,
			ID:        strings.Trim(aws.ToString(obj.ETag), `"`),
			UpdatedAt: obj.LastModified,
			Metadata: &storage.Metadata{
				Size:     aws.ToInt64(obj.Size),
				Mimetype: mime.TypeByExtension(path.Ext(name)),
			},
		}
		entries = append(entries, entry)
	}

	storage.SortEntries(entries, opts.SortBy, opts.SortOrder)
	return storage.Truncate(entries, opts.Limit), nil
}

// Get retrieves an object from S3.
func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}

	return output.Body, nil
}

// Put uploads an object to S3, overwriting any existing key.
func (s *Storage) Put(ctx context.Context, bucket, key string, data io.Reader, contentType string, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	}

	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

// Type returns "s3" as the storage type identifier.
func (s *Storage) Type() string {
	return "s3"
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
