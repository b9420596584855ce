// Package minio implements the storage adapter on top of minio-go.
package minio

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/broadstream/qgem/pkg/storage"
)

// Config holds MinIO connection settings.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Storage implements storage.Storage using a MinIO client.
type Storage struct {
	api *minio.Client
}

// New creates the client. No request is made until the first call.
func New(cfg Config) (*Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Storage{api: client}, nil
}

// List returns direct children of prefix using a non-recursive listing.
func (s *Storage) List(ctx context.Context, bucket, prefix string, opts storage.ListOptions) ([]storage.Entry, error) {
	keyPrefix := ""
	if prefix != "" {
		keyPrefix = prefix + "/"
	}

	listOpts := minio.ListObjectsOptions{
		Prefix:    keyPrefix,
		Recursive: false,
		MaxKeys:   opts.Limit,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var entries []storage.Entry
	for obj := range s.api.ListObjects(ctx, bucket, listOpts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, keyPrefix)
		if name == "" {
			continue
		}
		if strings.HasSuffix(name, "/") {
			entries = append(entries, storage.Entry{Name: strings.TrimSuffix(name, "/")})
		} else {
			modified := obj.LastModified
			contentType := obj.ContentType
			if contentType == "" {
				contentType = mime.TypeByExtension(path.Ext(name))
			}
			entries = append(entries, storage.Entry{
				Name:      name,
				ID:        obj.ETag,
				UpdatedAt: &modified,
				Metadata:  &storage.Metadata{Size: obj.Size, Mimetype: contentType},
			})
		}
		// stop reading once a page worth of keys arrived
		if opts.Limit > 0 && len(entries) >= opts.Limit {
			break
		}
	}

	storage.SortEntries(entries, opts.SortBy, opts.SortOrder)
	return entries, nil
}

// Get downloads an object. Missing keys surface on Stat, before any read.
func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

// Put uploads an object, replacing any existing one.
func (s *Storage) Put(ctx context.Context, bucket, key string, data io.Reader, contentType string, size int64) error {
	if size <= 0 {
		size = -1
	}
	if _, err := s.api.PutObject(ctx, bucket, key, data, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Type returns "minio".
func (s *Storage) Type() string {
	return "minio"
}
