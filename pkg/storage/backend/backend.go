// Package backend builds a storage.Storage from configuration.
package backend

import (
	"fmt"

	"github.com/broadstream/qgem/pkg/storage"
	"github.com/broadstream/qgem/pkg/storage/local"
	"github.com/broadstream/qgem/pkg/storage/memory"
	"github.com/broadstream/qgem/pkg/storage/minio"
	"github.com/broadstream/qgem/pkg/storage/s3"
)

// New creates a storage adapter based on configuration, wrapped in the bucket policy.
// catalog is only used by the local backend and may be nil.
func New(cfg storage.Config, catalog local.Catalog) (storage.Storage, error) {
	var (
		store storage.Storage
		err   error
	)

	switch cfg.Type {
	case "", "local":
		var opts []local.Option
		if catalog != nil {
			opts = append(opts, local.WithCatalog(catalog))
		}
		store, err = local.New(cfg.Local.BasePath, opts...)

	case "memory":
		store = memory.New()

	case "s3", "supabase":
		store, err = s3.New(s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PathStyle: cfg.S3.PathStyle,
		})

	case "minio":
		store, err = minio.New(minio.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			Region:    cfg.MinIO.Region,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
		})

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return storage.WithBucketPolicy(store, cfg.AllowedBuckets), nil
}
