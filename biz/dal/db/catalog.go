package db

import (
	"context"

	"github.com/broadstream/qgem/biz/dal/model"
	"github.com/broadstream/qgem/pkg/storage"
	"github.com/broadstream/qgem/pkg/storage/local"

	"gorm.io/gorm"
)

// Catalog exposes ObjectDAO as the local backend's metadata catalog.
type Catalog struct {
	db  *gorm.DB
	dao *ObjectDAO
}

var _ local.Catalog = (*Catalog)(nil)

// NewCatalog migrates the object table and returns the catalog.
func NewCatalog(db *gorm.DB) (*Catalog, error) {
	if err := db.AutoMigrate(&model.ObjectRecord{}); err != nil {
		return nil, err
	}
	return &Catalog{db: db, dao: NewObjectDAO()}, nil
}

func (c *Catalog) Record(ctx context.Context, bucket, key string, meta storage.Metadata) error {
	return c.dao.Upsert(ctx, c.db, &model.ObjectRecord{
		Bucket:    bucket,
		ObjectKey: key,
		Size:      meta.Size,
		Mimetype:  meta.Mimetype,
	})
}

func (c *Catalog) Lookup(ctx context.Context, bucket string, keys []string) (map[string]local.Record, error) {
	recs, err := c.dao.ListByKeys(ctx, c.db, bucket, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[string]local.Record, len(recs))
	for _, r := range recs {
		out[r.ObjectKey] = local.Record{
			ID:        r.RecordID,
			Size:      r.Size,
			Mimetype:  r.Mimetype,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return out, nil
}

// Keys returns the set of catalogued keys of bucket under prefix.
func (c *Catalog) Keys(ctx context.Context, bucket, prefix string) (map[string]struct{}, error) {
	recs, err := c.dao.ListByPrefix(ctx, c.db, bucket, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		out[r.ObjectKey] = struct{}{}
	}
	return out, nil
}
