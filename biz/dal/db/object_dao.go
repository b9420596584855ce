package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/broadstream/qgem/biz/dal/model"
	"github.com/google/uuid"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ObjectDAO handles catalog rows for stored objects.
type ObjectDAO struct{}

func NewObjectDAO() *ObjectDAO { return &ObjectDAO{} }

// Upsert inserts the record or refreshes size, mimetype and updated_at of the existing row.
// created_at and record_id of an existing row are preserved.
func (dao *ObjectDAO) Upsert(ctx context.Context, db *gorm.DB, rec *model.ObjectRecord) error {
	if rec == nil {
		return errors.New("object record must not be nil")
	}
	if rec.Bucket == "" || rec.ObjectKey == "" {
		return errors.New("bucket and object key are required")
	}
	if rec.RecordID == "" {
		rec.RecordID = uuid.NewString()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}, {Name: "object_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"size", "mimetype", "updated_at"}),
	}).Create(rec).Error
}

func (dao *ObjectDAO) ListByKeys(ctx context.Context, db *gorm.DB, bucket string, keys []string) ([]model.ObjectRecord, error) {
	var recs []model.ObjectRecord
	if len(keys) == 0 {
		return recs, nil
	}
	if err := db.WithContext(ctx).
		Where("bucket = ? AND object_key IN ?", bucket, keys).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// ListByPrefix returns every record whose key lives under prefix, newest first.
func (dao *ObjectDAO) ListByPrefix(ctx context.Context, db *gorm.DB, bucket, prefix string) ([]model.ObjectRecord, error) {
	var recs []model.ObjectRecord
	query := db.WithContext(ctx).Where("bucket = ?", bucket)
	if prefix != "" {
		query = query.Where("object_key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"/%")
	}
	if err := query.Order("updated_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
