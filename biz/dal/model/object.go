package model

import (
	"time"
)

// ObjectRecord stores metadata for objects written to the local backend.
type ObjectRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	RecordID  string    `gorm:"column:record_id;uniqueIndex:idx_record_id" json:"record_id,omitempty"`
	Bucket    string    `gorm:"column:bucket;type:varchar(63);uniqueIndex:idx_bucket_key" json:"bucket,omitempty"`
	ObjectKey string    `gorm:"column:object_key;type:varchar(1024);uniqueIndex:idx_bucket_key" json:"object_key,omitempty"`
	Size      int64     `gorm:"column:size" json:"size,omitempty"`
	Mimetype  string    `gorm:"column:mimetype;type:varchar(255)" json:"mimetype,omitempty"`
}

// TableName overrides gorm to use the object table.
func (ObjectRecord) TableName() string {
	return "storage_object"
}
