package db

import (
	"context"
	"testing"

	"github.com/broadstream/qgem/biz/dal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Reduce log noise in tests
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every new connection to :memory: is a fresh database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.ObjectRecord{}); err != nil {
		t.Fatalf("Failed to migrate tables: %v", err)
	}

	return db
}

// CleanupTestDB closes the database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("Warning: Failed to get underlying DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Logf("Warning: Failed to close DB: %v", err)
	}
}

// CreateTestObject creates a catalog row with default values
func CreateTestObject(t *testing.T, db *gorm.DB, bucket, key string) *model.ObjectRecord {
	t.Helper()
	rec := &model.ObjectRecord{
		Bucket:    bucket,
		ObjectKey: key,
		Size:      42,
		Mimetype:  "application/json",
	}
	if err := NewObjectDAO().Upsert(context.Background(), db, rec); err != nil {
		t.Fatalf("Failed to create test object: %v", err)
	}
	return rec
}
