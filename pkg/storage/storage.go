// Package storage defines the object storage abstraction used by the proxy.
// It provides a unified, bucket-aware interface for different backends including
// local filesystem, in-memory and S3-compatible object storage (Supabase, AWS S3, MinIO).
package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Get when the object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrBucketNotAllowed is returned when a bucket is outside the configured allow list.
	ErrBucketNotAllowed = errors.New("bucket not allowed")
	// ErrInvalidKey is returned for keys that escape their bucket or are empty.
	ErrInvalidKey = errors.New("invalid object key")
)

// Sort columns understood by every backend.
const (
	SortByName      = "name"
	SortByUpdatedAt = "updated_at"
	SortByCreatedAt = "created_at"
	SortBySize      = "size"

	SortAsc  = "asc"
	SortDesc = "desc"
)

var bucketNameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,62}$`)

// Storage defines the interface for object storage operations.
// All storage backends (local, memory, S3, MinIO) must implement this interface.
type Storage interface {
	// List returns the direct children of prefix inside bucket.
	// prefix is a folder path without leading or trailing slash; "" is the bucket root.
	// Folders are returned with a nil Metadata.
	List(ctx context.Context, bucket, prefix string, opts ListOptions) ([]Entry, error)

	// Get retrieves an object. Returns ErrNotFound when missing.
	// The caller must close the returned reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Put uploads an object, silently replacing any existing object at key.
	Put(ctx context.Context, bucket, key string, data io.Reader, contentType string, size int64) error

	// Type returns the storage type identifier.
	Type() string
}

// ListOptions bounds and orders a listing.
type ListOptions struct {
	Limit     int
	SortBy    string
	SortOrder string
}

// Metadata is the per-object information a backend knows about a file.
type Metadata struct {
	Size     int64
	Mimetype string
}

// Entry is a raw listing row, before the proxy classifies it.
type Entry struct {
	Name      string
	ID        string
	CreatedAt *time.Time
	UpdatedAt *time.Time
	Metadata  *Metadata
}

// IsFolder reports whether the entry denotes a folder: no metadata, or a trailing slash.
func (e Entry) IsFolder() bool {
	return e.Metadata == nil || strings.HasSuffix(e.Name, "/")
}

// ValidBucketName reports whether name is usable as a bucket.
func ValidBucketName(name string) bool {
	return bucketNameRegexp.MatchString(name)
}

// CleanKey normalises an object key or folder prefix and rejects traversal.
func CleanKey(key string) (string, error) {
	key = strings.Trim(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", nil
	}
	parts := strings.Split(key, "/")
	cleaned := parts[:0]
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidKey
		}
		cleaned = append(cleaned, part)
	}
	return strings.Join(cleaned, "/"), nil
}

// JoinKey joins a folder prefix and a name.
func JoinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// SortEntries orders entries in place, folders ahead of files so a limit never drops them.
// Within each group the column decides; unknown columns fall back to name.
// Folders have no timestamps or size, so they compare equal on those columns and keep name order.
func SortEntries(entries []Entry, by, order string) {
	desc := strings.EqualFold(order, SortDesc)
	column := func(a, b Entry) int {
		switch by {
		case SortByUpdatedAt:
			return compareTime(a.UpdatedAt, b.UpdatedAt)
		case SortByCreatedAt:
			return compareTime(a.CreatedAt, b.CreatedAt)
		case SortBySize:
			return compareInt(size(a), size(b))
		}
		return strings.Compare(a.Name, b.Name)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if fi, fj := entries[i].IsFolder(), entries[j].IsFolder(); fi != fj {
			return fi
		}
		if c := column(entries[i], entries[j]); c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		// ties keep ascending name order
		return entries[i].Name < entries[j].Name
	})
}

// Truncate caps entries at limit; limit <= 0 means no cap.
func Truncate(entries []Entry, limit int) []Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func size(e Entry) int64 {
	if e.Metadata == nil {
		return -1
	}
	return e.Metadata.Size
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
