// Package local implements the local filesystem storage adapter.
// Buckets are directories under the base path; object metadata can be kept in a Catalog.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/broadstream/qgem/pkg/storage"
)

const tempPrefix = ".qgem-tmp-"

// Record is the catalog view of one stored object.
type Record struct {
	ID        string
	Size      int64
	Mimetype  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Catalog persists per-object metadata that the filesystem cannot carry.
type Catalog interface {
	Record(ctx context.Context, bucket, key string, meta storage.Metadata) error
	Lookup(ctx context.Context, bucket string, keys []string) (map[string]Record, error)
}

// Storage implements storage.Storage using the local filesystem.
type Storage struct {
	basePath string
	catalog  Catalog
}

// Option configures Storage.
type Option func(*Storage)

// WithCatalog attaches a metadata catalog.
func WithCatalog(c Catalog) Option {
	return func(s *Storage) { s.catalog = c }
}

// New creates a new local storage adapter.
// basePath is the root directory for buckets (e.g., "data/objects").
func New(basePath string, opts ...Option) (*Storage, error) {
	if basePath == "" {
		basePath = "data/objects"
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Storage{basePath: basePath}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List reads one directory level and enriches files from the catalog.
func (s *Storage) List(ctx context.Context, bucket, prefix string, opts storage.ListOptions) ([]storage.Entry, error) {
	dir, err := s.keyToPath(bucket, prefix)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []storage.Entry{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var (
		entries []storage.Entry
		keys    []string
	)
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, tempPrefix) {
			continue
		}
		if de.IsDir() {
			entries = append(entries, storage.Entry{Name: name})
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("stat file: %w", err)
		}
		modified := info.ModTime()
		entries = append(entries, storage.Entry{
			Name:      name,
			UpdatedAt: &modified,
			Metadata: &storage.Metadata{
				Size:     info.Size(),
				Mimetype: mime.TypeByExtension(path.Ext(name)),
			},
		})
		keys = append(keys, storage.JoinKey(prefix, name))
	}

	if s.catalog != nil && len(keys) > 0 {
		records, err := s.catalog.Lookup(ctx, bucket, keys)
		if err != nil {
			return nil, fmt.Errorf("catalog lookup: %w", err)
		}
		for i := range entries {
			if entries[i].Metadata == nil {
				continue
			}
			rec, ok := records[storage.JoinKey(prefix, entries[i].Name)]
			if !ok {
				continue
			}
			created, updated := rec.CreatedAt, rec.UpdatedAt
			entries[i].ID = rec.ID
			entries[i].CreatedAt = &created
			entries[i].UpdatedAt = &updated
			if rec.Mimetype != "" {
				entries[i].Metadata.Mimetype = rec.Mimetype
			}
		}
	}

	storage.SortEntries(entries, opts.SortBy, opts.SortOrder)
	return storage.Truncate(entries, opts.Limit), nil
}

// Get reads a file from the local filesystem.
func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	fullPath, err := s.keyToPath(bucket, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
	}

	return f, nil
}

// Put writes through a temp file and renames it over the target, so readers never see
// a partial object. Concurrent writers race and the last rename wins.
func (s *Storage) Put(ctx context.Context, bucket, key string, data io.Reader, contentType string, size int64) error {
	if key == "" {
		return storage.ErrInvalidKey
	}
	fullPath, err := s.keyToPath(bucket, key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	written, err := io.Copy(tmp, data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename file: %w", err)
	}

	if s.catalog != nil {
		if err := s.catalog.Record(ctx, bucket, key, storage.Metadata{Size: written, Mimetype: contentType}); err != nil {
			return fmt.Errorf("catalog record: %w", err)
		}
	}

	return nil
}

// Type returns "local" as the storage type identifier.
func (s *Storage) Type() string {
	return "local"
}

// BasePath returns the base path of the storage.
func (s *Storage) BasePath() string {
	return s.basePath
}

// keyToPath converts a bucket and key into a filesystem path confined to the bucket directory.
func (s *Storage) keyToPath(bucket, key string) (string, error) {
	if !storage.ValidBucketName(bucket) {
		return "", fmt.Errorf("%w: %q", storage.ErrBucketNotAllowed, bucket)
	}
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return "", err
	}
	root := filepath.Join(s.basePath, bucket)
	full := filepath.Join(root, filepath.FromSlash(cleaned))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", errors.Join(storage.ErrInvalidKey, fmt.Errorf("key %q escapes bucket", key))
	}
	return full, nil
}
