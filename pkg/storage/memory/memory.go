// Package memory implements an in-process storage backend.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/broadstream/qgem/pkg/storage"
)

type object struct {
	data        []byte
	contentType string
	createdAt   time.Time
	updatedAt   time.Time
}

// Storage keeps objects in a map keyed by bucket and key.
type Storage struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*object
	now     func() time.Time
}

// New creates an empty store.
func New() *Storage {
	return &Storage{
		buckets: make(map[string]map[string]*object),
		now:     time.Now,
	}
}

func (s *Storage) List(ctx context.Context, bucket, prefix string, opts storage.ListOptions) ([]storage.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyPrefix := ""
	if prefix != "" {
		keyPrefix = prefix + "/"
	}

	folders := make(map[string]struct{})
	var entries []storage.Entry
	for key, obj := range s.buckets[bucket] {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		rest := strings.TrimPrefix(key, keyPrefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			folders[rest[:idx]] = struct{}{}
			continue
		}
		created, updated := obj.createdAt, obj.updatedAt
		entries = append(entries, storage.Entry{
			Name:      rest,
			CreatedAt: &created,
			UpdatedAt: &updated,
			Metadata:  &storage.Metadata{Size: int64(len(obj.data)), Mimetype: obj.contentType},
		})
	}
	for name := range folders {
		entries = append(entries, storage.Entry{Name: name})
	}

	storage.SortEntries(entries, opts.SortBy, opts.SortOrder)
	return storage.Truncate(entries, opts.Limit), nil
}

func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Storage) Put(ctx context.Context, bucket, key string, data io.Reader, contentType string, size int64) error {
	if key == "" {
		return storage.ErrInvalidKey
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		objects = make(map[string]*object)
		s.buckets[bucket] = objects
	}
	now := s.now()
	created := now
	if prev, ok := objects[key]; ok {
		created = prev.createdAt
	}
	objects[key] = &object{data: buf, contentType: contentType, createdAt: created, updatedAt: now}
	return nil
}

func (s *Storage) Type() string {
	return "memory"
}
