// Package storage implements the storage proxy: listings, JSON reads and JSON saves
// against the configured object store.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"github.com/broadstream/qgem/biz/model/api"
	objstore "github.com/broadstream/qgem/pkg/storage"
	"github.com/broadstream/qgem/pkg/validator"
)

const (
	DefaultLimit     = 100
	MaxLimit         = 1000
	DefaultSortBy    = objstore.SortByUpdatedAt
	DefaultSortOrder = objstore.SortDesc

	jsonContentType = "application/json"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrObjectNotFound  = errors.New("file not found")
	ErrMalformedObject = errors.New("stored object is not valid JSON")
	ErrInvalidBody     = errors.New("invalid JSON body")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ListInput carries the query of a listing request.
type ListInput struct {
	Bucket    string `validate:"required,bucket"`
	Path      string `validate:"objpath"`
	Limit     int    `validate:"min=1,max=1000"`
	SortBy    string `validate:"oneof=name updated_at created_at size"`
	SortOrder string `validate:"oneof=asc desc"`
}

func (in *ListInput) applyDefaults() {
	if in.Limit == 0 {
		in.Limit = DefaultLimit
	}
	if in.SortBy == "" {
		in.SortBy = DefaultSortBy
	}
	if in.SortOrder == "" {
		in.SortOrder = DefaultSortOrder
	}
}

// Listing is a classified directory view.
type Listing struct {
	Bucket  string
	Path    string
	Folders []api.FolderItem
	Files   []api.FileItem
}

// SaveResult describes a stored JSON object.
type SaveResult struct {
	Path      string
	PublicURL string
	Size      int
}

// Service proxies bucket operations to the configured store.
type Service struct {
	store      objstore.Storage
	publicHost string
	upload     *validator.UploadConfig
}

// NewService builds the proxy. maxBody bounds save payloads; 0 disables the bound.
func NewService(store objstore.Storage, publicHost string, maxBody int64) *Service {
	return &Service{
		store:      store,
		publicHost: publicHost,
		upload:     &validator.UploadConfig{MaxFileSize: maxBody},
	}
}

// StorageType reports the backing store identifier.
func (s *Service) StorageType() string {
	return s.store.Type()
}

// PublicURL returns the deterministic public link of an object.
func (s *Service) PublicURL(bucket, fullPath string) string {
	return objstore.PublicURL(s.publicHost, bucket, fullPath)
}

// List returns the folders and files directly under in.Path.
func (s *Service) List(ctx context.Context, in ListInput) (*Listing, error) {
	in.applyDefaults()
	if err := validator.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	path, err := objstore.CleanKey(in.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	entries, err := s.store.List(ctx, in.Bucket, path, objstore.ListOptions{
		Limit:     in.Limit,
		SortBy:    in.SortBy,
		SortOrder: in.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", in.Bucket, path, err)
	}

	folders, files := s.Classify(path, in.Bucket, entries)
	hlog.CtxInfof(ctx, "list bucket=%s path=%q folders=%d files=%d", in.Bucket, path, len(folders), len(files))
	return &Listing{Bucket: in.Bucket, Path: path, Folders: folders, Files: files}, nil
}

// ReadJSON fetches an object and checks that it decodes as UTF-8 JSON.
func (s *Service) ReadJSON(ctx context.Context, bucket, key string) (json.RawMessage, error) {
	key, err := s.objectKey(bucket, key)
	if err != nil {
		return nil, err
	}

	rc, err := s.store.Get(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	hlog.CtxInfof(ctx, "get bucket=%s key=%s size=%d", bucket, key, len(raw))

	if !utf8.Valid(raw) || !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedObject, key)
	}
	return json.RawMessage(raw), nil
}

// SaveJSON re-indents body with two spaces and upserts it at key. Existing objects are replaced.
func (s *Service) SaveJSON(ctx context.Context, bucket, key string, body []byte) (*SaveResult, error) {
	key, err := s.objectKey(bucket, key)
	if err != nil {
		return nil, err
	}
	if err := s.upload.ValidateFileSize(int64(len(body))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM)), "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	size := buf.Len()
	hlog.CtxInfof(ctx, "save bucket=%s key=%s size=%d", bucket, key, size)

	if err := s.store.Put(ctx, bucket, key, &buf, jsonContentType, int64(size)); err != nil {
		return nil, fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}

	return &SaveResult{
		Path:      key,
		PublicURL: s.PublicURL(bucket, key),
		Size:      size,
	}, nil
}

func (s *Service) objectKey(bucket, key string) (string, error) {
	if !objstore.ValidBucketName(bucket) {
		return "", fmt.Errorf("%w: bucket %q is not a valid bucket name", ErrInvalidRequest, bucket)
	}
	cleaned, err := objstore.CleanKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if cleaned == "" {
		return "", fmt.Errorf("%w: filename required", ErrInvalidRequest)
	}
	return cleaned, nil
}
