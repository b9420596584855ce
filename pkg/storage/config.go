package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Config holds storage configuration.
type Config struct {
	Type string `yaml:"type"`
	// PublicHost is the base URL used to build public object links,
	// e.g. https://<project>.supabase.co.
	PublicHost     string      `yaml:"public_host"`
	AllowedBuckets []string    `yaml:"allowed_buckets"`
	Local          LocalConfig `yaml:"local"`
	S3             S3Config    `yaml:"s3"`
	MinIO          MinIOConfig `yaml:"minio"`
}

// LocalConfig holds local storage configuration.
type LocalConfig struct {
	BasePath string `yaml:"base_path"`
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`
}

// MinIOConfig holds MinIO configuration.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// DefaultConfig returns the default storage configuration (local storage).
func DefaultConfig() Config {
	return Config{
		Type:       "local",
		PublicHost: "http://localhost:8080",
		Local: LocalConfig{
			BasePath: "data/objects",
		},
		S3: S3Config{
			Region:    "us-east-1",
			PathStyle: true,
		},
		MinIO: MinIOConfig{
			Region: "us-east-1",
		},
	}
}

// PublicURL builds the deterministic public link for an object.
func PublicURL(host, bucket, key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimSuffix(host, "/"), bucket, key)
}

// BucketPolicy restricts a Storage to a fixed set of buckets and rejects malformed names.
// An empty allow list admits every well-formed bucket.
type BucketPolicy struct {
	next    Storage
	allowed map[string]struct{}
}

// WithBucketPolicy wraps next with the allow list.
func WithBucketPolicy(next Storage, allowed []string) *BucketPolicy {
	p := &BucketPolicy{next: next}
	if len(allowed) > 0 {
		p.allowed = make(map[string]struct{}, len(allowed))
		for _, b := range allowed {
			p.allowed[strings.TrimSpace(b)] = struct{}{}
		}
	}
	return p
}

func (p *BucketPolicy) check(bucket string) error {
	if !ValidBucketName(bucket) {
		return fmt.Errorf("%w: %q", ErrBucketNotAllowed, bucket)
	}
	if p.allowed == nil {
		return nil
	}
	if _, ok := p.allowed[bucket]; !ok {
		return fmt.Errorf("%w: %q", ErrBucketNotAllowed, bucket)
	}
	return nil
}

func (p *BucketPolicy) List(ctx context.Context, bucket, prefix string, opts ListOptions) ([]Entry, error) {
	if err := p.check(bucket); err != nil {
		return nil, err
	}
	return p.next.List(ctx, bucket, prefix, opts)
}

func (p *BucketPolicy) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := p.check(bucket); err != nil {
		return nil, err
	}
	return p.next.Get(ctx, bucket, key)
}

func (p *BucketPolicy) Put(ctx context.Context, bucket, key string, data io.Reader, contentType string, size int64) error {
	if err := p.check(bucket); err != nil {
		return err
	}
	return p.next.Put(ctx, bucket, key, data, contentType, size)
}

func (p *BucketPolicy) Type() string {
	return p.next.Type()
}
