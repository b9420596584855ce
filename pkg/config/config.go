package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/broadstream/qgem/pkg/storage"
)

// Environment variables that gate access-key issuance. They are read per request, never cached.
const (
	EnvAccessIssuing = "ACCESS_KEY_ISSUING"
	EnvAccessLegacy  = "ACCESS_LOCKED"
)

// Config captures service level configuration loaded from config.yaml and the environment.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	CORS      CORSConfig      `yaml:"cors"`
	Upload    UploadConfig    `yaml:"upload"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   storage.Config  `yaml:"storage"`
	Access    AccessConfig    `yaml:"access"`
}

// ServerConfig defines HTTP server options.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig selects the hlog level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// CORSConfig defines CORS middleware settings.
type CORSConfig struct {
	AllowOrigin      string `yaml:"allow_origin"`
	AllowMethods     string `yaml:"allow_methods"`
	AllowHeaders     string `yaml:"allow_headers"`
	AllowCredentials bool   `yaml:"allow_credentials"`
}

// UploadConfig defines upload constraints for the JSON save endpoint.
type UploadConfig struct {
	MaxSize int64 `yaml:"max_size"`
}

// RateLimitConfig throttles write requests per client IP.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// AccessConfig holds access-key issuance settings.
// Secret, when set, makes the issuer sign a token alongside the timestamps.
type AccessConfig struct {
	Secret string `yaml:"secret"`
}

// DatabaseConfig defines the database backend for the local object catalog.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig contains SQLite specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MySQLConfig contains MySQL specific connection details.
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// PostgresConfig contains PostgreSQL specific connection details.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// Load reads a YAML configuration file from the provided path, then applies
// environment overrides (a .env file in the working directory is loaded first when present).
// It searches in the current working directory first, then next to the binary executable.
func Load(name string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()

	configPath := findConfigFile(name)
	if configPath == "" {
		log.Printf("Warning: config file %q not found, using defaults", name)
	} else {
		log.Printf("Loading config from: %s", configPath)
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer func() { _ = f.Close() }()

		// keys missing from the file keep their defaults; explicit empty values are refilled below
		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		applyDefaults(cfg)
	}

	applyEnv(cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Storage.Type {
	case "local", "memory":
	case "s3", "supabase":
		if c.Storage.S3.AccessKey == "" || c.Storage.S3.SecretKey == "" {
			result = multierror.Append(result, errors.New("storage.s3: access_key and secret_key are required"))
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" {
			result = multierror.Append(result, errors.New("storage.minio: endpoint is required"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("storage.type: unsupported value %q", c.Storage.Type))
	}
	if c.Storage.PublicHost == "" {
		result = multierror.Append(result, errors.New("storage.public_host is required"))
	}
	for _, b := range c.Storage.AllowedBuckets {
		if !storage.ValidBucketName(b) {
			result = multierror.Append(result, fmt.Errorf("storage.allowed_buckets: invalid bucket %q", b))
		}
	}
	if c.Upload.MaxSize <= 0 {
		result = multierror.Append(result, errors.New("upload.max_size must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		result = multierror.Append(result, errors.New("rate_limit: rps and burst must be positive when enabled"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "notice", "warn", "error", "fatal":
	default:
		result = multierror.Append(result, fmt.Errorf("log.level: unsupported value %q", c.Log.Level))
	}

	return result.ErrorOrNil()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path: "data/catalog.db",
			},
		},
		CORS: CORSConfig{
			AllowOrigin:      "*",
			AllowMethods:     "GET,POST,OPTIONS",
			AllowHeaders:     "*",
			AllowCredentials: false,
		},
		Upload: UploadConfig{
			MaxSize: 10 * 1024 * 1024, // 10MB
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     5,
			Burst:   10,
		},
		Storage: storage.DefaultConfig(),
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Server.Address == "" {
		cfg.Server.Address = def.Server.Address
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = def.Database.Driver
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = def.Database.SQLite.Path
	}
	if cfg.CORS.AllowMethods == "" {
		cfg.CORS = def.CORS
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = def.Upload.MaxSize
	}
	if cfg.RateLimit.RPS == 0 {
		cfg.RateLimit.RPS = def.RateLimit.RPS
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = def.RateLimit.Burst
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = def.Storage.Type
	}
	if cfg.Storage.PublicHost == "" {
		cfg.Storage.PublicHost = def.Storage.PublicHost
	}
	if cfg.Storage.Local.BasePath == "" {
		cfg.Storage.Local.BasePath = def.Storage.Local.BasePath
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = def.Storage.S3.Region
	}
	if cfg.Storage.MinIO.Region == "" {
		cfg.Storage.MinIO.Region = def.Storage.MinIO.Region
	}
}

// applyEnv overlays environment variables on top of file values.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("QGEM_ADDRESS", &cfg.Server.Address)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("STORAGE_TYPE", &cfg.Storage.Type)
	str("STORAGE_PUBLIC_HOST", &cfg.Storage.PublicHost)
	if v, ok := lookup("STORAGE_ALLOWED_BUCKETS"); ok && v != "" {
		cfg.Storage.AllowedBuckets = splitList(v)
	}
	str("S3_ENDPOINT", &cfg.Storage.S3.Endpoint)
	str("S3_REGION", &cfg.Storage.S3.Region)
	str("S3_ACCESS_KEY", &cfg.Storage.S3.AccessKey)
	str("S3_SECRET_KEY", &cfg.Storage.S3.SecretKey)
	boolean("S3_PATH_STYLE", &cfg.Storage.S3.PathStyle)
	str("MINIO_ENDPOINT", &cfg.Storage.MinIO.Endpoint)
	str("MINIO_ACCESS_KEY", &cfg.Storage.MinIO.AccessKey)
	str("MINIO_SECRET_KEY", &cfg.Storage.MinIO.SecretKey)
	boolean("MINIO_USE_SSL", &cfg.Storage.MinIO.UseSSL)
	str("DATABASE_DRIVER", &cfg.Database.Driver)
	if v, ok := lookup("DATABASE_DSN"); ok && v != "" {
		switch strings.ToLower(cfg.Database.Driver) {
		case "mysql":
			cfg.Database.MySQL.DSN = v
		case "postgres", "postgresql":
			cfg.Database.Postgres.DSN = v
		default:
			cfg.Database.SQLite.Path = v
		}
	}
	str("ACCESS_KEY_SECRET", &cfg.Access.Secret)
}

// LookupAccessFlag returns the raw issuing flag, preferring the current name over the legacy one.
func LookupAccessFlag(lookup func(string) (string, bool)) (string, bool) {
	if v, ok := lookup(EnvAccessIssuing); ok {
		return v, true
	}
	return lookup(EnvAccessLegacy)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// findConfigFile searches for a config file in the current directory first,
// then next to the binary executable. Returns the full path or empty string.
func findConfigFile(name string) string {
	// 1. Current working directory
	if _, err := os.Stat(name); err == nil {
		abs, _ := filepath.Abs(name)
		return abs
	}

	// 2. Next to the binary executable
	exe, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exe)
		candidate := filepath.Join(exeDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
