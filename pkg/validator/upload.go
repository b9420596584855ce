package validator

import (
	"errors"
	"net/http"
	"strings"
)

// Default upload constraints
const (
	DefaultMaxUploadSize = 10 * 1024 * 1024 // 10MB
)

var (
	ErrEmptyUpload       = errors.New("file is empty")
	ErrUploadTooLarge    = errors.New("file too large")
	ErrUnsupportedUpload = errors.New("unsupported file type")
)

// DefaultImageMimeTypes are the character image formats accepted by the collector.
var DefaultImageMimeTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/bmp":     true,
	"image/svg+xml": true,
}

// UploadConfig defines constraints for uploaded payloads.
type UploadConfig struct {
	MaxFileSize      int64
	AllowedMimeTypes map[string]bool
}

// DefaultUploadConfig returns the default upload configuration.
func DefaultUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxFileSize:      DefaultMaxUploadSize,
		AllowedMimeTypes: DefaultImageMimeTypes,
	}
}

// ValidateFileSize checks if the payload size is within the allowed limit.
// A zero MaxFileSize disables the upper bound.
func (c *UploadConfig) ValidateFileSize(size int64) error {
	if size <= 0 {
		return ErrEmptyUpload
	}
	if c.MaxFileSize > 0 && size > c.MaxFileSize {
		return ErrUploadTooLarge
	}
	return nil
}

// ValidateMimeType checks if the MIME type is in the allowed whitelist.
func (c *UploadConfig) ValidateMimeType(mimeType string) error {
	normalized := strings.ToLower(strings.TrimSpace(mimeType))
	if normalized == "" {
		return errors.New("missing content type")
	}
	// Handle MIME types with parameters (e.g., "text/plain; charset=utf-8")
	if idx := strings.Index(normalized, ";"); idx > 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	if !c.AllowedMimeTypes[normalized] {
		return ErrUnsupportedUpload
	}
	return nil
}

// DetectMimeType sniffs data and validates the result. SVG is text to the sniffer,
// so a declared image/svg+xml is trusted when the content looks like markup.
func (c *UploadConfig) DetectMimeType(data []byte, declaredType string) (string, error) {
	detected := http.DetectContentType(data)
	if idx := strings.Index(detected, ";"); idx > 0 {
		detected = strings.TrimSpace(detected[:idx])
	}
	if strings.EqualFold(declaredType, "image/svg+xml") && (detected == "text/xml" || detected == "text/plain") {
		detected = "image/svg+xml"
	}
	if err := c.ValidateMimeType(detected); err != nil {
		return detected, err
	}
	return detected, nil
}

// Validate performs full validation on an upload.
func (c *UploadConfig) Validate(data []byte, declaredType string) (string, error) {
	if err := c.ValidateFileSize(int64(len(data))); err != nil {
		return "", err
	}
	return c.DetectMimeType(data, declaredType)
}
