package validator

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
)

type probe struct {
	Bucket string `validate:"required,bucket"`
	Path   string `validate:"objpath"`
	Limit  int    `validate:"min=1,max=1000"`
	Order  string `validate:"oneof=asc desc"`
}

func TestStruct(t *testing.T) {
	if err := Struct(probe{Bucket: "config-data", Path: "round/1", Limit: 100, Order: "desc"}); err != nil {
		t.Fatalf("expected valid probe, got %v", err)
	}

	err := Struct(probe{Bucket: "Bad Bucket", Path: "../up", Limit: 0, Order: "sideways"})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"bucket", "path", "limit must be at least 1", "order must be one of [asc desc]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestUploadConfig_ValidateFileSize(t *testing.T) {
	cfg := &UploadConfig{MaxFileSize: 4}
	if err := cfg.ValidateFileSize(0); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("expected ErrEmptyUpload, got %v", err)
	}
	if err := cfg.ValidateFileSize(5); !errors.Is(err, ErrUploadTooLarge) {
		t.Errorf("expected ErrUploadTooLarge, got %v", err)
	}
	if err := cfg.ValidateFileSize(4); err != nil {
		t.Errorf("expected size at the limit to pass, got %v", err)
	}
	if err := (&UploadConfig{}).ValidateFileSize(1 << 40); err != nil {
		t.Errorf("expected zero max to disable the bound, got %v", err)
	}
}

func TestUploadConfig_Validate(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	cfg := DefaultUploadConfig()

	mt, err := cfg.Validate(buf.Bytes(), "")
	if err != nil || mt != "image/png" {
		t.Fatalf("expected image/png, got %q (%v)", mt, err)
	}

	if _, err := cfg.Validate([]byte("just text"), "text/plain"); !errors.Is(err, ErrUnsupportedUpload) {
		t.Errorf("expected ErrUnsupportedUpload, got %v", err)
	}

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	if mt, err := cfg.Validate(svg, "image/svg+xml"); err != nil || mt != "image/svg+xml" {
		t.Errorf("expected declared svg to pass, got %q (%v)", mt, err)
	}
}
