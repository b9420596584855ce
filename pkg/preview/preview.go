// Package preview issues display handles for character images. Every handle must be
// released when its image is replaced or its form is torn down; Live reports leaks.
package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"net/http"
	"sync"

	"github.com/nfnt/resize"
)

const (
	DefaultMaxWidth = 160
	DefaultQuality  = 85
)

// Thumbnail resizes data to maxWidth keeping the aspect ratio and re-encodes it as JPEG.
// Images already narrower than maxWidth are only re-encoded.
func Thumbnail(data []byte, maxWidth, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if maxWidth > 0 && bounds.Dx() > maxWidth {
		height := uint(float64(maxWidth) * float64(bounds.Dy()) / float64(bounds.Dx()))
		if height == 0 {
			height = 1
		}
		img = resize.Resize(uint(maxWidth), height, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Handle is one scoped preview.
type Handle struct {
	id       uint64
	reg      *Registry
	mimeType string

	mu       sync.Mutex
	data     []byte
	released bool
}

func (h *Handle) ID() uint64 { return h.id }

// MimeType is image/jpeg for thumbnails, or the sniffed type of the raw fallback.
func (h *Handle) MimeType() string { return h.mimeType }

// Bytes returns the preview payload, or nil once released.
func (h *Handle) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data
}

func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release frees the preview. It is safe to call more than once and on a nil handle.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.data = nil
	h.mu.Unlock()
	h.reg.forget(h.id)
}

// Registry creates handles and tracks the unreleased ones.
type Registry struct {
	maxWidth int
	quality  int

	mu   sync.Mutex
	next uint64
	live map[uint64]*Handle
}

func NewRegistry() *Registry {
	return &Registry{
		maxWidth: DefaultMaxWidth,
		quality:  DefaultQuality,
		live:     make(map[uint64]*Handle),
	}
}

// Create builds a handle for image data. Undecodable images keep their raw bytes.
func (r *Registry) Create(data []byte) *Handle {
	h := &Handle{reg: r}
	if thumb, err := Thumbnail(data, r.maxWidth, r.quality); err == nil {
		h.data, h.mimeType = thumb, "image/jpeg"
	} else {
		h.data = append([]byte(nil), data...)
		h.mimeType = http.DetectContentType(data)
	}

	r.mu.Lock()
	r.next++
	h.id = r.next
	r.live[h.id] = h
	r.mu.Unlock()
	return h
}

// Live reports how many handles have not been released.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

func (r *Registry) forget(id uint64) {
	r.mu.Lock()
	delete(r.live, id)
	r.mu.Unlock()
}
