package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	// PersonajeSlots is the fixed number of character slots.
	PersonajeSlots = 6
	// DataFile is the metadata entry of a Personajes ZIP.
	DataFile = "data.json"

	// maxEntrySize bounds a single decompressed ZIP entry.
	maxEntrySize = 64 << 20
)

// SlotMeta is one row of data.json.
type SlotMeta struct {
	Slot          int     `json:"slot"`
	Nombre        string  `json:"nombre"`
	Extension     *string `json:"extension"`
	ArchivoImagen *string `json:"archivoImagen"`
}

// PersonajeImage is a character picture with the name it was picked under.
type PersonajeImage struct {
	Filename string
	Data     []byte
}

// Personaje is one character slot.
type Personaje struct {
	Nombre string
	Image  *PersonajeImage
}

// ImageExtension returns the text after the last dot of filename, or the whole name
// when it has no dot.
func ImageExtension(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i+1:]
	}
	return filename
}

// ImageEntryName is the ZIP entry name of the picture in slot.
func ImageEntryName(slot int, ext string) string {
	return fmt.Sprintf("personaje_%d.%s", slot, ext)
}

// EncodePersonajes writes data.json and one personaje_{slot}.{ext} entry per image.
// Slots are numbered from 1 in entry order.
func EncodePersonajes(entries []Personaje) ([]byte, error) {
	meta := make([]SlotMeta, len(entries))
	for i, p := range entries {
		meta[i] = SlotMeta{Slot: i + 1, Nombre: p.Nombre}
		if p.Image != nil {
			ext := ImageExtension(p.Image.Filename)
			name := ImageEntryName(i+1, ext)
			meta[i].Extension = &ext
			meta[i].ArchivoImagen = &name
		}
	}
	metaJSON, err := marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", DataFile, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := writeEntry(zw, DataFile, metaJSON); err != nil {
		return nil, err
	}
	for i, p := range entries {
		if p.Image == nil {
			continue
		}
		if err := writeEntry(zw, *meta[i].ArchivoImagen, p.Image.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePersonajes reads a Personajes ZIP into exactly slots entries. Slots missing from
// data.json load empty; an image referenced but absent from the archive is skipped.
func DecodePersonajes(data []byte, slots int) ([]Personaje, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	dataFile, ok := files[DataFile]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrInvalidBundle, DataFile)
	}
	rawMeta, err := readEntry(dataFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if !isArray(rawMeta) {
		return nil, fmt.Errorf("%w: %s must be an array", ErrInvalidBundle, DataFile)
	}
	var meta []SlotMeta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, DataFile, err)
	}

	out := make([]Personaje, slots)
	for i := range out {
		m, found := findSlot(meta, i+1)
		if !found {
			continue
		}
		out[i].Nombre = m.Nombre
		if m.ArchivoImagen == nil || *m.ArchivoImagen == "" {
			continue
		}
		f, ok := files[*m.ArchivoImagen]
		if !ok {
			continue
		}
		img, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, f.Name, err)
		}
		out[i].Image = &PersonajeImage{Filename: *m.ArchivoImagen, Data: img}
	}
	return out, nil
}

func findSlot(meta []SlotMeta, slot int) (SlotMeta, bool) {
	for _, m := range meta {
		if m.Slot == slot {
			return m, true
		}
	}
	return SlotMeta{}, false
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntrySize {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, maxEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, maxEntrySize)
	}
	return data, nil
}
