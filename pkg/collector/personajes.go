package collector

import (
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/broadstream/qgem/pkg/bundle"
	"github.com/broadstream/qgem/pkg/preview"
	"github.com/broadstream/qgem/pkg/validator"
)

type slot struct {
	nombre  string
	image   *bundle.PersonajeImage
	preview *preview.Handle
}

// PersonajesForm edits the six character slots. Each slot with an image owns a preview
// handle; replacing the image, loading a bundle or closing the form releases it.
type PersonajesForm struct {
	previews *preview.Registry
	upload   *validator.UploadConfig
	slots    [bundle.PersonajeSlots]slot
}

func NewPersonajesForm(previews *preview.Registry) *PersonajesForm {
	return &PersonajesForm{previews: previews, upload: validator.DefaultUploadConfig()}
}

func (f *PersonajesForm) SetName(i int, name string) error {
	if err := f.checkSlot(i); err != nil {
		return err
	}
	f.slots[i].nombre = name
	return nil
}

// SetImage stores a picture in slot i, releasing the preview of the picture it replaces.
func (f *PersonajesForm) SetImage(i int, filename string, data []byte) error {
	if err := f.checkSlot(i); err != nil {
		return err
	}
	declared := mime.TypeByExtension(strings.ToLower(path.Ext(filename)))
	if _, err := f.upload.Validate(data, declared); err != nil {
		return fmt.Errorf("image %s: %w", filename, err)
	}
	f.slots[i].preview.Release()
	img := &bundle.PersonajeImage{Filename: filename, Data: append([]byte(nil), data...)}
	f.slots[i].image = img
	f.slots[i].preview = f.previews.Create(img.Data)
	return nil
}

// ClearImage removes the picture of slot i.
func (f *PersonajesForm) ClearImage(i int) error {
	if err := f.checkSlot(i); err != nil {
		return err
	}
	f.slots[i].preview.Release()
	f.slots[i].image, f.slots[i].preview = nil, nil
	return nil
}

// Preview returns the live preview handle of slot i, or nil.
func (f *PersonajesForm) Preview(i int) *preview.Handle {
	if f.checkSlot(i) != nil {
		return nil
	}
	return f.slots[i].preview
}

// Entries returns a copy of the slots without their preview handles.
func (f *PersonajesForm) Entries() []bundle.Personaje {
	out := make([]bundle.Personaje, len(f.slots))
	for i, s := range f.slots {
		out[i].Nombre = s.nombre
		if s.image != nil {
			out[i].Image = &bundle.PersonajeImage{
				Filename: s.image.Filename,
				Data:     append([]byte(nil), s.image.Data...),
			}
		}
	}
	return out
}

func (f *PersonajesForm) Save() ([]byte, error) {
	return bundle.EncodePersonajes(f.Entries())
}

// Load replaces every slot from a Personajes ZIP. The archive is fully decoded first;
// on error the form keeps its slots and previews.
func (f *PersonajesForm) Load(data []byte) error {
	entries, err := bundle.DecodePersonajes(data, bundle.PersonajeSlots)
	if err != nil {
		return err
	}

	f.releaseAll()
	for i, e := range entries {
		f.slots[i] = slot{nombre: e.Nombre, image: e.Image}
		if e.Image != nil {
			f.slots[i].preview = f.previews.Create(e.Image.Data)
		}
	}
	return nil
}

// Close releases every preview. The form stays usable.
func (f *PersonajesForm) Close() {
	f.releaseAll()
}

func (f *PersonajesForm) releaseAll() {
	for i := range f.slots {
		f.slots[i].preview.Release()
		f.slots[i].preview = nil
	}
}

func (f *PersonajesForm) checkSlot(i int) error {
	if i < 0 || i >= len(f.slots) {
		return outOfRange("slot", i, len(f.slots))
	}
	return nil
}
