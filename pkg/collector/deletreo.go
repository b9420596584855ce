// Package collector holds the in-memory state of the Deletreo and Personajes forms.
// Mutations never alias slices handed out earlier; Load validates before replacing anything.
package collector

import (
	"errors"
	"fmt"

	"github.com/broadstream/qgem/pkg/bundle"
)

// ErrIndexOutOfRange is returned for group, word or slot indices outside the form.
var ErrIndexOutOfRange = errors.New("index out of range")

func outOfRange(kind string, idx, n int) error {
	return fmt.Errorf("%w: %s %d (have %d)", ErrIndexOutOfRange, kind, idx, n)
}

// DeletreoForm edits grouped word lists.
type DeletreoForm struct {
	groups []bundle.WordGroup
}

// NewDeletreoForm starts with one group of three empty words.
func NewDeletreoForm() *DeletreoForm {
	return &DeletreoForm{groups: []bundle.WordGroup{bundle.NewGroup()}}
}

// Groups returns a deep copy of the current groups.
func (f *DeletreoForm) Groups() []bundle.WordGroup {
	return cloneGroups(f.groups)
}

func (f *DeletreoForm) AddGroup() {
	f.groups = append(cloneGroups(f.groups), bundle.NewGroup())
}

// RemoveGroup drops group g; later groups shift down by one.
func (f *DeletreoForm) RemoveGroup(g int) error {
	if err := f.checkGroup(g); err != nil {
		return err
	}
	next := make([]bundle.WordGroup, 0, len(f.groups)-1)
	next = append(next, cloneGroups(f.groups[:g])...)
	next = append(next, cloneGroups(f.groups[g+1:])...)
	f.groups = next
	return nil
}

// AddWord appends an empty word to group g.
func (f *DeletreoForm) AddWord(g int) error {
	if err := f.checkGroup(g); err != nil {
		return err
	}
	f.replaceWords(g, append(cloneWords(f.groups[g].Words), ""))
	return nil
}

func (f *DeletreoForm) UpdateWord(g, w int, value string) error {
	if err := f.checkWord(g, w); err != nil {
		return err
	}
	words := cloneWords(f.groups[g].Words)
	words[w] = value
	f.replaceWords(g, words)
	return nil
}

// RemoveWord drops word w of group g; later words shift down by one.
func (f *DeletreoForm) RemoveWord(g, w int) error {
	if err := f.checkWord(g, w); err != nil {
		return err
	}
	old := f.groups[g].Words
	words := make([]string, 0, len(old)-1)
	words = append(words, old[:w]...)
	words = append(words, old[w+1:]...)
	f.replaceWords(g, words)
	return nil
}

// QuickLoad replaces the words of group g with the first column of pasted text.
func (f *DeletreoForm) QuickLoad(g int, text string) error {
	if err := f.checkGroup(g); err != nil {
		return err
	}
	f.replaceWords(g, bundle.Column(bundle.ParseQuickLoad(text), 0))
	return nil
}

func (f *DeletreoForm) Save() ([]byte, error) {
	return bundle.EncodeDeletreo(bundle.DeletreoBundle{Groups: f.groups})
}

// Load replaces every group with the decoded bundle. On error the form is unchanged.
func (f *DeletreoForm) Load(data []byte) error {
	b, err := bundle.DecodeDeletreo(data)
	if err != nil {
		return err
	}
	f.groups = b.Groups
	return nil
}

func (f *DeletreoForm) replaceWords(g int, words []string) {
	next := cloneGroups(f.groups)
	next[g] = bundle.WordGroup{Words: words}
	f.groups = next
}

func (f *DeletreoForm) checkGroup(g int) error {
	if g < 0 || g >= len(f.groups) {
		return outOfRange("group", g, len(f.groups))
	}
	return nil
}

func (f *DeletreoForm) checkWord(g, w int) error {
	if err := f.checkGroup(g); err != nil {
		return err
	}
	if n := len(f.groups[g].Words); w < 0 || w >= n {
		return outOfRange("word", w, n)
	}
	return nil
}

func cloneGroups(groups []bundle.WordGroup) []bundle.WordGroup {
	out := make([]bundle.WordGroup, len(groups))
	for i, g := range groups {
		out[i] = bundle.WordGroup{Words: cloneWords(g.Words)}
	}
	return out
}

func cloneWords(words []string) []string {
	out := make([]string, len(words))
	copy(out, words)
	return out
}

// FlatDeletreoForm is the legacy six-field word list.
type FlatDeletreoForm struct {
	words [bundle.FlatSlots]string
}

func NewFlatDeletreoForm() *FlatDeletreoForm {
	return &FlatDeletreoForm{}
}

func (f *FlatDeletreoForm) Set(i int, value string) error {
	if i < 0 || i >= len(f.words) {
		return outOfRange("field", i, len(f.words))
	}
	f.words[i] = value
	return nil
}

func (f *FlatDeletreoForm) Words() []string {
	return append([]string(nil), f.words[:]...)
}

func (f *FlatDeletreoForm) Save() ([]byte, error) {
	return bundle.EncodeFlat(f.words[:])
}

// Load reads a JSON array of strings, truncating or padding it to six fields.
func (f *FlatDeletreoForm) Load(data []byte) error {
	words, err := bundle.DecodeFlat(data, bundle.FlatSlots)
	if err != nil {
		return err
	}
	copy(f.words[:], words)
	return nil
}
