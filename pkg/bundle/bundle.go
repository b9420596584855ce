// Package bundle encodes and decodes the collector bundles: Deletreo word lists
// (flat and grouped JSON) and Personajes character packs (ZIP).
package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultDeletreoFilename   = "DeletreoData.json"
	DefaultPersonajesFilename = "PersonajesBundle.zip"

	// FlatSlots is the field count of the flat Deletreo bundle.
	FlatSlots = 6
	// GroupSize is the word count of a freshly added group.
	GroupSize = 3
)

// ErrInvalidBundle wraps every structural decode failure.
var ErrInvalidBundle = errors.New("invalid bundle")

var newline = regexp.MustCompile(`\r?\n`)

// ParseQuickLoad splits pasted spreadsheet text into rows of trimmed cells.
// Rows are separated by newlines and cells by tabs; empty lines are dropped.
func ParseQuickLoad(text string) [][]string {
	if text == "" {
		return [][]string{}
	}
	rows := make([][]string, 0)
	for _, line := range newline.Split(text, -1) {
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, cells)
	}
	return rows
}

// Column extracts cell idx from every row that has one.
func Column(rows [][]string, idx int) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if idx >= 0 && idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out
}

// WordGroup is one Deletreo round.
type WordGroup struct {
	Words []string `json:"words"`
}

// DeletreoBundle is the grouped Deletreo document.
type DeletreoBundle struct {
	Groups []WordGroup `json:"groups"`
}

// NewGroup returns a group of GroupSize empty words.
func NewGroup() WordGroup {
	return WordGroup{Words: make([]string, GroupSize)}
}

// EncodeFlat renders the flat word list as a two-space indented JSON array.
func EncodeFlat(words []string) ([]byte, error) {
	if words == nil {
		words = []string{}
	}
	return marshal(words)
}

// DecodeFlat reads a JSON array of strings and truncates or pads it to slots entries.
func DecodeFlat(data []byte, slots int) ([]string, error) {
	raw := bytes.TrimSpace(data)
	if !isArray(raw) {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidBundle)
	}
	var words []string
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	out := make([]string, slots)
	copy(out, words)
	return out, nil
}

// EncodeDeletreo renders b as two-space indented JSON.
func EncodeDeletreo(b DeletreoBundle) ([]byte, error) {
	out := DeletreoBundle{Groups: make([]WordGroup, len(b.Groups))}
	for i, g := range b.Groups {
		words := g.Words
		if words == nil {
			words = []string{}
		}
		out.Groups[i] = WordGroup{Words: words}
	}
	return marshal(out)
}

// DecodeDeletreo requires an object whose groups field is an array of objects
// that each carry a words array.
func DecodeDeletreo(data []byte) (DeletreoBundle, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return DeletreoBundle{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidBundle)
	}
	rawGroups, ok := top["groups"]
	if !ok || !isArray(rawGroups) {
		return DeletreoBundle{}, fmt.Errorf("%w: groups must be an array", ErrInvalidBundle)
	}

	var groups []map[string]json.RawMessage
	if err := json.Unmarshal(rawGroups, &groups); err != nil {
		return DeletreoBundle{}, fmt.Errorf("%w: groups: %v", ErrInvalidBundle, err)
	}

	b := DeletreoBundle{Groups: make([]WordGroup, 0, len(groups))}
	for i, g := range groups {
		rawWords, ok := g["words"]
		if g == nil || !ok || !isArray(rawWords) {
			return DeletreoBundle{}, fmt.Errorf("%w: group %d: words must be an array", ErrInvalidBundle, i)
		}
		var words []string
		if err := json.Unmarshal(rawWords, &words); err != nil {
			return DeletreoBundle{}, fmt.Errorf("%w: group %d: %v", ErrInvalidBundle, i, err)
		}
		b.Groups = append(b.Groups, WordGroup{Words: words})
	}
	return b, nil
}

// marshal indents with two spaces and leaves <, > and & unescaped.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func isArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
