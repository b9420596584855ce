// Package gameconfig builds the JSON payloads handed to the game runtimes:
// the configuration catalog of a bucket and the list of games picked for a show.
package gameconfig

import (
	"encoding/json"
	"strings"

	"github.com/broadstream/qgem/biz/model/api"
)

// Resource is a selectable storage item.
type Resource struct {
	Bucket   string
	Name     string
	FullPath string
	Folder   bool
}

func (r Resource) key() string {
	return r.Bucket + "\x00" + r.FullPath
}

// Selection is an ordered toggle set keyed by bucket and full path.
type Selection struct {
	items []Resource
	index map[string]int
}

func NewSelection() *Selection {
	return &Selection{index: make(map[string]int)}
}

// Toggle adds r when absent and removes it otherwise. It reports whether r is now selected.
func (s *Selection) Toggle(r Resource) bool {
	k := r.key()
	if i, ok := s.index[k]; ok {
		s.items = append(s.items[:i:i], s.items[i+1:]...)
		s.reindex()
		return false
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, r)
	return true
}

func (s *Selection) Has(r Resource) bool {
	_, ok := s.index[r.key()]
	return ok
}

func (s *Selection) Len() int { return len(s.items) }

// Items returns the selection in the order it was made.
func (s *Selection) Items() []Resource {
	out := make([]Resource, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Selection) Clear() {
	s.items = nil
	s.index = make(map[string]int)
}

func (s *Selection) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, r := range s.items {
		s.index[r.key()] = i
	}
}

// BaseName returns the part of name before its first dot, without a trailing slash.
func BaseName(name string) string {
	name = strings.TrimSuffix(name, "/")
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

// ConfigPayload lists every file of a bucket listing as {name, url}.
func ConfigPayload(files []api.FileItem) api.ConfigsPayload {
	out := api.ConfigsPayload{Configs: make([]api.GameEntry, 0, len(files))}
	for _, f := range files {
		out.Configs = append(out.Configs, api.GameEntry{Name: BaseName(f.Name), URL: f.URL})
	}
	return out
}

// GamesPayload lists the selected resources, resolving links with url.
func GamesPayload(selected []Resource, url func(bucket, fullPath string) string) api.GamesPayload {
	out := api.GamesPayload{Games: make([]api.GameEntry, 0, len(selected))}
	for _, r := range selected {
		out.Games = append(out.Games, api.GameEntry{Name: BaseName(r.Name), URL: url(r.Bucket, r.FullPath)})
	}
	return out
}

// Marshal renders a payload with two-space indentation.
func Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
