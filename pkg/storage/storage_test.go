package storage_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/broadstream/qgem/pkg/storage"
	"github.com/broadstream/qgem/pkg/storage/memory"
)

func TestCleanKey(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"/":                "",
		"a.json":           "a.json",
		"/round/a.json/":   "round/a.json",
		"round//./a.json":  "round/a.json",
		`round\sub\a.json`: "round/sub/a.json",
	}
	for in, want := range cases {
		got, err := storage.CleanKey(in)
		if err != nil {
			t.Fatalf("CleanKey(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("CleanKey(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := storage.CleanKey("round/../../etc/passwd"); !errors.Is(err, storage.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestEntryIsFolder(t *testing.T) {
	if !(storage.Entry{Name: "photos/"}).IsFolder() {
		t.Fatalf("trailing slash without metadata must be a folder")
	}
	if !(storage.Entry{Name: "photos/", Metadata: &storage.Metadata{Size: 1}}).IsFolder() {
		t.Fatalf("trailing slash must be a folder even with metadata")
	}
	if (storage.Entry{Name: "report.json", Metadata: &storage.Metadata{}}).IsFolder() {
		t.Fatalf("file with metadata must not be a folder")
	}
}

func TestSortEntries(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	t1 := t0.Add(time.Hour)
	entries := []storage.Entry{
		{Name: "b.json", UpdatedAt: &t0, Metadata: &storage.Metadata{Size: 5}},
		{Name: "folder"},
		{Name: "a.json", UpdatedAt: &t1, Metadata: &storage.Metadata{Size: 1}},
	}

	storage.SortEntries(entries, storage.SortByUpdatedAt, storage.SortDesc)
	if got := names(entries); got != "folder,a.json,b.json" {
		t.Fatalf("updated_at desc order = %s", got)
	}

	storage.SortEntries(entries, storage.SortByName, storage.SortAsc)
	if got := names(entries); got != "folder,a.json,b.json" {
		t.Fatalf("name asc order = %s", got)
	}

	storage.SortEntries(entries, storage.SortByName, storage.SortDesc)
	if got := names(entries); got != "folder,b.json,a.json" {
		t.Fatalf("name desc order = %s", got)
	}

	storage.SortEntries(entries, storage.SortBySize, storage.SortAsc)
	if got := names(entries); got != "folder,a.json,b.json" {
		t.Fatalf("size asc order = %s", got)
	}
}

func TestTruncate(t *testing.T) {
	entries := []storage.Entry{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	if got := len(storage.Truncate(entries, 2)); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}
	if got := len(storage.Truncate(entries, 0)); got != 3 {
		t.Fatalf("expected no cap, got %d", got)
	}
}

func TestPublicURL(t *testing.T) {
	got := storage.PublicURL("https://demo.supabase.co/", "config-data", "round/game.json")
	want := "https://demo.supabase.co/storage/v1/object/public/config-data/round/game.json"
	if got != want {
		t.Fatalf("PublicURL = %s, want %s", got, want)
	}
}

func TestBucketPolicy(t *testing.T) {
	ctx := context.Background()
	store := storage.WithBucketPolicy(memory.New(), []string{"config-data"})

	if err := store.Put(ctx, "config-data", "a.json", strings.NewReader("{}"), "application/json", 2); err != nil {
		t.Fatalf("put allowed bucket: %v", err)
	}
	if err := store.Put(ctx, "secret", "a.json", strings.NewReader("{}"), "application/json", 2); !errors.Is(err, storage.ErrBucketNotAllowed) {
		t.Fatalf("expected ErrBucketNotAllowed, got %v", err)
	}
	if _, err := store.List(ctx, "Bad Bucket", "", storage.ListOptions{}); !errors.Is(err, storage.ErrBucketNotAllowed) {
		t.Fatalf("expected malformed bucket to be rejected, got %v", err)
	}

	open := storage.WithBucketPolicy(memory.New(), nil)
	if _, err := open.List(ctx, "anything", "", storage.ListOptions{}); err != nil {
		t.Fatalf("empty allow list must admit any bucket: %v", err)
	}
}

func names(entries []storage.Entry) string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return strings.Join(out, ",")
}
