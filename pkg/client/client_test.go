package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
	ctype  string
}

func newServer(t *testing.T, status int, reply string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.method, rec.path, rec.query = r.Method, r.URL.EscapedPath(), r.URL.RawQuery
		rec.body, rec.ctype = string(b), r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	return c, rec
}

func TestList(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"ok":true,"bucket":"sample-data","path":"photos",
		"folders":[{"name":"2024","fullPath":"photos/2024"}],
		"files":[{"name":"a.png","metadata":{"size":3,"mimetype":"image/png"},"extension":"png","fileType":"image","fullPath":"photos/a.png","url":"u"}],
		"totalFolders":1,"totalFiles":1}`)

	res, err := c.List(context.Background(), "sample-data", ListQuery{Path: "photos", Limit: 10, SortOrder: "asc"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/sample-data", rec.path)
	assert.Equal(t, "limit=10&path=photos&sortOrder=asc", rec.query)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "photos/a.png", res.Files[0].FullPath)
	assert.Equal(t, int64(3), res.Files[0].Metadata.Size)
	assert.Equal(t, "photos/2024", res.Folders[0].FullPath)
}

func TestGetJSON(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"ok":true,"filename":"round 1/game.json","data":{"v":1}}`)

	res, err := c.GetJSON(context.Background(), "config-data", "round 1/game.json")
	require.NoError(t, err)
	assert.Equal(t, "/api/config-data/round%201/game.json", rec.path)
	assert.JSONEq(t, `{"v":1}`, string(res.Data))
}

func TestSaveJSON(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"ok":true,"message":"File a.json saved successfully","filename":"a.json","path":"a.json","publicUrl":"https://x/a.json","size":9}`)

	res, err := c.SaveJSON(context.Background(), "config-data", "a.json", []byte(`{"v": 1}`))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, `{"v": 1}`, rec.body)
	assert.Equal(t, "application/json", rec.ctype)
	assert.Equal(t, "https://x/a.json", res.PublicURL)
	assert.Equal(t, 9, res.Size)
}

func TestAccessKey(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"ok":true,"issuedAt":"2024-05-01T12:00:00.000Z","expiresAt":"2024-05-31T12:00:00.000Z","renewAt":"2024-05-26T12:00:00.000Z"}`)

	res, err := c.AccessKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/access.key", rec.path)
	assert.Equal(t, "2024-05-26T12:00:00.000Z", res.RenewAt)
}

func TestErrors(t *testing.T) {
	c, _ := newServer(t, http.StatusNotFound, `{"ok":false,"error":"file not found"}`)
	_, err := c.GetJSON(context.Background(), "config-data", "missing.json")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "file not found", apiErr.Message)
	assert.True(t, IsNotFound(err))

	c, _ = newServer(t, http.StatusOK, `{"ok":false,"error":"nope"}`)
	_, err = c.AccessKey(context.Background())
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "nope", apiErr.Message)
	assert.False(t, IsNotFound(err))

	c, _ = newServer(t, http.StatusBadGateway, `upstream down`)
	_, err = c.List(context.Background(), "b", ListQuery{})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
