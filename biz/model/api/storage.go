// Package api provides the JSON request/response models of the storage proxy.
package api

import (
	"encoding/json"
	"time"
)

// TimeLayout matches ISO-8601 with millisecond precision in UTC, e.g. 2024-05-01T10:00:00.000Z.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Metadata is the per-file information returned by listings.
type Metadata struct {
	Size     int64  `json:"size"`
	Mimetype string `json:"mimetype"`
}

// FileItem is a listed object.
type FileItem struct {
	Name      string   `json:"name"`
	ID        string   `json:"id,omitempty"`
	UpdatedAt *string  `json:"updated_at,omitempty"`
	CreatedAt *string  `json:"created_at,omitempty"`
	Metadata  Metadata `json:"metadata"`
	Extension string   `json:"extension"`
	FileType  string   `json:"fileType"`
	FullPath  string   `json:"fullPath"`
	URL       string   `json:"url"`
}

// FolderItem is a listed folder.
type FolderItem struct {
	Name     string `json:"name"`
	FullPath string `json:"fullPath"`
}

// ListResponse is the body of GET /api/{bucket}.
type ListResponse struct {
	OK           bool         `json:"ok"`
	Bucket       string       `json:"bucket"`
	Path         string       `json:"path"`
	Folders      []FolderItem `json:"folders"`
	Files        []FileItem   `json:"files"`
	TotalFolders int          `json:"totalFolders"`
	TotalFiles   int          `json:"totalFiles"`
	Timestamp    string       `json:"timestamp,omitempty"`
	Error        string       `json:"error,omitempty"`
}

func (x *ListResponse) GetFiles() []FileItem {
	if x != nil {
		return x.Files
	}
	return nil
}

func (x *ListResponse) GetFolders() []FolderItem {
	if x != nil {
		return x.Folders
	}
	return nil
}

// ObjectResponse is the body of GET /api/{bucket}/{filename}.
type ObjectResponse struct {
	OK        bool            `json:"ok"`
	Filename  string          `json:"filename"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// SaveResponse is the body of POST /api/{bucket}/{filename}.
type SaveResponse struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
	Size      int    `json:"size"`
	Timestamp string `json:"timestamp,omitempty"`
}

// AccessKeyResponse is the body of GET /api/access.key.
type AccessKeyResponse struct {
	OK        bool   `json:"ok"`
	IssuedAt  string `json:"issuedAt"`
	ExpiresAt string `json:"expiresAt"`
	RenewAt   string `json:"renewAt"`
	Token     string `json:"token,omitempty"`
}

// GameEntry names one resource handed to a game runtime.
type GameEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ConfigsPayload is consumed by the configuration loader of the game runtimes.
type ConfigsPayload struct {
	Configs []GameEntry `json:"configs"`
}

// GamesPayload lists the games selected for a broadcast.
type GamesPayload struct {
	Games []GameEntry `json:"games"`
}

// ErrorResponse is the failure envelope. Bucket and Path are echoed by listing failures.
type ErrorResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Bucket string `json:"bucket,omitempty"`
	Path   string `json:"path,omitempty"`
}

// PingResponse answers health checks.
type PingResponse struct {
	OK      bool   `json:"ok"`
	Storage string `json:"storage"`
}
