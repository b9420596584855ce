package storage

import (
	"strings"

	"github.com/broadstream/qgem/biz/model/api"
	objstore "github.com/broadstream/qgem/pkg/storage"
)

// File type categories reported in listings.
const (
	FileTypeImage    = "image"
	FileTypeDocument = "document"
	FileTypeVideo    = "video"
	FileTypeAudio    = "audio"
	FileTypeOther    = "other"
)

var fileTypes = map[string]string{
	"png": FileTypeImage, "jpg": FileTypeImage, "jpeg": FileTypeImage, "gif": FileTypeImage,
	"webp": FileTypeImage, "svg": FileTypeImage, "pngd": FileTypeImage,

	"json": FileTypeDocument, "txt": FileTypeDocument, "pdf": FileTypeDocument,
	"doc": FileTypeDocument, "docx": FileTypeDocument,

	"mp4": FileTypeVideo, "avi": FileTypeVideo, "mov": FileTypeVideo,
	"mkv": FileTypeVideo, "webm": FileTypeVideo,

	"mp3": FileTypeAudio, "wav": FileTypeAudio, "ogg": FileTypeAudio, "flac": FileTypeAudio,
}

// FileType maps an extension to its category, case-insensitively.
func FileType(ext string) string {
	if t, ok := fileTypes[strings.ToLower(ext)]; ok {
		return t
	}
	return FileTypeOther
}

// Extension returns the lower-cased text after the last dot, or "" when there is none.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// FullPath joins a listing path and an entry name.
func FullPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "/" + name
}

// Classify splits raw entries into folders and files under path.
// Entries without a name are skipped. Folder names lose their trailing slash.
func (s *Service) Classify(path, bucket string, entries []objstore.Entry) ([]api.FolderItem, []api.FileItem) {
	folders := make([]api.FolderItem, 0)
	files := make([]api.FileItem, 0)

	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		if e.IsFolder() {
			name := strings.TrimSuffix(e.Name, "/")
			if name == "" {
				continue
			}
			folders = append(folders, api.FolderItem{Name: name, FullPath: FullPath(path, name)})
			continue
		}

		fullPath := FullPath(path, e.Name)
		ext := Extension(e.Name)
		item := api.FileItem{
			Name:      e.Name,
			ID:        e.ID,
			Metadata:  api.Metadata{Size: e.Metadata.Size, Mimetype: e.Metadata.Mimetype},
			Extension: ext,
			FileType:  FileType(ext),
			FullPath:  fullPath,
			URL:       s.PublicURL(bucket, fullPath),
		}
		if e.UpdatedAt != nil {
			ts := api.FormatTime(*e.UpdatedAt)
			item.UpdatedAt = &ts
		}
		if e.CreatedAt != nil {
			ts := api.FormatTime(*e.CreatedAt)
			item.CreatedAt = &ts
		}
		files = append(files, item)
	}
	return folders, files
}
