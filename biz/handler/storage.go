package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/broadstream/qgem/biz/model/api"
	"github.com/broadstream/qgem/biz/service/gameconfig"
	storagesvc "github.com/broadstream/qgem/biz/service/storage"
)

// StorageHandler exposes the bucket proxy endpoints.
type StorageHandler struct {
	service *storagesvc.Service
	now     Clock
}

func NewStorageHandler(service *storagesvc.Service) *StorageHandler {
	return &StorageHandler{service: service, now: time.Now}
}

// WithClock overrides the timestamp source.
func (h *StorageHandler) WithClock(now Clock) *StorageHandler {
	h.now = now
	return h
}

// List handles GET /api/:bucket?path&limit&sortBy&sortOrder.
func (h *StorageHandler) List(ctx context.Context, c *app.RequestContext) {
	bucket := c.Param("bucket")
	path := c.Query("path")

	limit, err := queryInt(c, "limit")
	if err != nil {
		h.listError(ctx, c, bucket, path, err)
		return
	}

	listing, err := h.service.List(ctx, storagesvc.ListInput{
		Bucket:    bucket,
		Path:      path,
		Limit:     limit,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		h.listError(ctx, c, bucket, path, err)
		return
	}

	c.JSON(consts.StatusOK, &api.ListResponse{
		OK:           true,
		Bucket:       listing.Bucket,
		Path:         listing.Path,
		Folders:      listing.Folders,
		Files:        listing.Files,
		TotalFolders: len(listing.Folders),
		TotalFiles:   len(listing.Files),
		Timestamp:    api.FormatTime(h.now()),
	})
}

func (h *StorageHandler) listError(ctx context.Context, c *app.RequestContext, bucket, path string, err error) {
	status := StatusFor(err)
	logFailure(ctx, c, status, err)
	c.JSON(status, &api.ErrorResponse{OK: false, Error: err.Error(), Bucket: bucket, Path: path})
}

// GetObject handles GET /api/:bucket/*filename and returns the parsed JSON object.
func (h *StorageHandler) GetObject(ctx context.Context, c *app.RequestContext) {
	bucket, filename := c.Param("bucket"), objectParam(c)

	data, err := h.service.ReadJSON(ctx, bucket, filename)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}

	c.JSON(consts.StatusOK, &api.ObjectResponse{
		OK:        true,
		Filename:  filename,
		Data:      data,
		Timestamp: api.FormatTime(h.now()),
	})
}

// SaveObject handles POST /api/:bucket/*filename, storing the JSON body (overwriting).
func (h *StorageHandler) SaveObject(ctx context.Context, c *app.RequestContext) {
	bucket, filename := c.Param("bucket"), objectParam(c)

	res, err := h.service.SaveJSON(ctx, bucket, filename, c.Request.Body())
	if err != nil {
		RespondError(ctx, c, err)
		return
	}

	c.JSON(consts.StatusOK, &api.SaveResponse{
		OK:        true,
		Message:   fmt.Sprintf("File %s saved successfully", filename),
		Filename:  filename,
		Path:      res.Path,
		PublicURL: res.PublicURL,
		Size:      res.Size,
		Timestamp: api.FormatTime(h.now()),
	})
}

// GameConfigs handles GET /unity/:bucket/config, listing a folder (root by default)
// as the configuration catalog for the game runtimes.
func (h *StorageHandler) GameConfigs(ctx context.Context, c *app.RequestContext) {
	listing, err := h.service.List(ctx, storagesvc.ListInput{
		Bucket: c.Param("bucket"),
		Path:   c.Query("path"),
	})
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, gameconfig.ConfigPayload(listing.Files))
}

func objectParam(c *app.RequestContext) string {
	return strings.TrimPrefix(c.Param("filename"), "/")
}

func queryInt(c *app.RequestContext, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", storagesvc.ErrInvalidRequest, name)
	}
	return n, nil
}
