package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/broadstream/qgem/biz/model/api"
)

// Ping reports liveness and the active storage backend.
func (h *StorageHandler) Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, &api.PingResponse{OK: true, Storage: h.service.StorageType()})
}
