package handler

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/broadstream/qgem/biz/model/api"
	"github.com/broadstream/qgem/biz/service/access"
	storagesvc "github.com/broadstream/qgem/biz/service/storage"
	"github.com/broadstream/qgem/pkg/storage"
)

// Clock stamps response timestamps.
type Clock func() time.Time

// StatusFor maps service errors onto HTTP statuses. Anything unrecognised is a 500.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return consts.StatusOK
	case errors.Is(err, storagesvc.ErrInvalidRequest),
		errors.Is(err, storagesvc.ErrInvalidBody),
		errors.Is(err, storagesvc.ErrMalformedObject),
		errors.Is(err, storage.ErrBucketNotAllowed),
		errors.Is(err, storage.ErrInvalidKey):
		return consts.StatusBadRequest
	case errors.Is(err, storagesvc.ErrObjectNotFound):
		return consts.StatusNotFound
	case errors.Is(err, access.ErrDisabled):
		return consts.StatusForbidden
	}
	return consts.StatusInternalServerError
}

// RespondError writes the failure envelope with the mapped status.
func RespondError(ctx context.Context, c *app.RequestContext, err error) {
	status := StatusFor(err)
	logFailure(ctx, c, status, err)
	c.JSON(status, &api.ErrorResponse{OK: false, Error: err.Error()})
}

func logFailure(ctx context.Context, c *app.RequestContext, status int, err error) {
	if status >= consts.StatusInternalServerError {
		hlog.CtxErrorf(ctx, "%s %s: %v", c.Method(), c.Path(), err)
		return
	}
	hlog.CtxWarnf(ctx, "%s %s: %v", c.Method(), c.Path(), err)
}
