package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/broadstream/qgem/biz/model/api"
	"github.com/broadstream/qgem/biz/service/access"
)

// AccessHandler serves access-key grants.
type AccessHandler struct {
	issuer *access.Issuer
}

func NewAccessHandler(issuer *access.Issuer) *AccessHandler {
	return &AccessHandler{issuer: issuer}
}

// Issue handles GET /api/access.key.
func (h *AccessHandler) Issue(ctx context.Context, c *app.RequestContext) {
	grant, err := h.issuer.Issue()
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, &api.AccessKeyResponse{
		OK:        true,
		IssuedAt:  api.FormatTime(grant.IssuedAt),
		ExpiresAt: api.FormatTime(grant.ExpiresAt),
		RenewAt:   api.FormatTime(grant.RenewAt),
		Token:     grant.Token,
	})
}
