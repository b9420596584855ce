package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"

	"github.com/broadstream/qgem/pkg/common"
)

// RequestID tags every request with an ID, reusing a well-formed incoming X-Request-Id.
// The ID is echoed on the response and stored in the context.
func RequestID() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(common.RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Response.Header.Set(common.RequestIDHeader, id)
		c.Next(common.ContextWithRequestID(ctx, id))
	}
}
