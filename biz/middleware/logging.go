package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	"github.com/broadstream/qgem/pkg/common"
)

// Logging returns a middleware that logs request and response information.
func Logging() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()

		// Process request
		c.Next(ctx)

		latency := time.Since(start)

		hlog.CtxInfof(ctx, "[%s] %s %s %d %v req=%s",
			c.ClientIP(),
			c.Request.Method(),
			c.Request.URI().Path(),
			c.Response.StatusCode(),
			latency,
			string(c.Response.Header.Peek(common.RequestIDHeader)),
		)
	}
}
