package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/broadstream/qgem/biz/model/api"
)

// Recovery returns a middleware that recovers from panics and logs the error.
// The client receives the failure envelope with the raw panic message.
func Recovery() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()
				hlog.CtxErrorf(ctx, "panic recovered: %v\n%s", err, string(stack))

				c.AbortWithStatusJSON(consts.StatusInternalServerError, &api.ErrorResponse{
					OK:    false,
					Error: fmt.Sprintf("%v", err),
				})
			}
		}()

		c.Next(ctx)
	}
}
