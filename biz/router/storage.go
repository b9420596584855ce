package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/broadstream/qgem/biz/handler"
	"github.com/broadstream/qgem/biz/handler/version"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Storage *handler.StorageHandler
	Access  *handler.AccessHandler
	// WriteMw runs before object saves (rate limiting); may be empty.
	WriteMw []app.HandlerFunc
}

// RegisterRoutes configures the proxy routes.
func RegisterRoutes(r *server.Hertz, h Handlers) {
	r.GET("/ping", h.Storage.Ping)
	r.GET("/version", version.GetVersion)

	apiGroup := r.Group("/api")
	// static segment; takes priority over :bucket
	apiGroup.GET("/access.key", h.Access.Issue)
	apiGroup.GET("/:bucket", h.Storage.List)
	apiGroup.GET("/:bucket/*filename", h.Storage.GetObject)

	save := append(append([]app.HandlerFunc{}, h.WriteMw...), h.Storage.SaveObject)
	apiGroup.POST("/:bucket/*filename", save...)

	r.GET("/unity/:bucket/config", h.Storage.GameConfigs)
}
