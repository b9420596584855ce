package main

import (
	"log"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	"github.com/broadstream/qgem/biz/dal/db"
	"github.com/broadstream/qgem/biz/handler"
	"github.com/broadstream/qgem/biz/middleware"
	"github.com/broadstream/qgem/biz/router"
	"github.com/broadstream/qgem/biz/service/access"
	storagesvc "github.com/broadstream/qgem/biz/service/storage"
	"github.com/broadstream/qgem/pkg/config"
	"github.com/broadstream/qgem/pkg/database"
	"github.com/broadstream/qgem/pkg/storage/backend"
	"github.com/broadstream/qgem/pkg/storage/local"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	hlog.SetLevel(logLevel(cfg.Log.Level))

	var catalog local.Catalog
	if cfg.Storage.Type == "local" {
		gdb, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatalf("open catalog database: %v", err)
		}
		c, err := db.NewCatalog(gdb)
		if err != nil {
			log.Fatalf("migrate catalog: %v", err)
		}
		catalog = c
	}

	store, err := backend.New(cfg.Storage, catalog)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}

	svc := storagesvc.NewService(store, cfg.Storage.PublicHost, cfg.Upload.MaxSize)
	handlers := router.Handlers{
		Storage: handler.NewStorageHandler(svc),
		Access:  handler.NewAccessHandler(access.NewIssuer(cfg.Access.Secret)),
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		handlers.WriteMw = []app.HandlerFunc{limiter.Handler()}
	}

	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		// the JSON limit is enforced by the service; leave room for the HTTP framing
		server.WithMaxRequestBodySize(int(cfg.Upload.MaxSize)+64<<10),
	)
	h.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.CORS(&cfg.CORS),
	)
	router.RegisterRoutes(h, handlers)

	hlog.Infof("qgem storage proxy listening on %s (storage=%s)", cfg.Server.Address, store.Type())
	h.Spin()
}

func logLevel(name string) hlog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return hlog.LevelTrace
	case "debug":
		return hlog.LevelDebug
	case "notice":
		return hlog.LevelNotice
	case "warn":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	case "fatal":
		return hlog.LevelFatal
	default:
		return hlog.LevelInfo
	}
}
