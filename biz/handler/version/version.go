package version

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

var (
	// Version information, injected at build time via -ldflags
	AppVersion   = "dev"
	AppGitCommit = "unknown"
	AppBuildTime = "unknown"
)

// Info is the body of GET /version.
type Info struct {
	OK        bool   `json:"ok"`
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildTime string `json:"buildTime"`
}

// GetVersion .
// @router /version [GET]
func GetVersion(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, &Info{
		OK:        true,
		Version:   AppVersion,
		GitCommit: AppGitCommit,
		BuildTime: AppBuildTime,
	})
}
