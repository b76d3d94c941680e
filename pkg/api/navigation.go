package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/telekom/infoasst-navshell/pkg/apiresponses"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"github.com/telekom/infoasst-navshell/pkg/layout"
	"github.com/telekom/infoasst-navshell/pkg/metrics"
	"github.com/telekom/infoasst-navshell/pkg/navigation"
	"github.com/telekom/infoasst-navshell/pkg/system"
	"go.uber.org/zap"
)

// NavigationController serves the navigation view as JSON and the rendered
// layout for every navigation target.
type NavigationController struct {
	log          *zap.SugaredLogger
	shell        *navigation.Shell
	frontend     config.Frontend
	mountTimeout time.Duration
	middlewares  []gin.HandlerFunc
}

// NavigationResponse is returned by GET /api/navigation.
type NavigationResponse struct {
	MountID  string `json:"mountID"`
	Complete bool   `json:"complete"`
	navigation.View
}

func NewNavigationController(log *zap.SugaredLogger, shell *navigation.Shell, cfg config.Config, middlewares ...gin.HandlerFunc) *NavigationController {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NavigationController{
		log:          log,
		shell:        shell,
		frontend:     cfg.Frontend,
		mountTimeout: cfg.Server.GetMountTimeout(),
		middlewares:  middlewares,
	}
}

func (nc *NavigationController) BasePath() string {
	return "navigation"
}

func (nc *NavigationController) Handlers() []gin.HandlerFunc {
	return nc.middlewares
}

func (nc *NavigationController) Register(rg *gin.RouterGroup) error {
	rg.GET("", nc.handleGetNavigation)
	return nil
}

func (nc *NavigationController) RegisterPages(rg *gin.RouterGroup) error {
	for _, p := range navigation.Paths {
		rg.GET(p, nc.handlePage)
	}
	return nil
}

// mount runs one shell lifecycle for the request and returns the view for
// activePath. The wait is bounded; lookups still running afterwards are
// cancelled and the view reflects what resolved in time.
func (nc *NavigationController) mount(c *gin.Context, route, activePath string) (navigation.View, string, bool) {
	inst := nc.shell.Mount(c.Request.Context(), CredentialsFrom(c))
	defer inst.Unmount()
	reqLog := system.GetReqLogger(c, nc.log).With("mountID", inst.ID())

	ctx, cancel := context.WithTimeout(c.Request.Context(), nc.mountTimeout)
	defer cancel()
	complete := inst.Wait(ctx) == nil
	if !complete {
		reqLog.Warnw("Navigation lookups did not finish in time, rendering partial view",
			append(system.RouteFields(route, activePath), "timeout", nc.mountTimeout.String())...)
	}
	metrics.NavigationRequests.WithLabelValues(route, strconv.FormatBool(complete)).Inc()

	view := inst.View(activePath)
	reqLog.Debugw("Rendered navigation", append(system.RouteFields(route, activePath), "links", len(view.Links), "loading", view.Loading)...)
	return view, inst.ID(), complete
}

func (nc *NavigationController) handleGetNavigation(c *gin.Context) {
	activePath := c.DefaultQuery("path", navigation.PathChat)
	if !strings.HasPrefix(activePath, "/") {
		apiresponses.RespondBadRequestWithDetails(c, "invalid path", "path must start with /")
		return
	}
	view, id, complete := nc.mount(c, c.FullPath(), activePath)
	apiresponses.RespondOK(c, NavigationResponse{MountID: id, Complete: complete, View: view})
}

func (nc *NavigationController) handlePage(c *gin.Context) {
	route := c.FullPath()
	view, id, _ := nc.mount(c, route, c.Request.URL.Path)

	var b bytes.Buffer
	err := layout.Render(&b, layout.Page{
		Title:         nc.frontend.Title,
		LogoURL:       nc.frontend.LogoURL,
		LogoAlt:       nc.frontend.Title,
		WarningBanner: nc.frontend.WarningBanner,
		ActivePath:    c.Request.URL.Path,
		MountID:       id,
		Script:        nc.frontend.EntryScript,
		View:          view,
	})
	if err != nil {
		apiresponses.RespondInternalError(c, "render layout", err, system.GetReqLogger(c, nc.log))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", b.Bytes())
}
