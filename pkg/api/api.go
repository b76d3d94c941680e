package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/telekom/infoasst-navshell/pkg/apiresponses"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"github.com/telekom/infoasst-navshell/pkg/metrics"
	"github.com/telekom/infoasst-navshell/pkg/ratelimit"
	"github.com/telekom/infoasst-navshell/pkg/version"
	"go.uber.org/zap"
)

type APIController interface {
	BasePath() string
	Register(rg *gin.RouterGroup) error
	Handlers() []gin.HandlerFunc
}

// PageController is implemented by controllers that also serve top-level page routes.
type PageController interface {
	RegisterPages(rg *gin.RouterGroup) error
}

type Server struct {
	gin     *gin.Engine
	config  config.Config
	log     *zap.SugaredLogger
	limiter *ratelimit.ClientLimiter
}

func NewServer(log *zap.Logger, cfg config.Config, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Sugar().Warnw("Ignoring invalid trusted proxies", "proxies", cfg.Server.TrustedProxies, "error", err)
		_ = engine.SetTrustedProxies(nil)
	}
	engine.Use(
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.RecoveryWithZap(log, true),
		RequestLogger(log.Sugar()),
		CredentialMiddleware(log.Sugar(), cfg.Access),
	)

	s := &Server{
		gin:     engine,
		config:  cfg,
		log:     log.Sugar(),
		limiter: ratelimit.New(ratelimit.FromConfig(cfg.RateLimit)),
	}

	engine.NoRoute(s.noRoute(ServeSPA("/", cfg.Frontend.StaticDir)))

	if debug {
		engine.Use(
			cors.New(cors.Config{
				AllowOrigins: []string{"http://localhost:5173", "http://127.0.0.1:8080"},
				AllowMethods: []string{"GET", "OPTIONS"},
				AllowHeaders: []string{"Origin", "Authorization", "Content-Type"},
				MaxAge:       12 * time.Hour,
			}),
		)
	}

	engine.GET("api/config", s.getConfig)
	engine.GET("api/version", s.getVersion)
	engine.GET("metrics", gin.WrapH(metrics.MetricsHandler()))

	return s
}

// RateLimit returns the per-IP limiter middleware shared by page and navigation routes.
func (s *Server) RateLimit() gin.HandlerFunc {
	return s.limiter.Middleware()
}

func (s *Server) RegisterAll(controllers []APIController) error {
	r := s.gin.Group("api")
	for _, c := range controllers {
		if err := c.Register(r.Group(c.BasePath(), c.Handlers()...)); err != nil {
			return err
		}
		if pc, ok := c.(PageController); ok {
			if err := pc.RegisterPages(s.gin.Group("/", c.Handlers()...)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Handler returns the underlying engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Close releases background resources. It is safe to call more than once.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Listen serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Listen(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.ListenAddress,
		Handler:           s.gin,
		ReadHeaderTimeout: s.config.Server.GetReadHeaderTimeout(),
		IdleTimeout:       s.config.Server.GetIdleTimeout(),
	}
	useTLS := s.config.Server.TLSCertFile != "" && s.config.Server.TLSKeyFile != ""

	errCh := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			err = srv.ListenAndServeTLS(s.config.Server.TLSCertFile, s.config.Server.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Infow("HTTP server listening", "address", s.config.Server.ListenAddress, "tls", useTLS)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.config.Server.GetShutdownTimeout()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Infow("Shutting down HTTP server", "timeout", timeout.String())
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// FrontendConfig is what the browser needs to start the sign-in flow and
// brand the page. Every value comes from configuration.
type FrontendConfig struct {
	OIDCAuthority         string   `json:"oidcAuthority"`
	OIDCClientID          string   `json:"oidcClientID"`
	OIDCScopes            []string `json:"oidcScopes"`
	RedirectURI           string   `json:"redirectURI,omitempty"`
	PostLogoutRedirectURI string   `json:"postLogoutRedirectURI,omitempty"`
	Title                 string   `json:"title"`
	LogoURL               string   `json:"logoURL"`
	WarningBanner         string   `json:"warningBanner,omitempty"`
	LoadingPlaceholder    bool     `json:"loadingPlaceholder"`
}

func (s *Server) getConfig(c *gin.Context) {
	f := s.config.Frontend
	scopes := f.OIDCScopes
	if scopes == nil {
		scopes = []string{}
	}
	apiresponses.RespondOK(c, FrontendConfig{
		OIDCAuthority:         f.OIDCAuthority,
		OIDCClientID:          f.OIDCClientID,
		OIDCScopes:            scopes,
		RedirectURI:           f.RedirectURI,
		PostLogoutRedirectURI: f.PostLogoutRedirectURI,
		Title:                 f.Title,
		LogoURL:               f.LogoURL,
		WarningBanner:         f.WarningBanner,
		LoadingPlaceholder:    f.LoadingPlaceholder,
	})
}

func (s *Server) getVersion(c *gin.Context) {
	apiresponses.RespondOK(c, version.GetBuildInfo())
}

// noRoute answers unknown API paths with JSON and hands everything else to the SPA.
func (s *Server) noRoute(spa gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == "/api" || strings.HasPrefix(p, "/api/") {
			apiresponses.RespondNotFound(c, p)
			c.Abort()
			return
		}
		spa(c)
	}
}
