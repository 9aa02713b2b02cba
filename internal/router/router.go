// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/campaign-tracker/internal/config"
	"github.com/iliyamo/campaign-tracker/internal/handler"
	"github.com/iliyamo/campaign-tracker/internal/logging"
	"github.com/iliyamo/campaign-tracker/internal/middleware"
	"github.com/iliyamo/campaign-tracker/internal/service"
)

// Deps is everything the route table needs.
type Deps struct {
	Services  *service.Services
	Options   handler.Options
	RateLimit config.RateLimitConfig
	Redis     *redis.Client // nil: per-process rate limiting
	Logger    *logging.Logger
	Ready     map[string]handler.Pinger
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))

	h := handler.New(d.Services, d.Options)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	RegisterRoutes(e, d.Ready)
	RegisterAuth(e, h.Auth, limit)

	// Every route below needs a verified token and a resolved session.
	v1 := e.Group("/v1",
		middleware.JWTAuth(d.Services.Identity),
		middleware.ResolveSession(d.Services.Access, d.Options.Timeout),
		limit,
	)
	RegisterSession(v1, h.Auth, h.Team)
	RegisterVideos(v1, h.Videos)
	RegisterAdmin(v1, h)
	return e
}

// RegisterRoutes registers the routes that need no authentication: health checks
// and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, ready map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(ready))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the token endpoints under /v1/auth. None of them
// requires an existing session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterSession registers the caller's own session and profile. Any
// signed-in role, including new users awaiting approval, may use these.
func RegisterSession(g *echo.Group, a *handler.AuthHandler, t *handler.TeamHandler) {
	g.GET("/me", a.Me)
	g.GET("/me/stream", a.MeStream)
	g.GET("/profile", t.Profile)
	g.PUT("/profile", t.UpdateProfile)
}
