package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/api/handler"
	"github.com/invenly/dashboard-session/internal/api/middleware"
	"github.com/invenly/dashboard-session/internal/core/service"
	"github.com/invenly/dashboard-session/internal/infrastructure/apiclient"
)

// RouterDeps carries everything the edge router needs. Redis is nil when
// the file store backend is configured.
type RouterDeps struct {
	Session *service.Session
	API     *apiclient.Client
	Gate    middleware.GateConfig
	Redis   *redis.Client
	Log     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("dashboard_edge"))

	// The gate runs before every navigation; probes, metrics, and static
	// assets are excluded inside the middleware itself.
	e.Use(middleware.RouteGate(deps.Gate))

	// --- Session surface ---
	sessionHandler := handler.NewSessionHandler(deps.Session)
	e.GET("/api/session", sessionHandler.Current)
	e.POST("/api/session/login", sessionHandler.Login)
	e.POST("/api/session/logout", sessionHandler.Logout)

	// --- Authenticated data fetches relayed to the inventory API ---
	if deps.API != nil {
		proxyHandler := handler.NewProxyHandler(deps.API)
		e.Any("/api/proxy/*", proxyHandler.Forward)
	}

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Redis)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness)     // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
