package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ishmeet5ingh/tracking-backend/docs"
	"github.com/ishmeet5ingh/tracking-backend/internal/api/handler"
	"github.com/ishmeet5ingh/tracking-backend/internal/api/middleware"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/ports"
	"github.com/ishmeet5ingh/tracking-backend/internal/realtime"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth      ports.AuthService
	Tokens    ports.TokenService
	Denylist  ports.TokenDenylist // nil when logout revocation is disabled
	Locations ports.LocationService

	Hub    *realtime.Hub
	Events realtime.Enqueuer

	Readiness           map[string]handler.Pinger
	CORSOrigins         []string
	RealtimeRequireAuth bool

	// Metrics receives the HTTP collectors; nil means the default registry.
	Metrics prometheus.Registerer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	reg := d.Metrics
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	metricsMiddleware, err := middleware.Metrics(reg)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(metricsMiddleware)
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	authMiddleware := middleware.Auth(d.Tokens, d.Denylist, d.Log)

	// --- Users ---
	authHandler := handler.NewAuthHandler(d.Auth)
	locationHandler := handler.NewLocationHandler(d.Locations)

	users := e.Group("/api/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.GET("/tracked-users", locationHandler.ListTracked)
	users.GET("/profile", authHandler.Profile, authMiddleware)
	users.POST("/location", locationHandler.UpdateLocation, authMiddleware)
	users.POST("/stop-tracking", locationHandler.StopTracking, authMiddleware)
	users.POST("/logout", authHandler.Logout, authMiddleware)

	// --- Realtime ---
	realtimeHandler := handler.NewRealtimeHandler(d.Hub, d.Events, d.CORSOrigins, d.Log)
	if d.RealtimeRequireAuth {
		e.GET("/ws", realtimeHandler.Serve, authMiddleware)
	} else {
		e.GET("/ws", realtimeHandler.Serve)
	}

	// --- Health probes and tooling (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Hub)
	readinessHandler := handler.NewReadinessHandler(d.Readiness)

	e.GET("/", healthHandler.Root)
	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}
