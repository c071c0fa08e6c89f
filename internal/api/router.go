package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/medihub/health-portal/docs"
	"github.com/medihub/health-portal/internal/api/handler"
	"github.com/medihub/health-portal/internal/api/metrics"
	"github.com/medihub/health-portal/internal/api/middleware"
	"github.com/medihub/health-portal/internal/core/domain"
	"github.com/medihub/health-portal/internal/core/ports"
)

// Deps carries everything the router wires into handlers. Mongo and Redis
// are nil when the corresponding backend is not configured. Nil Registerer
// and Gatherer select the Prometheus defaults.
type Deps struct {
	Gate       ports.SessionGate
	Users      ports.IdentityLister
	Mongo      *mongo.Database
	Redis      *redis.Client
	Log        zerolog.Logger
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	if err := metrics.Register(d.Registerer); err != nil {
		d.Log.Error().Err(err).Msg("session metrics not registered")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "portal_http",
		Registerer: d.Registerer,
	}))

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(d.Gate)
	dashboardHandler := handler.NewDashboardHandler(d.Users)
	requireSession := middleware.RequireSession(d.Gate)

	// --- Auth routes ---
	e.POST("/auth/login", sessionHandler.Login)
	e.POST("/auth/logout", sessionHandler.Logout)
	e.GET("/auth/session", sessionHandler.Session)

	// --- Guarded routes ---
	v1 := e.Group("/v1", requireSession)
	v1.GET("/dashboard", dashboardHandler.Dashboard)
	v1.GET("/admin/users", dashboardHandler.Users, middleware.RBAC(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Gate, d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
