// Package httpapi is the introspection-only HTTP surface (spec §10.5):
// /healthz, /statusz, and /runs/{id}. Unlike the teacher's notify-publish
// API, nothing here accepts writes from a caller, so there is no
// Authenticator or App Key concept to carry over — every route is a
// read-only view onto state the rest of the pipeline already owns.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/catalogwatcher/catalog-watcher/internal/service/api/constants"
	appmiddleware "github.com/catalogwatcher/catalog-watcher/internal/service/api/middleware"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const component = "httpapi"

// defaultRequestTimeout and defaultMaxBodySize fill the gap left by the
// constants package, which only carries read/write/idle timeouts and
// rate-limit defaults; this surface's request bodies are empty GETs, so
// a small cap is plenty.
const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxBodySize    = "64K"
)

// Config configures the introspection HTTP server.
type Config struct {
	Debug          bool
	ListenPort     int
	AllowOrigins   []string
	RequestTimeout time.Duration
}

// NewEcho builds an Echo instance with the same middleware chain the
// teacher's notify-publish API uses, minus authentication (nothing here
// needs it) and the Swagger doc routes (no generated spec to serve).
func NewEcho(cfg Config) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true

	e.Server.ReadTimeout = constants.DefaultReadTimeout
	e.Server.IdleTimeout = constants.DefaultIdleTimeout

	e.Logger = appmiddleware.Logger{Logger: applog.StandardLogger()}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	e.Use(appmiddleware.PanicRecovery())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	e.Use(appmiddleware.HTTPLogger())
	e.Use(appmiddleware.RateLimit(constants.DefaultRateLimitPerSecond, constants.DefaultRateLimitBurst))
	e.Use(middleware.BodyLimit(defaultMaxBodySize))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{Timeout: timeout}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet},
	}))
	e.Use(middleware.Secure())

	return e
}

// HealthChecker is the narrow health-reporting contract every dependency
// wired into /healthz must satisfy. internal/notify.Service and the
// Store-backed checker built by NewStoreHealthChecker both implement it.
type HealthChecker interface {
	Health() error
}

// NewStoreHealthChecker adapts *store.Store's context-taking Health into
// the ctx-free HealthChecker shape the rest of this package uses, so a
// slow ping can't hang a /healthz request indefinitely.
func NewStoreHealthChecker(s storePinger) HealthChecker {
	return &storeHealthChecker{store: s}
}

// storePinger is the slice of *store.Store this package depends on.
type storePinger interface {
	Health(ctx context.Context) error
}

type storeHealthChecker struct {
	store storePinger
}

func (c *storeHealthChecker) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.store.Health(ctx)
}

// RunLookup is the narrow slice of *store.Store the /runs/{id} and
// /statusz handlers need.
type RunLookup interface {
	GetMonitoringRun(ctx context.Context, id int64) (*store.MonitoringRun, error)
	LatestMonitoringRun(ctx context.Context) (*store.MonitoringRun, error)
}

// SetupRoutes registers every introspection route on e.
func SetupRoutes(e *echo.Echo, h *Handler) {
	e.GET("/healthz", h.HealthzHandler)
	e.GET("/statusz", h.StatuszHandler)
	e.GET("/runs/:id", h.RunHandler)
}
