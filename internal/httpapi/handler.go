package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

// Handler serves the introspection routes.
type Handler struct {
	checks []namedHealthChecker
	runs   RunLookup

	startTime time.Time
}

type namedHealthChecker struct {
	name    string
	checker HealthChecker
}

// NewHandler builds a Handler. checks maps a dependency name (as it will
// appear in the /healthz response) to its HealthChecker; runs is required.
func NewHandler(checks map[string]HealthChecker, runs RunLookup) *Handler {
	if runs == nil {
		panic("httpapi: RunLookup is required")
	}

	named := make([]namedHealthChecker, 0, len(checks))
	for name, checker := range checks {
		named = append(named, namedHealthChecker{name: name, checker: checker})
	}

	return &Handler{checks: named, runs: runs, startTime: time.Now()}
}

type healthResponse struct {
	Status       string                     `json:"status"`
	UptimeSecs   int64                      `json:"uptime_seconds"`
	Dependencies map[string]dependencyState `json:"dependencies"`
}

type dependencyState struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthzHandler reports the process's own uptime plus every wired
// dependency's HealthChecker result; any unhealthy dependency marks the
// overall response unhealthy without failing the request itself (spec
// §10.5 is an introspection surface, not a liveness gate).
func (h *Handler) HealthzHandler(c echo.Context) error {
	deps := make(map[string]dependencyState, len(h.checks))
	overall := "healthy"

	for _, nc := range h.checks {
		if err := nc.checker.Health(); err != nil {
			deps[nc.name] = dependencyState{Status: "unhealthy", Message: err.Error()}
			overall = "unhealthy"
		} else {
			deps[nc.name] = dependencyState{Status: "healthy"}
		}
	}

	return c.JSON(http.StatusOK, healthResponse{
		Status:       overall,
		UptimeSecs:   int64(time.Since(h.startTime).Seconds()),
		Dependencies: deps,
	})
}

// StatuszHandler returns the most recently started MonitoringRun, the
// "current" run in spec §10.5's sense whether it's still in flight or
// already closed out.
func (h *Handler) StatuszHandler(c echo.Context) error {
	run, err := h.runs.LatestMonitoringRun(c.Request().Context())
	if err != nil {
		if apperrors.Is(err, apperrors.NotFound) {
			return c.JSON(http.StatusOK, map[string]string{"status": "no runs yet"})
		}
		applog.WithComponent(component).WithError(err).Error("failed to load latest monitoring run")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load run status")
	}

	return c.JSON(http.StatusOK, runResponse(run))
}

// RunHandler returns one MonitoringRun by its numeric ID.
func (h *Handler) RunHandler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}

	run, err := h.runs.GetMonitoringRun(c.Request().Context(), id)
	if err != nil {
		if apperrors.Is(err, apperrors.NotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "run not found")
		}
		applog.WithComponent(component).WithError(err).Error("failed to load monitoring run")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load run")
	}

	return c.JSON(http.StatusOK, runResponse(run))
}

type monitoringRunResponse struct {
	ID              int64      `json:"id"`
	RunType         string     `json:"run_type"`
	Retailer        string     `json:"retailer"`
	Category        string     `json:"category"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	ProductsCrawled int        `json:"products_crawled"`
	NewProducts     int        `json:"new_products"`
	QueuedForReview int        `json:"queued_for_review"`
	EndState        string     `json:"end_state"`
	ErrorLog        string     `json:"error_log,omitempty"`
}

func runResponse(r *store.MonitoringRun) monitoringRunResponse {
	return monitoringRunResponse{
		ID:              r.ID,
		RunType:         string(r.RunType),
		Retailer:        r.Retailer,
		Category:        r.Category,
		StartedAt:       r.StartedAt,
		EndedAt:         r.EndedAt,
		ProductsCrawled: r.ProductsCrawled,
		NewProducts:     r.NewProducts,
		QueuedForReview: r.QueuedForReview,
		EndState:        string(r.EndState),
		ErrorLog:        r.ErrorLog,
	}
}
