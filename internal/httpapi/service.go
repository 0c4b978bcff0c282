package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const shutdownTimeout = 5 * time.Second

// Service manages the introspection HTTP server's lifecycle, mirroring
// the teacher's Start(serviceStopCtx, serviceStopWG)/graceful-shutdown
// shape without the TLS/Swagger/auth machinery this surface doesn't need.
type Service struct {
	cfg     Config
	handler *Handler

	running   bool
	runningMu sync.Mutex
}

// NewService builds a Service. handler must be non-nil.
func NewService(cfg Config, handler *Handler) *Service {
	if handler == nil {
		panic("httpapi: Handler is required")
	}
	return &Service{cfg: cfg, handler: handler}
}

// Start starts the HTTP server in a background goroutine and returns
// immediately; serviceStopWG.Done is called once shutdown has completed.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("starting httpapi service")

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("httpapi service already running, ignoring duplicate Start call")
		return nil
	}
	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	return nil
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := NewEcho(s.cfg)
	SetupRoutes(e, s.handler)

	done := make(chan struct{})
	go s.startServer(e, done)

	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(component).Info("stopping httpapi service")
	case <-done:
		applog.WithComponent(component).Error("httpapi server exited unexpectedly")
		s.cleanup()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponent(component).WithError(err).Error("httpapi server shutdown error")
	}

	<-done
	s.cleanup()
}

func (s *Service) startServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	err := e.Start(fmt.Sprintf(":%d", s.cfg.ListenPort))
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}

	applog.WithComponent(component).WithError(err).Error("httpapi server failed to start")
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("httpapi service stopped")
}
