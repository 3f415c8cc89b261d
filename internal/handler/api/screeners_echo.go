package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"FinScreen/internal/domain/models"
	xhttp "FinScreen/pkg/http"
	xlogger "FinScreen/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ResultReader is the read side of the result store.
type ResultReader interface {
	All() map[string][]any
	Get(name string) ([]any, bool)
	States() []models.ScreenerState
	Version() uint64
}

// HealthChecker is a backing store reported by /healthz.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type healthCheck struct {
	name  string
	check HealthChecker
}

const healthTimeout = 2 * time.Second

// ScreenersHandler serves the screener results over HTTP and WebSocket.
type ScreenersHandler struct {
	logger       *xlogger.Logger
	results      ResultReader
	pushInterval time.Duration
	checks       []healthCheck

	quit     chan struct{}
	quitOnce sync.Once
}

type HandlerOption func(*ScreenersHandler)

// WithHealthCheck adds a dependency to /healthz; a failing one turns it into a 503.
func WithHealthCheck(name string, c HealthChecker) HandlerOption {
	return func(h *ScreenersHandler) {
		h.checks = append(h.checks, healthCheck{name: name, check: c})
	}
}

func NewScreenersHandler(logger *xlogger.Logger, results ResultReader, pushInterval time.Duration, opts ...HandlerOption) *ScreenersHandler {
	if pushInterval <= 0 {
		pushInterval = 5 * time.Second
	}
	h := &ScreenersHandler{
		logger:       logger.Named("api"),
		results:      results,
		pushInterval: pushInterval,
		quit:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ScreenersHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/screeners", h.List)
	g.GET("/screeners/status", h.Status)
	g.GET("/screeners/:name", h.Get)
	e.GET("/ws/screeners", h.Stream)
}

// Close ends every open stream. Hijacked connections are not covered by server shutdown.
func (h *ScreenersHandler) Close() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// Health pings every registered dependency and reports the store state.
func (h *ScreenersHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	var failed []*xhttp.AppError
	for _, hc := range h.checks {
		if err := hc.check.Health(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("dependency", hc.name), xlogger.Error(err))
			failed = append(failed, xhttp.NewAppError("ERR_UNAVAILABLE", hc.name,
				fmt.Sprintf("%s unavailable: %v", hc.name, err), http.StatusServiceUnavailable).WithError(err))
		}
	}
	if len(failed) > 0 {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, failed)
	}

	return xhttp.SuccessResponse(c, map[string]any{
		"status":    "ok",
		"screeners": len(h.results.States()),
		"version":   h.results.Version(),
	})
}

// List returns {name: [header, rows...]} for every screener.
func (h *ScreenersHandler) List(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, h.results.All())
}

func (h *ScreenersHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.results.States())
}

func (h *ScreenersHandler) Get(c echo.Context) error {
	req := &models.ScreenerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, ok := h.results.Get(req.Name)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("screener %q is not configured", req.Name))
	}
	return xhttp.SuccessResponse(c, truncate(rows, req.Limit))
}

// truncate keeps the header and at most limit rows.
func truncate(rows []any, limit int) []any {
	if limit <= 0 || len(rows) <= limit+1 {
		return rows
	}
	return rows[:limit+1]
}

