package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScreen/pkg/logger"
)

type routes struct{}

func (routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/ok", func(c echo.Context) error { return SuccessResponse(c, "fine") })
	e.GET("/boom", func(c echo.Context) error { panic("handler exploded") })
	e.GET("/missing", func(c echo.Context) error {
		return AppErrorResponse(c, NotFoundErrorf("thing %q", "x"))
	})
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(routes{}, logger.Nop(), WithRegistry(prometheus.NewRegistry()))
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServerRecoversPanics(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestServerAppErrorStatus(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_NOT_FOUND"`)
}

func TestServerExposesRequestMetrics(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/ok").Code)

	rec := serve(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/ok",status="200"} 1`)
}

func TestServerAnswersPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set(echo.HeaderOrigin, "http://dash.local")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://dash.local", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestServerWithoutCORS(t *testing.T) {
	s := NewServer(routes{}, logger.Nop(), WithRegistry(prometheus.NewRegistry()), WithCORS(false))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(echo.HeaderOrigin, "http://dash.local")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
