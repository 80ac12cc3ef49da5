package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/minddump/auditd/internal/app"
	"github.com/minddump/auditd/internal/database/testutil"
	"github.com/minddump/auditd/internal/middleware"
	"github.com/minddump/auditd/pkg/response"
)

func testConfig() *app.Config {
	return &app.Config{
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
		RateLimit: app.RateLimitConfig{Enabled: false},
	}
}

func newTestRouter(t *testing.T, cfg *app.Config) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	router, err := NewRouter(db, cfg, nil)
	require.NoError(t, err)
	return router
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(nil, testConfig(), nil)
	require.Error(t, err)

	db := testutil.MustOpenTestDB(t)
	_, err = NewRouter(db, nil, nil)
	require.Error(t, err)
}

func TestRouterRegistersAuditRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit-logs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit-logs/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit-logs/1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterHealthAndMetricsEndpoints(t *testing.T) {
	router := newTestRouter(t, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouterOmitsDisabledEndpoints(t *testing.T) {
	cfg := testConfig()
	cfg.Monitoring.Prometheus.Enabled = false
	cfg.Monitoring.Health.Enabled = false
	router := newTestRouter(t, cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterUnknownRouteBody(t *testing.T) {
	router := newTestRouter(t, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ROUTE_NOT_FOUND", body.Code)
}

func TestRouterAppliesRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = app.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute}
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	router, err := NewRouter(db, cfg, middleware.NewMemoryRateStore())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit-logs", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit-logs", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
