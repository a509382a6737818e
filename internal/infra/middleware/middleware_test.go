package middleware_test

import (
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/diillson/sw-characters-go/internal/infra/metrics"
	"github.com/diillson/sw-characters-go/internal/infra/middleware"
	"github.com/diillson/sw-characters-go/internal/testutils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyGate(t *testing.T) {
	var ready atomic.Bool
	mw := middleware.NewMiddleware(testutils.TestLogger(t), nil, "test", ready.Load)

	router := testutils.SetupTestRouter(t)
	router.Use(mw.ReadyGate("/sw-characters"))
	router.GET("/sw-characters", func(c *gin.Context) { c.JSON(http.StatusOK, []string{}) })
	router.GET("/health/liveness", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/sw-characters", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusServiceUnavailable)
	assert.Equal(t, `"Service is starting"`, resp.Body.String())

	resp = testutils.MakeRequest(t, router, http.MethodGet, "/health/liveness", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusOK)

	ready.Store(true)
	resp = testutils.MakeRequest(t, router, http.MethodGet, "/sw-characters", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusOK)
}

func TestRequestID(t *testing.T) {
	mw := middleware.NewMiddleware(testutils.TestLogger(t), nil, "test", nil)

	router := testutils.SetupTestRouter(t)
	router.Use(mw.RequestID())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.RequestIDKey)) })

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/ping", nil, map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", resp.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", resp.Body.String())

	resp = testutils.MakeRequest(t, router, http.MethodGet, "/ping", nil, nil)
	assert.Len(t, resp.Header().Get("X-Request-ID"), 36)
}

func TestRecovery(t *testing.T) {
	mw := middleware.NewMiddleware(testutils.TestLogger(t), nil, "test", nil)

	router := gin.New()
	router.Use(mw.Recovery())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/panic", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusInternalServerError)
	assert.Equal(t, `"Internal server error"`, resp.Body.String())
}

func TestMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	mw := middleware.NewMiddleware(testutils.TestLogger(t), metrics.NewAPIMetrics(registry), "test", nil)

	router := testutils.SetupTestRouter(t)
	router.Use(mw.Metrics())
	router.GET("/sw-characters/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	testutils.MakeRequest(t, router, http.MethodGet, "/sw-characters/1", nil, nil)
	testutils.MakeRequest(t, router, http.MethodGet, "/sw-characters/2", nil, nil)

	count, err := testutil.GatherAndCount(registry, "sw_characters_requests_total", "sw_characters_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count) // uma série por métrica, agrupada pela rota
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	mw := middleware.NewMiddleware(testutils.TestLogger(t), nil, "test", nil)

	router := testutils.SetupTestRouter(t)
	router.Use(mw.SecurityHeaders(), mw.CORS())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/x", nil, nil)
	assert.Equal(t, "nosniff", resp.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header().Get("Strict-Transport-Security"))

	resp = testutils.MakeRequest(t, router, http.MethodOptions, "/x", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}
