package http_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	handler "github.com/diillson/sw-characters-go/internal/adapter/http"
	"github.com/diillson/sw-characters-go/internal/testutils"
	"github.com/diillson/sw-characters-go/pkg/cache"
	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthChecker_Readiness(t *testing.T) {
	var ready atomic.Bool
	db := &pinger{}
	hc := handler.NewHealthChecker(db, pinger{err: errors.New("redis down")}, ready.Load, testutils.TestLogger(t))

	router := testutils.SetupTestRouter(t)
	hc.Register(router)

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/health/readiness", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusServiceUnavailable)

	var body map[string]interface{}
	testutils.ParseResponse(t, resp, &body)
	assert.Equal(t, "DOWN", body["status"])

	// Cache fora do ar não é crítico
	ready.Store(true)
	resp = testutils.MakeRequest(t, router, http.MethodGet, "/health/readiness", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusOK)

	testutils.ParseResponse(t, resp, &body)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "DOWN", checks["cache"].(map[string]interface{})["status"])
	assert.Equal(t, "UP", checks["database"].(map[string]interface{})["status"])

	db.err = errors.New("connection refused")
	resp = testutils.MakeRequest(t, router, http.MethodGet, "/health", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusServiceUnavailable)
}

func TestHealthChecker_Liveness(t *testing.T) {
	hc := handler.NewHealthChecker(pinger{}, pinger{}, nil, testutils.TestLogger(t))

	router := testutils.SetupTestRouter(t)
	hc.Register(router)

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/health/liveness", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusOK)
}

func TestHealthChecker_ReusesRecentResults(t *testing.T) {
	db := &pinger{}
	logger := testutils.TestLogger(t)

	hc := handler.NewHealthChecker(db, pinger{}, nil, logger)
	hc.UseResultCache(cache.NewMemoryCache(time.Minute, time.Minute, nil, logger), time.Minute)

	router := testutils.SetupTestRouter(t)
	hc.Register(router)

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/health/readiness", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusOK)

	// Dentro do ttl a falha do banco ainda não é observada
	db.err = errors.New("connection refused")
	resp = testutils.MakeRequest(t, router, http.MethodGet, "/health/readiness", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusOK)

	hc.UseResultCache(cache.NewMemoryCache(time.Minute, time.Minute, nil, logger), time.Minute)
	resp = testutils.MakeRequest(t, router, http.MethodGet, "/health/readiness", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusServiceUnavailable)

	// Uma falha também é reaproveitada
	db.err = nil
	resp = testutils.MakeRequest(t, router, http.MethodGet, "/health/readiness", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusServiceUnavailable)
}
