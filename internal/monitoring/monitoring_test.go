package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(metrics *Metrics, checker *HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(metrics.Middleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusForbidden) })
	router.GET("/health", HealthHandler(checker, metrics))
	router.GET("/health/ready", ReadinessHandler(checker))
	router.GET("/health/live", LivenessHandler(metrics))
	router.GET("/metrics", MetricsHandler(metrics, map[string]StatsFunc{
		"cache": func() map[string]interface{} { return map[string]interface{}{"hits": 3} },
	}))
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestMetricsMiddleware_CountsRequests(t *testing.T) {
	metrics := NewMetrics()
	router := newRouter(metrics, NewHealthChecker(time.Second))

	get(router, "/ok")
	get(router, "/ok")
	get(router, "/fail")
	get(router, "/nowhere")

	snap := metrics.Snapshot()
	assert.EqualValues(t, 4, snap.RequestCount)
	assert.EqualValues(t, 2, snap.ErrorCount)
	assert.EqualValues(t, 0, snap.ActiveRequests)
	assert.EqualValues(t, 2, snap.StatusCodes[http.StatusOK])
	assert.EqualValues(t, 2, snap.Endpoints["GET /ok"])
	assert.EqualValues(t, 1, snap.Endpoints["GET unmatched"])
}

func TestHealthChecker_RerunsChecksEveryTime(t *testing.T) {
	checker := NewHealthChecker(time.Second)
	var calls atomic.Int32
	var failing atomic.Bool
	checker.Register("database", func(ctx context.Context) error {
		calls.Add(1)
		if failing.Load() {
			return errors.New("connection refused")
		}
		return nil
	})

	results, healthy := checker.Run(context.Background())
	require.Len(t, results, 1)
	assert.True(t, healthy)

	failing.Store(true)
	results, healthy = checker.Run(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, StatusUnhealthy, results[0].Status)
	assert.Equal(t, "connection refused", results[0].Message)
	assert.EqualValues(t, 2, calls.Load())
}

func TestHealthChecker_TimesOutSlowChecks(t *testing.T) {
	checker := NewHealthChecker(20 * time.Millisecond)
	checker.Register("redis", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	_, healthy := checker.Run(context.Background())
	assert.False(t, healthy)
}

func TestHealthHandlers(t *testing.T) {
	metrics := NewMetrics()
	checker := NewHealthChecker(time.Second)
	var down atomic.Bool
	checker.Register("cache", func(ctx context.Context) error {
		if down.Load() {
			return errors.New("down")
		}
		return nil
	})
	router := newRouter(metrics, checker)

	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusHealthy, body["status"])

	assert.Equal(t, http.StatusOK, get(router, "/health/ready").Code)

	down.Store(true)
	assert.Equal(t, http.StatusServiceUnavailable, get(router, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(router, "/health/ready").Code)
	assert.Equal(t, http.StatusOK, get(router, "/health/live").Code)
}

func TestMetricsHandler_IncludesDependencies(t *testing.T) {
	metrics := NewMetrics()
	router := newRouter(metrics, NewHealthChecker(time.Second))

	w := get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Application  MetricsSnapshot                   `json:"application"`
		Dependencies map[string]map[string]interface{} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body.Dependencies["cache"]["hits"])
}
