package monitoring

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Duration string    `json:"duration"`
	LastRun  time.Time `json:"last_run"`
}

// HealthChecker runs every registered check on each call to Run.
type HealthChecker struct {
	mu      sync.RWMutex
	checks  map[string]HealthCheckFunc
	timeout time.Duration
}

func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{checks: make(map[string]HealthCheckFunc), timeout: timeout}
}

func (h *HealthChecker) Register(name string, check HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Run executes the checks concurrently, each under its own timeout, and reports whether
// all of them passed.
func (h *HealthChecker) Run(ctx context.Context) ([]HealthCheck, bool) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	funcs := make([]HealthCheckFunc, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		funcs = append(funcs, h.checks[name])
	}
	h.mu.RUnlock()

	results := make([]HealthCheck, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.runOne(ctx, names[i], funcs[i])
		}(i)
	}
	wg.Wait()

	healthy := true
	for _, result := range results {
		if result.Status != StatusHealthy {
			healthy = false
		}
	}
	return results, healthy
}

func (h *HealthChecker) runOne(ctx context.Context, name string, check HealthCheckFunc) HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	result := HealthCheck{Name: name, Status: StatusHealthy, LastRun: start.UTC()}
	if err := check(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	result.Duration = time.Since(start).String()
	return result
}

func HealthHandler(checker *HealthChecker, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks, healthy := checker.Run(c.Request.Context())

		status, code := StatusHealthy, http.StatusOK
		if !healthy {
			status, code = StatusUnhealthy, http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"checks":    checks,
			"uptime":    metrics.Uptime().Round(time.Second).String(),
		})
	}
}

func ReadinessHandler(checker *HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, healthy := checker.Run(c.Request.Context()); !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "timestamp": time.Now().UTC()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now().UTC()})
	}
}

func LivenessHandler(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
			"uptime":    metrics.Uptime().Round(time.Second).String(),
		})
	}
}
