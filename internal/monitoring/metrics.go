// Package monitoring keeps in-process request counters and runs the health checks behind
// the /health endpoints.
package monitoring

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics aggregates request counters for the lifetime of the process.
type Metrics struct {
	mu            sync.RWMutex
	requestCount  int64
	activeCount   int64
	errorCount    int64
	statusCodes   map[int]int64
	endpoints     map[string]int64
	startTime     time.Time
	lastRequest   time.Time
	totalDuration time.Duration
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	RequestCount     int64            `json:"request_count"`
	AvgRequestMillis float64          `json:"avg_request_duration_ms"`
	ActiveRequests   int64            `json:"active_requests"`
	ErrorCount       int64            `json:"error_count"`
	StatusCodes      map[int]int64    `json:"status_codes"`
	Endpoints        map[string]int64 `json:"endpoint_calls"`
	StartTime        time.Time        `json:"start_time"`
	LastRequest      time.Time        `json:"last_request"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		statusCodes: make(map[int]int64),
		endpoints:   make(map[string]int64),
		startTime:   time.Now(),
	}
}

func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// Middleware counts every request by status and route template. Unmatched routes are
// grouped under "unmatched" so arbitrary paths cannot grow the endpoint map.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mu.Lock()
		m.activeCount++
		m.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		endpoint := c.Request.Method + " " + route
		status := c.Writer.Status()

		m.mu.Lock()
		defer m.mu.Unlock()
		m.requestCount++
		m.activeCount--
		m.totalDuration += duration
		m.lastRequest = time.Now()
		if status >= http.StatusBadRequest {
			m.errorCount++
		}
		m.statusCodes[status]++
		m.endpoints[endpoint]++
	}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		RequestCount:   m.requestCount,
		ActiveRequests: m.activeCount,
		ErrorCount:     m.errorCount,
		StatusCodes:    make(map[int]int64, len(m.statusCodes)),
		Endpoints:      make(map[string]int64, len(m.endpoints)),
		StartTime:      m.startTime,
		LastRequest:    m.lastRequest,
	}
	if m.requestCount > 0 {
		avg := m.totalDuration / time.Duration(m.requestCount)
		snap.AvgRequestMillis = float64(avg.Microseconds()) / 1000
	}
	for k, v := range m.statusCodes {
		snap.StatusCodes[k] = v
	}
	for k, v := range m.endpoints {
		snap.Endpoints[k] = v
	}
	return snap
}

type SystemMetrics struct {
	Uptime         string      `json:"uptime"`
	MemoryUsage    MemoryStats `json:"memory"`
	GoroutineCount int         `json:"goroutine_count"`
	CPUCount       int         `json:"cpu_count"`
	GoVersion      string      `json:"go_version"`
}

type MemoryStats struct {
	Alloc        uint64 `json:"alloc_mb"`
	TotalAlloc   uint64 `json:"total_alloc_mb"`
	Sys          uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	GCPauseTotal string `json:"gc_pause_total"`
}

func (m *Metrics) System() SystemMetrics {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return SystemMetrics{
		Uptime: m.Uptime().Round(time.Second).String(),
		MemoryUsage: MemoryStats{
			Alloc:        bToMb(mem.Alloc),
			TotalAlloc:   bToMb(mem.TotalAlloc),
			Sys:          bToMb(mem.Sys),
			NumGC:        mem.NumGC,
			GCPauseTotal: time.Duration(mem.PauseTotalNs).String(),
		},
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
		GoVersion:      runtime.Version(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// StatsFunc reports the state of a dependency such as the connection pool or cache.
type StatsFunc func() map[string]interface{}

// MetricsHandler serves request counters, runtime figures and each named stats source.
func MetricsHandler(metrics *Metrics, sources map[string]StatsFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps := make(map[string]interface{}, len(sources))
		for name, stats := range sources {
			deps[name] = stats()
		}

		c.JSON(http.StatusOK, gin.H{
			"application":  metrics.Snapshot(),
			"system":       metrics.System(),
			"dependencies": deps,
			"timestamp":    time.Now().UTC(),
		})
	}
}
