package cache

import (
	"sync/atomic"
	"time"
)

// CacheMetrics counts cache outcomes. Safe for concurrent use.
type CacheMetrics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	errors    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	startTime time.Time
}

func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{startTime: time.Now()}
}

func (m *CacheMetrics) RecordHit()    { m.hits.Add(1) }
func (m *CacheMetrics) RecordMiss()   { m.misses.Add(1) }
func (m *CacheMetrics) RecordError()  { m.errors.Add(1) }
func (m *CacheMetrics) RecordSet()    { m.sets.Add(1) }
func (m *CacheMetrics) RecordDelete() { m.deletes.Add(1) }

// HitRate is a percentage over all lookups, 0 when there were none.
func (m *CacheMetrics) HitRate() float64 {
	hits := m.hits.Load()
	total := hits + m.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

func (m *CacheMetrics) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"hits":           m.hits.Load(),
		"misses":         m.misses.Load(),
		"errors":         m.errors.Load(),
		"sets":           m.sets.Load(),
		"deletes":        m.deletes.Load(),
		"hit_rate":       m.HitRate(),
		"uptime_seconds": int64(time.Since(m.startTime).Seconds()),
	}
}
