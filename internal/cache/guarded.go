package cache

import (
	"context"
	"errors"
	"time"
)

// GuardedCache puts a circuit breaker and counters in front of another cache. While the
// breaker is open every call fails fast with ErrCacheDown.
type GuardedCache struct {
	inner   Cache
	breaker *CircuitBreaker
	metrics *CacheMetrics
}

func NewGuardedCache(inner Cache, breakerConfig *CircuitBreakerConfig) *GuardedCache {
	return &GuardedCache{
		inner:   inner,
		breaker: NewCircuitBreaker(breakerConfig),
		metrics: NewCacheMetrics(),
	}
}

func (g *GuardedCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := g.breaker.Execute(func() error { return g.inner.Get(ctx, key, dest) })
	switch {
	case err == nil:
		g.metrics.RecordHit()
	case errors.Is(err, ErrCacheMiss):
		g.metrics.RecordMiss()
	default:
		g.metrics.RecordError()
	}
	return g.translate(err)
}

func (g *GuardedCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	err := g.breaker.Execute(func() error { return g.inner.Set(ctx, key, value, ttl) })
	if err != nil {
		g.metrics.RecordError()
		return g.translate(err)
	}
	g.metrics.RecordSet()
	return nil
}

func (g *GuardedCache) Delete(ctx context.Context, keys ...string) error {
	err := g.breaker.Execute(func() error { return g.inner.Delete(ctx, keys...) })
	if err != nil {
		g.metrics.RecordError()
		return g.translate(err)
	}
	g.metrics.RecordDelete()
	return nil
}

// Health bypasses the breaker so readiness reflects the backend itself.
func (g *GuardedCache) Health(ctx context.Context) error {
	return g.inner.Health(ctx)
}

func (g *GuardedCache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"backend":         g.inner.Stats(),
		"circuit_breaker": g.breaker.GetStats(),
		"metrics":         g.metrics.Snapshot(),
	}
}

func (g *GuardedCache) Close() error {
	return g.inner.Close()
}

func (g *GuardedCache) translate(err error) error {
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return ErrCacheDown
	}
	return err
}
