package cache

import (
	"context"
	"testing"
	"time"

	"todo-app/backend/internal/config"

	"github.com/alicebob/miniredis/v2"
)

func TestDefaultCacheConfig(t *testing.T) {
	config := DefaultCacheConfig()

	if config.Addr != "localhost:6379" {
		t.Errorf("Expected Addr to be localhost:6379, got %s", config.Addr)
	}

	if config.PoolSize != 10 {
		t.Errorf("Expected PoolSize to be 10, got %d", config.PoolSize)
	}

	if config.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries to be 3, got %d", config.MaxRetries)
	}

	if config.DialTimeout != 5*time.Second {
		t.Errorf("Expected DialTimeout to be 5s, got %v", config.DialTimeout)
	}

	if config.Prefix != "cache:" {
		t.Errorf("Expected Prefix to be cache:, got %s", config.Prefix)
	}
}

func TestCacheConfigFromConfig(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{Host: "redis", Port: "6380", DB: 2, PoolSize: 4}}

	cacheConfig := CacheConfigFromConfig(cfg)

	if cacheConfig.Addr != "redis:6380" {
		t.Errorf("Expected Addr redis:6380, got %s", cacheConfig.Addr)
	}
	if cacheConfig.DB != 2 || cacheConfig.PoolSize != 4 {
		t.Errorf("Expected DB 2 and PoolSize 4, got %d and %d", cacheConfig.DB, cacheConfig.PoolSize)
	}
}

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	config := DefaultCacheConfig()
	config.Addr = mr.Addr()
	config.MaxRetries = 0

	cache := NewRedisCache(config)
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestNewRedisCache_WithNilConfig(t *testing.T) {
	cache := NewRedisCache(nil)
	defer cache.Close()

	if cache.client == nil {
		t.Error("Expected Redis client to be initialized")
	}
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	type testData struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	original := testData{Name: "test", Value: 42}

	if err := cache.Set(ctx, "test:key", original, time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	if !mr.Exists("cache:test:key") {
		t.Error("Expected key to be stored under the cache prefix")
	}

	var retrieved testData
	if err := cache.Get(ctx, "test:key", &retrieved); err != nil {
		t.Fatalf("Failed to get from cache: %v", err)
	}

	if retrieved != original {
		t.Errorf("Expected %+v, got %+v", original, retrieved)
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "test:ttl", "data", time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var result string
	if err := cache.Get(ctx, "test:ttl", &result); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestRedisCache_Get_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	var result string
	err := cache.Get(context.Background(), "non-existent-key", &result)

	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisCache_Set_InvalidData(t *testing.T) {
	cache, _ := setupTestRedis(t)

	ch := make(chan int)
	if err := cache.Set(context.Background(), "test:key", ch, time.Minute); err == nil {
		t.Error("Expected error when setting unmarshalable data")
	}
}

func TestRedisCache_Get_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	mr.Set("cache:test:invalid", "invalid-json")

	var result map[string]interface{}
	if err := cache.Get(context.Background(), "test:invalid", &result); err == nil {
		t.Error("Expected error when getting invalid JSON")
	}
}

func TestRedisCache_Delete(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, key := range []string{"test:delete:1", "test:delete:2"} {
		if err := cache.Set(ctx, key, "data", time.Minute); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
	}

	if err := cache.Delete(ctx, "test:delete:1", "test:delete:2"); err != nil {
		t.Fatalf("Failed to delete from cache: %v", err)
	}

	var retrieved string
	if err := cache.Get(ctx, "test:delete:1", &retrieved); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}

	if err := cache.Delete(ctx); err != nil {
		t.Errorf("Expected deleting no keys to be a no-op, got %v", err)
	}
}

func TestRedisCache_DeletePattern(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, key := range []string{"test:pattern:1", "test:pattern:2", "test:other:1"} {
		if err := cache.Set(ctx, key, "data", time.Minute); err != nil {
			t.Fatalf("Failed to set cache key %s: %v", key, err)
		}
	}

	if err := cache.DeletePattern(ctx, "test:pattern:*"); err != nil {
		t.Fatalf("Failed to delete pattern: %v", err)
	}

	var result string
	for _, key := range []string{"test:pattern:1", "test:pattern:2"} {
		if err := cache.Get(ctx, key, &result); err != ErrCacheMiss {
			t.Errorf("Expected key %s to be deleted, but got: %v", key, err)
		}
	}

	if err := cache.Get(ctx, "test:other:1", &result); err != nil {
		t.Errorf("Expected key test:other:1 to still exist, got: %v", err)
	}
}

func TestRedisCache_Health(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := cache.Health(ctx); err != nil {
		t.Errorf("Expected healthy cache, got error: %v", err)
	}

	mr.Close()

	if err := cache.Health(ctx); err == nil {
		t.Error("Expected unhealthy cache after closing Redis")
	}
}

func TestRedisCache_Stats(t *testing.T) {
	cache, _ := setupTestRedis(t)

	stats := cache.Stats()

	if _, ok := stats["pool_total"]; !ok {
		t.Errorf("Expected pool stats, got %v", stats)
	}
}

func TestRedisCache_Close(t *testing.T) {
	cache, _ := setupTestRedis(t)

	if err := cache.Close(); err != nil {
		t.Errorf("Failed to close cache: %v", err)
	}

	if err := cache.Set(context.Background(), "test", "data", time.Minute); err == nil {
		t.Error("Expected error when using cache after close")
	}
}

func BenchmarkRedisCache_Get(b *testing.B) {
	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		b.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewRedisCache(&CacheConfig{Addr: mr.Addr(), Prefix: "cache:"})
	defer cache.Close()
	ctx := context.Background()

	data := map[string]string{"key": "value"}
	if err := cache.Set(ctx, "benchmark:key", data, time.Minute); err != nil {
		b.Fatalf("Failed to set cache: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var result map[string]string
		if err := cache.Get(ctx, "benchmark:key", &result); err != nil {
			b.Fatalf("Failed to get cache: %v", err)
		}
	}
}

func TestErrCacheMiss(t *testing.T) {
	if ErrCacheMiss.Error() != "cache miss" {
		t.Errorf("Expected ErrCacheMiss message to be 'cache miss', got '%s'", ErrCacheMiss.Error())
	}
}
