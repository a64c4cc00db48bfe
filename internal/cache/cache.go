// Package cache provides the read-through record cache used in front of task and label
// lookups. Values are stored as JSON.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Health(ctx context.Context) error
	Stats() map[string]interface{}
	Close() error
}
