package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service stores JSON-encodable values under string keys.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// GetOrLoad returns the cached value for key or calls load and caches its
// result for ttl. Cache errors other than a miss are ignored so a broken
// cache degrades to a pass-through.
func GetOrLoad[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var out T
	if c == nil || ttl <= 0 {
		return load(ctx)
	}

	if err := c.Get(ctx, key, &out); err == nil {
		return out, nil
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	_ = c.Set(ctx, key, out, ttl)
	return out, nil
}

// Key joins parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
