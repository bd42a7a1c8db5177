package cachemanager

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// ReadThrough serves a key from the cache and falls back to load on a miss.
// Concurrent misses on the same key share one load.
type ReadThrough[V any] struct {
	cache Cache[V]
	load  func(ctx context.Context) (V, error)
	ttl   time.Duration
	group singleflight.Group
}

// NewReadThrough wraps load. A zero ttl uses the cache default.
func NewReadThrough[V any](cache Cache[V], ttl time.Duration, load func(ctx context.Context) (V, error)) *ReadThrough[V] {
	return &ReadThrough[V]{cache: cache, load: load, ttl: ttl}
}

// Get returns the cached value for key or loads and stores it. Failed loads
// are not cached.
func (r *ReadThrough[V]) Get(ctx context.Context, key string) (V, error) {
	if v, ok := r.cache.Get(ctx, key); ok {
		return v, nil
	}
	out, err, _ := r.group.Do(key, func() (any, error) {
		v, err := r.load(ctx)
		if err != nil {
			return v, err
		}
		r.cache.Set(ctx, key, v, r.ttl)
		return v, nil
	})
	v, _ := out.(V)
	return v, err
}

// Invalidate drops keys so the next Get reloads.
func (r *ReadThrough[V]) Invalidate(ctx context.Context, keys ...string) {
	r.cache.Delete(ctx, keys...)
}

// Flush drops every key.
func (r *ReadThrough[V]) Flush(ctx context.Context) {
	r.cache.Flush(ctx)
}
