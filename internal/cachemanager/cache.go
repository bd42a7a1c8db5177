// Package cachemanager caches backend read models, such as the company list,
// in process memory.
package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jinhealth/reconcile/internal/log"
)

// NoExpiration keeps an entry until it is deleted or the cache is flushed.
const NoExpiration = gocache.NoExpiration

// Cache stores values of one type under string keys.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Flush(ctx context.Context)
}

// Memory is a Cache backed by go-cache.
type Memory[V any] struct {
	name  string
	cache *gocache.Cache
}

// NewMemory returns an empty cache. Expired entries are swept every cleanup
// interval; zero disables the sweeper and leaves expiry to lookups.
func NewMemory[V any](name string, ttl, cleanup time.Duration) *Memory[V] {
	return &Memory[V]{name: name, cache: gocache.New(ttl, cleanup)}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	raw, ok := m.cache.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		log.Error(log.CatCache, "Cached value has wrong type", "cache", m.name, "key", key)
		return zero, false
	}
	log.Debug(log.CatCache, "Cache hit", "cache", m.name, "key", key)
	return v, true
}

// Set stores value; a zero ttl uses the cache default.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.cache.Set(key, value, ttl)
}

func (m *Memory[V]) Delete(_ context.Context, keys ...string) {
	for _, k := range keys {
		m.cache.Delete(k)
	}
}

func (m *Memory[V]) Flush(_ context.Context) {
	m.cache.Flush()
	log.Debug(log.CatCache, "Cache flushed", "cache", m.name)
}

// Len counts unexpired entries.
func (m *Memory[V]) Len() int { return m.cache.ItemCount() }
