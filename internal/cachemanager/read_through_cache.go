package cachemanager

import (
	"context"
	"sync/atomic"
	"time"
)

// ReadThroughCache answers from the cache and falls back to fn on a miss,
// storing successful results for the configured TTL. A TTL of zero or less
// skips the cache entirely.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache CacheManager[K, V]
	fn    func(ctx context.Context, input I) (V, error)
	ttl   atomic.Int64
}

func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	ttl time.Duration,
) *ReadThroughCache[K, V, I] {
	r := &ReadThroughCache[K, V, I]{cache: cache, fn: fn}
	r.ttl.Store(int64(ttl))
	return r
}

// SetTTL changes the TTL of future writes. Lowering it to zero also drops
// everything cached so far.
func (r *ReadThroughCache[K, V, I]) SetTTL(ctx context.Context, ttl time.Duration) {
	r.ttl.Store(int64(ttl))
	if ttl <= 0 {
		r.cache.Flush(ctx)
	}
}

// TTL returns the current TTL.
func (r *ReadThroughCache[K, V, I]) TTL() time.Duration {
	return time.Duration(r.ttl.Load())
}

// Get returns the value for key, calling fn with input on a miss. The second
// result reports whether the value came from the cache.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I) (V, bool, error) {
	ttl := r.TTL()
	if ttl <= 0 {
		v, err := r.fn(ctx, input)
		return v, false, err
	}

	if v, ok := r.cache.Get(ctx, key); ok {
		return v, true, nil
	}

	v, err := r.fn(ctx, input)
	if err != nil {
		return v, false, err
	}

	r.cache.Set(ctx, key, v, ttl)
	return v, false, nil
}

// Forget drops key so the next Get calls fn again.
func (r *ReadThroughCache[K, V, I]) Forget(ctx context.Context, key K) {
	r.cache.Delete(ctx, key)
}
