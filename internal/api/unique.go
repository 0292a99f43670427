package api

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/signup/internal/cachemanager"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/registration"
	"github.com/zjrosen/signup/internal/tracing"
)

// UniquenessChecker answers "is this value free" for username and email.
type UniquenessChecker interface {
	CheckUnique(ctx context.Context, f registration.Field, value string) (bool, error)
}

var _ UniquenessChecker = (*Client)(nil)

type uniqueKey string

type uniqueQuery struct {
	field registration.Field
	value string
}

// CachedChecker remembers answers per (field, value) for a TTL.
type CachedChecker struct {
	rt *cachemanager.ReadThroughCache[uniqueKey, bool, uniqueQuery]
}

var _ UniquenessChecker = (*CachedChecker)(nil)

// NewCachedChecker wraps next with a go-cache backed read-through cache.
// ttl <= 0 disables caching.
func NewCachedChecker(next UniquenessChecker, ttl time.Duration) *CachedChecker {
	cache := cachemanager.NewInMemoryCacheManager[uniqueKey, bool]("uniqueness", ttl, cachemanager.DefaultCleanupInterval)
	fetch := func(ctx context.Context, q uniqueQuery) (bool, error) {
		return next.CheckUnique(ctx, q.field, q.value)
	}
	return &CachedChecker{
		rt: cachemanager.NewReadThroughCache[uniqueKey, bool, uniqueQuery](cache, fetch, ttl),
	}
}

// CheckUnique implements UniquenessChecker.
func (c *CachedChecker) CheckUnique(ctx context.Context, f registration.Field, value string) (bool, error) {
	unique, hit, err := c.rt.Get(ctx, uniqueKey(string(f)+":"+value), uniqueQuery{field: f, value: value})
	if err != nil {
		return false, err
	}
	if hit {
		log.Debug(log.CatCache, "Uniqueness answered from cache", "field", string(f), "unique", unique)
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(tracing.AttrCacheHit, true))
	}
	return unique, nil
}

// SetTTL applies a reloaded cache TTL.
func (c *CachedChecker) SetTTL(ttl time.Duration) {
	c.rt.SetTTL(context.Background(), ttl)
	log.Info(log.CatCache, "Uniqueness cache TTL changed", "ttl", ttl.String())
}
