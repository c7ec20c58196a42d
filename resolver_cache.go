package jxf

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/jxf/internal/cache"
)

// DefaultCacheBudget is the byte budget of a CachingResolver created with a
// non-positive budget.
const DefaultCacheBudget = 64 << 20

// CachingResolver memoizes another resolver per uri.
//
// Cached buffers are kept in least-recently-used order and evicted once
// their total size exceeds the budget. Concurrent resolves of the same uri
// share one call to the underlying resolver. Failures are never cached.
//
// Returned buffers are shared between callers and must not be modified.
type CachingResolver struct {
	next   BufferResolver
	cache  *cache.Cache[string, []byte]
	flight singleflight.Group
}

// NewCachingResolver wraps next with a cache of at most budget bytes.
func NewCachingResolver(next BufferResolver, budget int64) *CachingResolver {
	if budget <= 0 {
		budget = DefaultCacheBudget
	}
	return &CachingResolver{
		next:  next,
		cache: cache.New[string, []byte](budget, cache.ByteLen),
	}
}

// Resolve returns the cached buffer for uri, resolving it on a miss.
func (c *CachingResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	if b, ok := c.cache.Get(uri); ok {
		return b, nil
	}

	ch := c.flight.DoChan(uri, func() (b any, err error) {
		// DoChan re-panics on a fresh goroutine; no caller could recover it.
		defer func() {
			if v := recover(); v != nil {
				b, err = nil, fmt.Errorf("jxf: resolver panicked on %q: %v", uri, v)
			}
		}()
		// Another caller may have filled the entry between Get and here.
		if cached, ok := c.cache.Get(uri); ok {
			return cached, nil
		}
		return c.fill(ctx, uri)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]byte), nil
	}
}

func (c *CachingResolver) fill(ctx context.Context, uri string) ([]byte, error) {
	b, err := c.next.Resolve(context.WithoutCancel(ctx), uri)
	if err != nil {
		return nil, err
	}
	if !c.cache.Set(uri, b) {
		Logger().Debug("jxf: buffer larger than cache budget", "uri", uri, "bytes", len(b))
	}
	return b, nil
}

// Forget drops the cached buffer for uri.
func (c *CachingResolver) Forget(uri string) {
	c.cache.Delete(uri)
}

// CacheStats reports hit, miss and eviction counts.
type CacheStats = cache.Stats

// Stats returns a snapshot of the cache statistics.
func (c *CachingResolver) Stats() CacheStats {
	return c.cache.Stats()
}
