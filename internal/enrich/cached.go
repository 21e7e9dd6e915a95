package enrich

import (
	"context"
	"time"

	"github.com/newsforge/newsforge/internal/cache"
	"github.com/newsforge/newsforge/internal/news"
	"github.com/newsforge/newsforge/internal/ratelimit"
)

// Cached wraps a model-backed enricher with a TTL result cache and a daily
// request budget. Cache hits and budget exhaustion both avoid API calls;
// over-budget articles get the keyword fallback instead of queueing.
type Cached struct {
	inner    Enricher
	cache    *cache.Cache
	budget   *ratelimit.Budget
	fallback *Keyword
	ttl      time.Duration
}

func NewCached(inner Enricher, budget *ratelimit.Budget, ttl time.Duration) *Cached {
	return &Cached{
		inner:    inner,
		cache:    cache.New(),
		budget:   budget,
		fallback: NewKeyword(),
		ttl:      ttl,
	}
}

func (c *Cached) Enrich(ctx context.Context, title, content string) news.Enrichment {
	key := c.cache.GenerateKey(title, content)
	if v, ok := c.cache.Get(key); ok {
		if e, ok := v.(news.Enrichment); ok {
			return e
		}
	}

	if c.budget != nil && !c.budget.Allow() {
		return c.fallback.Enrich(ctx, title, content)
	}

	e := c.inner.Enrich(ctx, title, content)
	c.cache.Set(key, e, c.ttl)
	return e
}
