package topics

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/pkg/cache"
	"github.com/dmitrymomot/agora/pkg/pagination"
)

const defaultListingTTL = 30 * time.Second

// CachedQueries caches the recent and unanswered listings, which every
// front-page render hits. Staleness is bounded by the TTL, which the
// non-linearizable listing contract already allows; there is no
// invalidation. Branch listings and single-topic loads pass through.
type CachedQueries struct {
	*Queries
	cache cache.Cache[pagination.Page[forum.Topic]]
	ttl   time.Duration
}

// NewCachedQueries wraps the query engine with a listing cache. A zero ttl
// falls back to 30 seconds.
func NewCachedQueries(q *Queries, c cache.Cache[pagination.Page[forum.Topic]], ttl time.Duration) *CachedQueries {
	if ttl <= 0 {
		ttl = defaultListingTTL
	}
	return &CachedQueries{Queries: q, cache: c, ttl: ttl}
}

// RecentTopics serves the recent listing from cache, computing a miss at
// most once across concurrent callers.
func (c *CachedQueries) RecentTopics(ctx context.Context, page int) (pagination.Page[forum.Topic], error) {
	key := fmt.Sprintf("topics:recent:%d", page)
	return cache.GetOrSet(ctx, c.cache, key, func(ctx context.Context) (pagination.Page[forum.Topic], time.Duration, error) {
		p, err := c.Queries.RecentTopics(ctx, page)
		return p, c.ttl, err
	})
}

// UnansweredTopics serves the unanswered listing from cache.
func (c *CachedQueries) UnansweredTopics(ctx context.Context, page int) (pagination.Page[forum.Topic], error) {
	key := fmt.Sprintf("topics:unanswered:%d", page)
	return cache.GetOrSet(ctx, c.cache, key, func(ctx context.Context) (pagination.Page[forum.Topic], time.Duration, error) {
		p, err := c.Queries.UnansweredTopics(ctx, page)
		return p, c.ttl, err
	})
}
