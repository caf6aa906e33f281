package topics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/pkg/pagination"
)

const (
	defaultPageSize     = 20
	defaultRecentWindow = 24 * time.Hour
)

// Queries serves paged, filtered views over topics. Listings read whatever
// the store returns for a consistent page; they are not linearizable with
// concurrent moves or deletes, and a page may legitimately miss or contain a
// topic mutated mid-listing.
type Queries struct {
	store        Store
	pageSize     int
	recentWindow time.Duration
	now          func() time.Time
}

// QueriesOption configures the query engine.
type QueriesOption func(*Queries)

// WithPageSize sets the fixed page size for all listings. Defaults to 20.
func WithPageSize(n int) QueriesOption {
	return func(q *Queries) {
		if n > 0 {
			q.pageSize = n
		}
	}
}

// WithRecentWindow bounds the recency window of the recent and unanswered
// listings. Defaults to 24 hours.
func WithRecentWindow(d time.Duration) QueriesOption {
	return func(q *Queries) {
		if d > 0 {
			q.recentWindow = d
		}
	}
}

// WithQueriesClock overrides the time source, for tests.
func WithQueriesClock(now func() time.Time) QueriesOption {
	return func(q *Queries) {
		if now != nil {
			q.now = now
		}
	}
}

// NewQueries creates the query engine.
func NewQueries(store Store, opts ...QueriesOption) *Queries {
	q := &Queries{
		store:        store,
		pageSize:     defaultPageSize,
		recentWindow: defaultRecentWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Topic loads a single topic by id.
func (q *Queries) Topic(ctx context.Context, id uuid.UUID) (*forum.Topic, error) {
	return q.store.GetTopic(ctx, id)
}

// RecentTopics returns one page of topics with activity inside the recency
// window, newest activity first.
func (q *Queries) RecentTopics(ctx context.Context, page int) (pagination.Page[forum.Topic], error) {
	since := q.now().Add(-q.recentWindow)
	items, total, err := q.store.RecentTopics(ctx, since, q.pageSize, pagination.Offset(page, q.pageSize))
	if err != nil {
		return pagination.Page[forum.Topic]{}, err
	}
	return pagination.New(items, page, q.pageSize, total), nil
}

// UnansweredTopics returns one page of topics from the recency window that
// still have only their first post.
func (q *Queries) UnansweredTopics(ctx context.Context, page int) (pagination.Page[forum.Topic], error) {
	since := q.now().Add(-q.recentWindow)
	items, total, err := q.store.UnansweredTopics(ctx, since, q.pageSize, pagination.Offset(page, q.pageSize))
	if err != nil {
		return pagination.Page[forum.Topic]{}, err
	}
	return pagination.New(items, page, q.pageSize, total), nil
}

// BranchTopics returns the branch's topics: sticky first, then
// announcements, then by descending weight and recency. With paged=false the
// whole branch comes back as a single page whose size equals the total
// count. Fails with forum.ErrNotFound if the branch does not exist; the
// existence probe runs first so the common miss costs one query, not two.
func (q *Queries) BranchTopics(ctx context.Context, branchID uuid.UUID, page int, paged bool) (pagination.Page[forum.Topic], error) {
	exists, err := q.store.BranchExists(ctx, branchID)
	if err != nil {
		return pagination.Page[forum.Topic]{}, err
	}
	if !exists {
		return pagination.Page[forum.Topic]{}, fmt.Errorf("branch %s: %w", branchID, forum.ErrNotFound)
	}

	if !paged {
		items, total, err := q.store.BranchTopics(ctx, branchID, 0, 0)
		if err != nil {
			return pagination.Page[forum.Topic]{}, err
		}
		return pagination.New(items, 1, total, total), nil
	}

	items, total, err := q.store.BranchTopics(ctx, branchID, q.pageSize, pagination.Offset(page, q.pageSize))
	if err != nil {
		return pagination.Page[forum.Topic]{}, err
	}
	return pagination.New(items, page, q.pageSize, total), nil
}

// TopicPosts returns one page of a topic's posts, oldest first. Fails with
// forum.ErrNotFound if the topic does not exist.
func (q *Queries) TopicPosts(ctx context.Context, topicID uuid.UUID, page int) (pagination.Page[forum.Post], error) {
	if _, err := q.store.GetTopic(ctx, topicID); err != nil {
		return pagination.Page[forum.Post]{}, err
	}
	items, total, err := q.store.TopicPosts(ctx, topicID, q.pageSize, pagination.Offset(page, q.pageSize))
	if err != nil {
		return pagination.Page[forum.Post]{}, err
	}
	return pagination.New(items, page, q.pageSize, total), nil
}
