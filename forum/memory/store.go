// Package memory is an in-memory content store and ACL provider used in
// tests. It implements the same contracts as the Postgres store, including
// transactional rollback: mutations inside a failed InTx are discarded.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/sections"
	"github.com/dmitrymomot/agora/security"
	"github.com/dmitrymomot/agora/topics"
)

// Store holds every entity by value so transactions can snapshot and restore
// the whole state cheaply.
type Store struct {
	mu       sync.Mutex
	sections map[uuid.UUID]forum.Section
	branches map[uuid.UUID]forum.Branch
	topics   map[uuid.UUID]forum.Topic
	posts    map[uuid.UUID]forum.Post
	grants   []security.Grant
	outbox   []security.OutboxEntry

	// FailEnqueueACL makes the next EnqueueACL inside a transaction fail,
	// for exercising rollback paths.
	FailEnqueueACL bool

	// FailApply makes the ACL provider reject Apply and RevokeAll, for
	// exercising the reconciliation sweep.
	FailApply bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		sections: make(map[uuid.UUID]forum.Section),
		branches: make(map[uuid.UUID]forum.Branch),
		topics:   make(map[uuid.UUID]forum.Topic),
		posts:    make(map[uuid.UUID]forum.Post),
	}
}

// --- seed helpers ---

// SeedSection adds a section and returns it.
func (s *Store) SeedSection(name string, position int) forum.Section {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec := forum.Section{ID: uuid.New(), Name: name, Position: position}
	s.sections[sec.ID] = sec
	return sec
}

// SeedBranch adds a branch to a section and returns it.
func (s *Store) SeedBranch(sectionID uuid.UUID, name string, position int) forum.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := forum.Branch{ID: uuid.New(), SectionID: sectionID, Name: name, Position: position}
	s.branches[b.ID] = b
	return b
}

// SeedTopic inserts a topic with its posts directly, maintaining the
// denormalized counters, for query tests that need full control over
// weights and timestamps.
func (s *Store) SeedTopic(topic forum.Topic, posts ...forum.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic.PostCount = len(posts)
	if len(posts) > 0 {
		topic.FirstPostID = posts[0].ID
		topic.LastPostAt = posts[len(posts)-1].CreatedAt
	}
	s.topics[topic.ID] = topic
	for _, p := range posts {
		s.posts[p.ID] = p
	}

	b := s.branches[topic.BranchID]
	b.TopicCount++
	s.branches[topic.BranchID] = b
}

// --- topics.Store ---

func (s *Store) InTx(ctx context.Context, fn func(tx topics.StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapBranches := maps.Clone(s.branches)
	snapTopics := maps.Clone(s.topics)
	snapPosts := maps.Clone(s.posts)
	snapOutbox := slices.Clone(s.outbox)

	if err := fn(&storeTx{s}); err != nil {
		s.branches = snapBranches
		s.topics = snapTopics
		s.posts = snapPosts
		s.outbox = snapOutbox
		return err
	}
	return nil
}

func (s *Store) BranchExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.branches[id]
	return ok, nil
}

func (s *Store) GetBranch(_ context.Context, id uuid.UUID) (*forum.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.branches[id]
	if !ok {
		return nil, fmt.Errorf("branch %s: %w", id, forum.ErrNotFound)
	}
	return &b, nil
}

func (s *Store) GetTopic(_ context.Context, id uuid.UUID) (*forum.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.topics[id]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", id, forum.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) GetPost(_ context.Context, id uuid.UUID) (*forum.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, forum.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) TopicPostIDs(_ context.Context, topicID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.topicPosts(topicID)
	ids := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *Store) RecentTopics(_ context.Context, since time.Time, limit, offset int) ([]forum.Topic, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []forum.Topic
	for _, t := range s.topics {
		if t.LastPostAt.After(since) {
			matched = append(matched, t)
		}
	}
	sortByActivity(matched)
	return window(matched, limit, offset), len(matched), nil
}

func (s *Store) UnansweredTopics(_ context.Context, since time.Time, limit, offset int) ([]forum.Topic, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []forum.Topic
	for _, t := range s.topics {
		if t.PostCount == 1 && t.LastPostAt.After(since) {
			matched = append(matched, t)
		}
	}
	sortByActivity(matched)
	return window(matched, limit, offset), len(matched), nil
}

func (s *Store) BranchTopics(_ context.Context, branchID uuid.UUID, limit, offset int) ([]forum.Topic, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []forum.Topic
	for _, t := range s.topics {
		if t.BranchID == branchID {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Sticky != b.Sticky {
			return a.Sticky
		}
		if a.Announcement != b.Announcement {
			return a.Announcement
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if !a.LastPostAt.Equal(b.LastPostAt) {
			return a.LastPostAt.After(b.LastPostAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return window(matched, limit, offset), len(matched), nil
}

func (s *Store) TopicPosts(_ context.Context, topicID uuid.UUID, limit, offset int) ([]forum.Post, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.topicPosts(topicID)
	return window(posts, limit, offset), len(posts), nil
}

// topicPosts returns a topic's posts oldest first. Caller holds the lock.
func (s *Store) topicPosts(topicID uuid.UUID) []forum.Post {
	var posts []forum.Post
	for _, p := range s.posts {
		if p.TopicID == topicID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		}
		return posts[i].ID.String() < posts[j].ID.String()
	})
	return posts
}

func sortByActivity(ts []forum.Topic) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].LastPostAt.Equal(ts[j].LastPostAt) {
			return ts[i].LastPostAt.After(ts[j].LastPostAt)
		}
		return ts[i].ID.String() < ts[j].ID.String()
	})
}

// window applies limit/offset; a non-positive limit means "no limit".
func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

var (
	_ topics.Store         = (*Store)(nil)
	_ sections.Store       = (*Store)(nil)
	_ security.Provider    = (*Store)(nil)
	_ security.OutboxStore = (*Store)(nil)
)
