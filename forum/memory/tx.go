package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/security"
)

// ErrInjected is returned by the failure-injection hooks.
var ErrInjected = errors.New("memory: injected failure")

// storeTx mutates the store while InTx holds the lock; InTx restores the
// snapshot if any method returns an error.
type storeTx struct {
	s *Store
}

func (tx *storeTx) CreateTopic(_ context.Context, topic *forum.Topic, firstPost *forum.Post) error {
	b, ok := tx.s.branches[topic.BranchID]
	if !ok {
		return fmt.Errorf("branch %s: %w", topic.BranchID, forum.ErrNotFound)
	}

	tx.s.topics[topic.ID] = *topic
	tx.s.posts[firstPost.ID] = *firstPost
	b.TopicCount++
	tx.s.branches[b.ID] = b
	return nil
}

func (tx *storeTx) AddPost(_ context.Context, post *forum.Post) error {
	t, ok := tx.s.topics[post.TopicID]
	if !ok {
		return fmt.Errorf("topic %s: %w", post.TopicID, forum.ErrNotFound)
	}

	tx.s.posts[post.ID] = *post
	t.PostCount++
	t.LastPostAt = post.CreatedAt
	tx.s.topics[t.ID] = t
	return nil
}

func (tx *storeTx) UpdateTopic(_ context.Context, topic *forum.Topic) error {
	if _, ok := tx.s.topics[topic.ID]; !ok {
		return fmt.Errorf("topic %s: %w", topic.ID, forum.ErrNotFound)
	}
	tx.s.topics[topic.ID] = *topic
	return nil
}

func (tx *storeTx) UpdatePost(_ context.Context, post *forum.Post) error {
	if _, ok := tx.s.posts[post.ID]; !ok {
		return fmt.Errorf("post %s: %w", post.ID, forum.ErrNotFound)
	}
	tx.s.posts[post.ID] = *post
	return nil
}

func (tx *storeTx) MoveTopic(_ context.Context, topicID, fromBranchID, toBranchID uuid.UUID) error {
	t, ok := tx.s.topics[topicID]
	if !ok {
		return fmt.Errorf("topic %s: %w", topicID, forum.ErrNotFound)
	}
	from, ok := tx.s.branches[fromBranchID]
	if !ok {
		return fmt.Errorf("branch %s: %w", fromBranchID, forum.ErrNotFound)
	}
	to, ok := tx.s.branches[toBranchID]
	if !ok {
		return fmt.Errorf("branch %s: %w", toBranchID, forum.ErrNotFound)
	}

	t.BranchID = toBranchID
	tx.s.topics[t.ID] = t
	from.TopicCount--
	tx.s.branches[from.ID] = from
	to.TopicCount++
	tx.s.branches[to.ID] = to
	return nil
}

func (tx *storeTx) DeleteTopic(_ context.Context, topicID, branchID uuid.UUID) error {
	if _, ok := tx.s.topics[topicID]; !ok {
		return fmt.Errorf("topic %s: %w", topicID, forum.ErrNotFound)
	}

	delete(tx.s.topics, topicID)
	for id, p := range tx.s.posts {
		if p.TopicID == topicID {
			delete(tx.s.posts, id)
		}
	}

	b, ok := tx.s.branches[branchID]
	if !ok {
		return fmt.Errorf("branch %s: %w", branchID, forum.ErrNotFound)
	}
	b.TopicCount--
	tx.s.branches[b.ID] = b
	return nil
}

func (tx *storeTx) EnqueueACL(_ context.Context, entries []security.OutboxEntry) error {
	if tx.s.FailEnqueueACL {
		return ErrInjected
	}
	now := time.Now()
	for _, e := range entries {
		e.CreatedAt = now
		tx.s.outbox = append(tx.s.outbox, e)
	}
	return nil
}
