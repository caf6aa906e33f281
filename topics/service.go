// Package topics implements the topic lifecycle and query engines: creating,
// answering, editing, moving and deleting discussion topics while keeping the
// branch counters and the per-entity ACL grants consistent with the content.
package topics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/pkg/sanitizer"
	"github.com/dmitrymomot/agora/security"
)

// Service orchestrates topic lifecycle operations. It holds no mutable state
// of its own; all shared state lives in the content store and the ACL store,
// so a single Service is safe for concurrent use by many request handlers.
//
// Every mutation runs in one content-store transaction that also records the
// operation's ACL changes in the outbox. The ACL provider is only touched
// after that transaction commits: a crash in between leaves orphaned content
// with pending outbox rows for the sweep, never dangling grants.
type Service struct {
	store  Store
	acl    *security.Synchronizer
	policy GrantPolicy
	log    *slog.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger. Defaults to a no-op logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides entity id generation, for tests.
func WithIDGenerator(newID func() uuid.UUID) ServiceOption {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService creates the lifecycle engine.
func NewService(store Store, acl *security.Synchronizer, policy GrantPolicy, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		acl:    acl,
		policy: policy,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTopic creates a topic with its first post in the given branch,
// authored and started by the actor, and grants administration on both new
// entities to the actor and the admin role.
func (s *Service) CreateTopic(ctx context.Context, actor security.Principal, title, body string, branchID uuid.UUID, notifyOnAnswers bool) (*forum.Topic, error) {
	if actor.IsZero() {
		return nil, forum.ErrUnauthenticated
	}

	exists, err := s.store.BranchExists(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("branch %s: %w", branchID, forum.ErrNotFound)
	}

	now := s.now()
	topic := &forum.Topic{
		ID:              s.newID(),
		BranchID:        branchID,
		Title:           sanitizer.Title(title),
		StarterID:       actor.ID,
		NotifyOnAnswers: notifyOnAnswers,
		PostCount:       1,
		CreatedAt:       now,
		LastPostAt:      now,
	}
	firstPost := &forum.Post{
		ID:        s.newID(),
		TopicID:   topic.ID,
		AuthorID:  actor.ID,
		Body:      sanitizer.PostBody(body),
		CreatedAt: now,
		UpdatedAt: now,
	}
	topic.FirstPostID = firstPost.ID

	entries := s.policy.TopicCreated(actor, topic)

	err = s.store.InTx(ctx, func(tx StoreTx) error {
		if err := tx.CreateTopic(ctx, topic, firstPost); err != nil {
			return err
		}
		return tx.EnqueueACL(ctx, entries)
	})
	if err != nil {
		return nil, err
	}

	s.acl.ApplyNow(ctx, entries)
	s.log.InfoContext(ctx, "topic created",
		slog.String("topic_id", topic.ID.String()),
		slog.String("branch_id", branchID.String()),
	)

	return topic, nil
}

// Reply appends a post authored by the actor to the topic and grants
// administration on the new post only. The branch's topic count is untouched.
func (s *Service) Reply(ctx context.Context, actor security.Principal, topicID uuid.UUID, body string) (*forum.Post, error) {
	if actor.IsZero() {
		return nil, forum.ErrUnauthenticated
	}

	topic, err := s.store.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &forum.Post{
		ID:        s.newID(),
		TopicID:   topic.ID,
		AuthorID:  actor.ID,
		Body:      sanitizer.PostBody(body),
		CreatedAt: now,
		UpdatedAt: now,
	}

	entries := s.policy.Replied(actor, post)

	err = s.store.InTx(ctx, func(tx StoreTx) error {
		if err := tx.AddPost(ctx, post); err != nil {
			return err
		}
		return tx.EnqueueACL(ctx, entries)
	})
	if err != nil {
		return nil, err
	}

	s.acl.ApplyNow(ctx, entries)
	s.log.InfoContext(ctx, "topic answered",
		slog.String("topic_id", topic.ID.String()),
		slog.String("post_id", post.ID.String()),
	)

	return post, nil
}

// UpdateTopic edits the topic's title and flags together with its first
// post's body as one unit. Nil optional fields stay unchanged. No ACL change.
func (s *Service) UpdateTopic(ctx context.Context, actor security.Principal, topicID uuid.UUID, params forum.UpdateTopicParams) error {
	if actor.IsZero() {
		return forum.ErrUnauthenticated
	}

	topic, err := s.store.GetTopic(ctx, topicID)
	if err != nil {
		return err
	}
	firstPost, err := s.store.GetPost(ctx, topic.FirstPostID)
	if err != nil {
		return err
	}

	params.Title = sanitizer.Title(params.Title)
	params.ApplyTo(topic)
	firstPost.Body = sanitizer.PostBody(params.Body)
	firstPost.UpdatedAt = s.now()

	return s.store.InTx(ctx, func(tx StoreTx) error {
		if err := tx.UpdateTopic(ctx, topic); err != nil {
			return err
		}
		return tx.UpdatePost(ctx, firstPost)
	})
}

// MoveTopic reassigns the topic to the target branch, shifting the topic
// counts of both branches. Authorship grants stay where they are: branch
// ownership changes, authorship does not.
func (s *Service) MoveTopic(ctx context.Context, actor security.Principal, topicID, targetBranchID uuid.UUID) error {
	if actor.IsZero() {
		return forum.ErrUnauthenticated
	}

	topic, err := s.store.GetTopic(ctx, topicID)
	if err != nil {
		return err
	}
	exists, err := s.store.BranchExists(ctx, targetBranchID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("branch %s: %w", targetBranchID, forum.ErrNotFound)
	}
	if topic.BranchID == targetBranchID {
		return nil
	}

	err = s.store.InTx(ctx, func(tx StoreTx) error {
		return tx.MoveTopic(ctx, topicID, topic.BranchID, targetBranchID)
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "topic moved",
		slog.String("topic_id", topicID.String()),
		slog.String("from_branch_id", topic.BranchID.String()),
		slog.String("to_branch_id", targetBranchID.String()),
	)

	return nil
}

// DeleteTopic removes the topic and its posts, decrements the owning
// branch's topic count and revokes every ACL entry scoped to the topic and
// its posts. Returns the branch the topic was removed from.
func (s *Service) DeleteTopic(ctx context.Context, actor security.Principal, topicID uuid.UUID) (*forum.Branch, error) {
	if actor.IsZero() {
		return nil, forum.ErrUnauthenticated
	}

	topic, err := s.store.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	branch, err := s.store.GetBranch(ctx, topic.BranchID)
	if err != nil {
		return nil, err
	}
	postIDs, err := s.store.TopicPostIDs(ctx, topicID)
	if err != nil {
		return nil, err
	}

	entries := s.policy.TopicDeleted(topic, postIDs)

	err = s.store.InTx(ctx, func(tx StoreTx) error {
		if err := tx.DeleteTopic(ctx, topicID, branch.ID); err != nil {
			return err
		}
		return tx.EnqueueACL(ctx, entries)
	})
	if err != nil {
		return nil, err
	}

	s.acl.ApplyNow(ctx, entries)
	s.log.InfoContext(ctx, "topic deleted",
		slog.String("topic_id", topicID.String()),
		slog.String("branch_id", branch.ID.String()),
	)

	branch.TopicCount--
	return branch, nil
}
