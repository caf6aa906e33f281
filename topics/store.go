package topics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/security"
)

// Store is the content-store surface the topic engines consume. Reads return
// entities wrapped around forum.ErrNotFound on a miss; listing queries return
// the page items together with the total match count.
//
// A limit of zero or less on the paged queries means "no limit".
type Store interface {
	// InTx runs fn inside one content-store transaction. Every mutation of a
	// lifecycle operation goes through a single InTx call so the operation
	// commits or rolls back as a whole.
	InTx(ctx context.Context, fn func(tx StoreTx) error) error

	BranchExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetBranch(ctx context.Context, id uuid.UUID) (*forum.Branch, error)
	GetTopic(ctx context.Context, id uuid.UUID) (*forum.Topic, error)
	GetPost(ctx context.Context, id uuid.UUID) (*forum.Post, error)

	// TopicPostIDs returns the ids of all posts of a topic, oldest first.
	TopicPostIDs(ctx context.Context, topicID uuid.UUID) ([]uuid.UUID, error)

	// RecentTopics lists topics with activity after since, newest activity
	// first, ties broken by ascending id.
	RecentTopics(ctx context.Context, since time.Time, limit, offset int) ([]forum.Topic, int, error)

	// UnansweredTopics is RecentTopics filtered to topics that still have
	// only their first post.
	UnansweredTopics(ctx context.Context, since time.Time, limit, offset int) ([]forum.Topic, int, error)

	// BranchTopics lists a branch's topics: sticky first, then announcements,
	// then by descending weight, then by descending last activity, ties
	// broken by ascending id.
	BranchTopics(ctx context.Context, branchID uuid.UUID, limit, offset int) ([]forum.Topic, int, error)

	// TopicPosts lists a topic's posts, oldest first.
	TopicPosts(ctx context.Context, topicID uuid.UUID, limit, offset int) ([]forum.Post, int, error)
}

// StoreTx is the mutation surface available inside a content transaction.
// The denormalized counters travel with the mutation that changes them:
// CreateTopic and DeleteTopic adjust the branch's topic count, AddPost bumps
// the topic's post count and last-activity stamp, MoveTopic shifts the count
// between branches.
type StoreTx interface {
	CreateTopic(ctx context.Context, topic *forum.Topic, firstPost *forum.Post) error
	AddPost(ctx context.Context, post *forum.Post) error
	UpdateTopic(ctx context.Context, topic *forum.Topic) error
	UpdatePost(ctx context.Context, post *forum.Post) error
	MoveTopic(ctx context.Context, topicID, fromBranchID, toBranchID uuid.UUID) error

	// DeleteTopic removes the topic and, by cascade, its posts.
	DeleteTopic(ctx context.Context, topicID, branchID uuid.UUID) error

	// EnqueueACL records intended ACL changes in the same transaction, to be
	// applied after commit and swept on failure.
	EnqueueACL(ctx context.Context, entries []security.OutboxEntry) error
}
