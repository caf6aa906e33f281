// Package forum holds the content entities of the discussion board:
// sections contain branches, branches contain topics, topics contain posts.
//
// Entities reference each other by id only. Ownership lives in foreign-key
// style fields (Topic.BranchID, Post.TopicID), never in object back-pointers,
// so the graph stays acyclic and entities can be copied freely. Denormalized
// counters (Branch.TopicCount, Topic.PostCount) are maintained by the content
// store inside the same transaction as the mutation that changes them.
package forum

import (
	"time"

	"github.com/google/uuid"
)

// Section is a top-level grouping of branches. The engine never mutates
// sections; they exist for catalog queries only.
type Section struct {
	ID       uuid.UUID `db:"id"`
	Name     string    `db:"name"`
	Position int       `db:"position"`

	// Branches is populated by catalog queries, ordered by position.
	Branches []Branch `db:"-"`
}

// Branch is a forum sub-board. TopicCount always equals the number of topics
// whose BranchID points at this branch.
type Branch struct {
	ID          uuid.UUID `db:"id"`
	SectionID   uuid.UUID `db:"section_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Position    int       `db:"position"`
	TopicCount  int       `db:"topic_count"`
}

// Topic is a discussion thread. The first post is created together with the
// topic and is edited together with the topic's title and flags as one unit;
// all later posts are append-only.
type Topic struct {
	ID              uuid.UUID `db:"id"`
	BranchID        uuid.UUID `db:"branch_id"`
	Title           string    `db:"title"`
	StarterID       uuid.UUID `db:"starter_id"`
	FirstPostID     uuid.UUID `db:"first_post_id"`
	Weight          int       `db:"weight"`
	Sticky          bool      `db:"sticky"`
	Announcement    bool      `db:"announcement"`
	NotifyOnAnswers bool      `db:"notify_on_answers"`
	PostCount       int       `db:"post_count"`
	CreatedAt       time.Time `db:"created_at"`
	LastPostAt      time.Time `db:"last_post_at"`
}

// Unanswered reports whether the topic still has only its first post.
func (t *Topic) Unanswered() bool {
	return t.PostCount == 1
}

// Post is a single message within a topic.
type Post struct {
	ID        uuid.UUID `db:"id"`
	TopicID   uuid.UUID `db:"topic_id"`
	AuthorID  uuid.UUID `db:"author_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UpdateTopicParams describes an in-place topic edit. Title and Body are
// always applied; the optional fields default to "leave unchanged" when nil,
// which collapses the minimal and full update variants into one call.
type UpdateTopicParams struct {
	Title           string
	Body            string
	Weight          *int
	Sticky          *bool
	Announcement    *bool
	NotifyOnAnswers *bool
}

// ApplyTo mutates the topic's title and flags according to the params.
// The first post's body is the caller's concern; it is not reachable from
// the topic entity.
func (p UpdateTopicParams) ApplyTo(t *Topic) {
	t.Title = p.Title
	if p.Weight != nil {
		t.Weight = *p.Weight
	}
	if p.Sticky != nil {
		t.Sticky = *p.Sticky
	}
	if p.Announcement != nil {
		t.Announcement = *p.Announcement
	}
	if p.NotifyOnAnswers != nil {
		t.NotifyOnAnswers = *p.NotifyOnAnswers
	}
}
