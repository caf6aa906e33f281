package topics

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/security"
)

// GrantPolicy maps lifecycle events to the ACL changes they require. It is
// pure: same event, same output. The engine records its output in the ACL
// outbox inside the content transaction.
type GrantPolicy struct {
	// AdminRole receives administrative rights alongside the acting
	// principal on every new topic and post.
	AdminRole security.Role
}

// TopicCreated grants administration to the starter and the admin role on
// both the new topic and its first post.
func (p GrantPolicy) TopicCreated(starter security.Principal, topic *forum.Topic) []security.OutboxEntry {
	grants := security.NewGrant().
		Administer().
		To(starter).
		Role(p.AdminRole).
		On(security.TopicTarget(topic.ID)).
		On(security.PostTarget(topic.FirstPostID)).
		Build()
	return security.GrantEntries(grants)
}

// Replied grants administration on the new post only. The topic's grants are
// set once, at creation, and later answers never touch them.
func (p GrantPolicy) Replied(author security.Principal, post *forum.Post) []security.OutboxEntry {
	grants := security.NewGrant().
		Administer().
		To(author).
		Role(p.AdminRole).
		On(security.PostTarget(post.ID)).
		Build()
	return security.GrantEntries(grants)
}

// TopicDeleted revokes every entry on the topic and on each of its posts.
func (p GrantPolicy) TopicDeleted(topic *forum.Topic, postIDs []uuid.UUID) []security.OutboxEntry {
	entries := make([]security.OutboxEntry, 0, len(postIDs)+1)
	entries = append(entries, security.RevokeAllEntry(security.TopicTarget(topic.ID)))
	for _, id := range postIDs {
		entries = append(entries, security.RevokeAllEntry(security.PostTarget(id)))
	}
	return entries
}

// TopicMoved requires no ACL change: moving reassigns branch ownership, not
// authorship. Kept explicit so the policy covers every lifecycle event.
func (p GrantPolicy) TopicMoved(topic *forum.Topic, toBranchID uuid.UUID) []security.OutboxEntry {
	return nil
}
