package topics_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/security"
	"github.com/dmitrymomot/agora/topics"
)

func TestGrantPolicy_TopicCreated(t *testing.T) {
	t.Parallel()

	t.Run("starter and admin role on topic and first post", func(t *testing.T) {
		t.Parallel()

		policy := topics.GrantPolicy{AdminRole: adminRole}
		starter := newActor()
		topic := &forum.Topic{ID: uuid.New(), FirstPostID: uuid.New()}

		entries := policy.TopicCreated(starter, topic)
		require.Len(t, entries, 4)

		var grants []security.Grant
		for _, e := range entries {
			require.Equal(t, security.OpGrant, e.Op)
			grants = append(grants, e.Grant)
		}

		for _, target := range []security.Target{
			security.TopicTarget(topic.ID),
			security.PostTarget(topic.FirstPostID),
		} {
			require.Contains(t, grants, security.Grant{
				Grantee:    security.Grantee{PrincipalID: starter.ID},
				Permission: security.Administer,
				Target:     target,
			})
			require.Contains(t, grants, security.Grant{
				Grantee:    security.Grantee{Role: adminRole},
				Permission: security.Administer,
				Target:     target,
			})
		}
	})

	t.Run("empty admin role grants to starter only", func(t *testing.T) {
		t.Parallel()

		policy := topics.GrantPolicy{}
		starter := newActor()
		topic := &forum.Topic{ID: uuid.New(), FirstPostID: uuid.New()}

		entries := policy.TopicCreated(starter, topic)
		require.Len(t, entries, 2)
		for _, e := range entries {
			require.Equal(t, starter.ID, e.Grant.Grantee.PrincipalID)
		}
	})
}

func TestGrantPolicy_Replied(t *testing.T) {
	t.Parallel()

	policy := topics.GrantPolicy{AdminRole: adminRole}
	author := newActor()
	post := &forum.Post{ID: uuid.New(), TopicID: uuid.New()}

	entries := policy.Replied(author, post)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, security.OpGrant, e.Op)
		require.Equal(t, security.PostTarget(post.ID), e.Grant.Target)
	}
}

func TestGrantPolicy_TopicDeleted(t *testing.T) {
	t.Parallel()

	policy := topics.GrantPolicy{AdminRole: adminRole}
	topic := &forum.Topic{ID: uuid.New()}
	postIDs := []uuid.UUID{uuid.New(), uuid.New()}

	entries := policy.TopicDeleted(topic, postIDs)
	require.Len(t, entries, 3)

	require.Equal(t, security.OpRevokeAll, entries[0].Op)
	require.Equal(t, security.TopicTarget(topic.ID), entries[0].Grant.Target)
	for i, id := range postIDs {
		require.Equal(t, security.OpRevokeAll, entries[i+1].Op)
		require.Equal(t, security.PostTarget(id), entries[i+1].Grant.Target)
	}
}

func TestGrantPolicy_TopicMoved(t *testing.T) {
	t.Parallel()

	policy := topics.GrantPolicy{AdminRole: adminRole}
	require.Empty(t, policy.TopicMoved(&forum.Topic{ID: uuid.New()}, uuid.New()))
}
