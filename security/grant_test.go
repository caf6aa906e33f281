package security_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agora/security"
)

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	t.Run("cross product in deterministic order", func(t *testing.T) {
		t.Parallel()

		actor := security.Principal{ID: uuid.New()}
		topicTarget := security.TopicTarget(uuid.New())
		postTarget := security.PostTarget(uuid.New())

		grants := security.NewGrant().
			Administer().
			To(actor).
			Role("admins").
			On(topicTarget).
			On(postTarget).
			Build()

		require.Equal(t, []security.Grant{
			{Grantee: security.Grantee{PrincipalID: actor.ID}, Permission: security.Administer, Target: topicTarget},
			{Grantee: security.Grantee{Role: "admins"}, Permission: security.Administer, Target: topicTarget},
			{Grantee: security.Grantee{PrincipalID: actor.ID}, Permission: security.Administer, Target: postTarget},
			{Grantee: security.Grantee{Role: "admins"}, Permission: security.Administer, Target: postTarget},
		}, grants)
	})

	t.Run("empty role is ignored", func(t *testing.T) {
		t.Parallel()

		actor := security.Principal{ID: uuid.New()}
		grants := security.NewGrant().
			Administer().
			To(actor).
			Role("").
			On(security.TopicTarget(uuid.New())).
			Build()

		require.Len(t, grants, 1)
		require.Equal(t, actor.ID, grants[0].Grantee.PrincipalID)
	})

	t.Run("no targets yields no grants", func(t *testing.T) {
		t.Parallel()

		grants := security.NewGrant().
			Administer().
			To(security.Principal{ID: uuid.New()}).
			Build()
		require.Empty(t, grants)
	})
}

func TestOutboxEntries(t *testing.T) {
	t.Parallel()

	t.Run("grant entries carry unique pending ids", func(t *testing.T) {
		t.Parallel()

		grants := security.NewGrant().
			Administer().
			To(security.Principal{ID: uuid.New()}).
			On(security.TopicTarget(uuid.New())).
			On(security.PostTarget(uuid.New())).
			Build()

		entries := security.GrantEntries(grants)
		require.Len(t, entries, 2)
		require.NotEqual(t, entries[0].ID, entries[1].ID)
		for i, e := range entries {
			require.Equal(t, security.OpGrant, e.Op)
			require.Equal(t, grants[i], e.Grant)
			require.Nil(t, e.AppliedAt)
		}
	})

	t.Run("revoke entry carries only the target", func(t *testing.T) {
		t.Parallel()

		target := security.PostTarget(uuid.New())
		e := security.RevokeAllEntry(target)
		require.Equal(t, security.OpRevokeAll, e.Op)
		require.Equal(t, target, e.Grant.Target)
		require.Empty(t, e.Grant.Permission)
	})
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		p := security.Principal{ID: uuid.New(), Username: "alice"}
		ctx := security.ContextWithPrincipal(context.Background(), p)

		got, ok := security.PrincipalFromContext(ctx)
		require.True(t, ok)
		require.Equal(t, p, got)
	})

	t.Run("absent principal", func(t *testing.T) {
		t.Parallel()

		_, ok := security.PrincipalFromContext(context.Background())
		require.False(t, ok)
	})

	t.Run("zero principal is treated as absent", func(t *testing.T) {
		t.Parallel()

		ctx := security.ContextWithPrincipal(context.Background(), security.Principal{})
		_, ok := security.PrincipalFromContext(ctx)
		require.False(t, ok)
	})

	t.Run("log extractor", func(t *testing.T) {
		t.Parallel()

		p := security.Principal{ID: uuid.New()}
		ctx := security.ContextWithPrincipal(context.Background(), p)

		attr, ok := security.PrincipalLogExtractor(ctx)
		require.True(t, ok)
		require.Equal(t, "principal_id", attr.Key)
		require.Equal(t, p.ID.String(), attr.Value.String())
	})
}
