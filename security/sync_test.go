package security_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agora/security"
)

var errProviderDown = errors.New("provider down")

// fakeACL is an in-memory provider and outbox with failure switches.
type fakeACL struct {
	grants  []security.Grant
	revoked []security.Target
	outbox  []security.OutboxEntry

	failApply  bool
	failRevoke bool
}

func (f *fakeACL) Apply(_ context.Context, grants []security.Grant) error {
	if f.failApply {
		return errProviderDown
	}
	f.grants = append(f.grants, grants...)
	return nil
}

func (f *fakeACL) RevokeAll(_ context.Context, target security.Target) error {
	if f.failRevoke {
		return errProviderDown
	}
	f.revoked = append(f.revoked, target)
	return nil
}

func (f *fakeACL) GrantsOn(_ context.Context, target security.Target) ([]security.Grant, error) {
	var out []security.Grant
	for _, g := range f.grants {
		if g.Target == target {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeACL) PendingACL(_ context.Context, limit int) ([]security.OutboxEntry, error) {
	var pending []security.OutboxEntry
	for _, e := range f.outbox {
		if e.AppliedAt == nil {
			pending = append(pending, e)
		}
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (f *fakeACL) MarkACLApplied(_ context.Context, ids []uuid.UUID) error {
	now := time.Now()
	for i := range f.outbox {
		for _, id := range ids {
			if f.outbox[i].ID == id {
				f.outbox[i].AppliedAt = &now
			}
		}
	}
	return nil
}

func (f *fakeACL) pendingCount() int {
	n := 0
	for _, e := range f.outbox {
		if e.AppliedAt == nil {
			n++
		}
	}
	return n
}

func grantEntry() security.OutboxEntry {
	return security.GrantEntry(security.Grant{
		Grantee:    security.Grantee{PrincipalID: uuid.New()},
		Permission: security.Administer,
		Target:     security.TopicTarget(uuid.New()),
	})
}

func TestSynchronizer_ApplyNow(t *testing.T) {
	t.Parallel()

	t.Run("applies grants and marks entries", func(t *testing.T) {
		t.Parallel()

		acl := &fakeACL{}
		sync := security.NewSynchronizer(acl, acl, nil)

		entries := []security.OutboxEntry{grantEntry(), grantEntry()}
		acl.outbox = append(acl.outbox, entries...)

		sync.ApplyNow(context.Background(), entries)

		require.Len(t, acl.grants, 2)
		require.Zero(t, acl.pendingCount())
	})

	t.Run("provider failure leaves entries pending", func(t *testing.T) {
		t.Parallel()

		acl := &fakeACL{failApply: true}
		sync := security.NewSynchronizer(acl, acl, nil)

		entries := []security.OutboxEntry{grantEntry()}
		acl.outbox = append(acl.outbox, entries...)

		sync.ApplyNow(context.Background(), entries)

		require.Empty(t, acl.grants)
		require.Equal(t, 1, acl.pendingCount())
	})

	t.Run("no entries is a no-op", func(t *testing.T) {
		t.Parallel()

		sync := security.NewSynchronizer(&fakeACL{}, &fakeACL{}, nil)
		sync.ApplyNow(context.Background(), nil)
	})
}

func TestSynchronizer_Sweep(t *testing.T) {
	t.Parallel()

	t.Run("replays all pending entries", func(t *testing.T) {
		t.Parallel()

		acl := &fakeACL{}
		sync := security.NewSynchronizer(acl, acl, nil)

		target := security.PostTarget(uuid.New())
		acl.outbox = append(acl.outbox,
			grantEntry(),
			security.RevokeAllEntry(target),
			grantEntry(),
		)

		require.NoError(t, sync.Sweep(context.Background()))
		require.Len(t, acl.grants, 2)
		require.Equal(t, []security.Target{target}, acl.revoked)
		require.Zero(t, acl.pendingCount())
	})

	t.Run("revoke recorded after a grant is applied after it", func(t *testing.T) {
		t.Parallel()

		acl := &fakeACL{}
		sync := security.NewSynchronizer(acl, acl, nil)

		target := security.TopicTarget(uuid.New())
		grant := security.GrantEntry(security.Grant{
			Grantee:    security.Grantee{PrincipalID: uuid.New()},
			Permission: security.Administer,
			Target:     target,
		})
		acl.outbox = append(acl.outbox, grant, security.RevokeAllEntry(target))

		require.NoError(t, sync.Sweep(context.Background()))
		// The grant was applied first, then revoked with the rest of the
		// target's entries.
		require.Len(t, acl.grants, 1)
		require.Equal(t, []security.Target{target}, acl.revoked)
	})

	t.Run("partial failure keeps only the failed suffix pending", func(t *testing.T) {
		t.Parallel()

		acl := &fakeACL{failRevoke: true}
		sync := security.NewSynchronizer(acl, acl, nil)

		revoke := security.RevokeAllEntry(security.TopicTarget(uuid.New()))
		acl.outbox = append(acl.outbox, grantEntry(), revoke)

		err := sync.Sweep(context.Background())
		require.ErrorIs(t, err, security.ErrSweepFailed)
		require.ErrorIs(t, err, errProviderDown)

		// The grant before the failing revoke was applied and marked.
		require.Len(t, acl.grants, 1)
		require.Equal(t, 1, acl.pendingCount())

		acl.failRevoke = false
		require.NoError(t, sync.Sweep(context.Background()))
		require.Zero(t, acl.pendingCount())
		require.Len(t, acl.grants, 1, "already-applied grants are not replayed")
	})

	t.Run("unknown op fails the sweep", func(t *testing.T) {
		t.Parallel()

		acl := &fakeACL{}
		sync := security.NewSynchronizer(acl, acl, nil)

		acl.outbox = append(acl.outbox, security.OutboxEntry{ID: uuid.New(), Op: "bogus"})

		err := sync.Sweep(context.Background())
		require.ErrorIs(t, err, security.ErrUnknownOutboxOp)
	})

	t.Run("empty outbox", func(t *testing.T) {
		t.Parallel()

		acl := &fakeACL{}
		sync := security.NewSynchronizer(acl, acl, nil)
		require.NoError(t, sync.Sweep(context.Background()))
	})
}

func TestReconcileTask(t *testing.T) {
	t.Parallel()

	acl := &fakeACL{}
	sync := security.NewSynchronizer(acl, acl, nil)
	acl.outbox = append(acl.outbox, grantEntry())

	task := security.NewReconcileTask(sync, "*/5 * * * *")
	require.Equal(t, "acl_reconcile", task.Name())
	require.Equal(t, "*/5 * * * *", task.Schedule())

	require.NoError(t, task.Handle(context.Background()))
	require.Zero(t, acl.pendingCount())
}
