package security

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxOp distinguishes the two replayable ACL side effects.
type OutboxOp string

const (
	OpGrant     OutboxOp = "grant"
	OpRevokeAll OutboxOp = "revoke_all"
)

// OutboxEntry is an intended ACL change recorded inside the content store's
// transaction. For OpGrant the full grant is set; for OpRevokeAll only the
// target matters.
type OutboxEntry struct {
	ID        uuid.UUID
	Op        OutboxOp
	Grant     Grant
	CreatedAt time.Time
	AppliedAt *time.Time
}

// GrantEntry wraps a grant as a pending outbox entry.
func GrantEntry(g Grant) OutboxEntry {
	return OutboxEntry{ID: uuid.New(), Op: OpGrant, Grant: g}
}

// RevokeAllEntry wraps a revoke-everything-on-target as a pending entry.
func RevokeAllEntry(t Target) OutboxEntry {
	return OutboxEntry{ID: uuid.New(), Op: OpRevokeAll, Grant: Grant{Target: t}}
}

// GrantEntries wraps a batch of grants.
func GrantEntries(grants []Grant) []OutboxEntry {
	entries := make([]OutboxEntry, 0, len(grants))
	for _, g := range grants {
		entries = append(entries, GrantEntry(g))
	}
	return entries
}

// OutboxStore reads back pending entries for the reconciliation sweep.
// Writing entries happens through the content store's transaction, not here.
type OutboxStore interface {
	// PendingACL returns up to limit unapplied entries, oldest first.
	PendingACL(ctx context.Context, limit int) ([]OutboxEntry, error)

	// MarkACLApplied stamps the entries as applied.
	MarkACLApplied(ctx context.Context, ids []uuid.UUID) error
}
