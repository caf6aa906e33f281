package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/agora/security"
)

// aclRow maps nullable grantee columns; a grant row has at least one of
// principal_id and role set, an outbox revoke row may have neither.
type aclRow struct {
	ID          uuid.UUID  `db:"id"`
	PrincipalID *uuid.UUID `db:"principal_id"`
	Role        *string    `db:"role"`
	Permission  *string    `db:"permission"`
	TargetKind  string     `db:"target_kind"`
	TargetID    uuid.UUID  `db:"target_id"`
}

func (r aclRow) grant() security.Grant {
	g := security.Grant{
		Target: security.Target{Kind: security.TargetKind(r.TargetKind), ID: r.TargetID},
	}
	if r.PrincipalID != nil {
		g.Grantee.PrincipalID = *r.PrincipalID
	}
	if r.Role != nil {
		g.Grantee.Role = security.Role(*r.Role)
	}
	if r.Permission != nil {
		g.Permission = security.Permission(*r.Permission)
	}
	return g
}

// Apply upserts the grants. Existing identical entries are left alone, which
// makes replaying an outbox batch safe.
func (s *Store) Apply(ctx context.Context, grants []security.Grant) error {
	for _, g := range grants {
		var principalID *uuid.UUID
		if g.Grantee.PrincipalID != uuid.Nil {
			principalID = &g.Grantee.PrincipalID
		}
		var role *string
		if g.Grantee.Role != "" {
			r := string(g.Grantee.Role)
			role = &r
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO acl_entries (id, principal_id, role, permission, target_kind, target_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (principal_id, role, permission, target_kind, target_id) DO NOTHING`,
			uuid.New(), principalID, role, string(g.Permission),
			string(g.Target.Kind), g.Target.ID,
		); err != nil {
			return err
		}
	}
	return nil
}

// RevokeAll removes every ACL entry attached to the target.
func (s *Store) RevokeAll(ctx context.Context, target security.Target) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM acl_entries WHERE target_kind = $1 AND target_id = $2`,
		string(target.Kind), target.ID)
	return err
}

// GrantsOn returns all entries attached to the target.
func (s *Store) GrantsOn(ctx context.Context, target security.Target) ([]security.Grant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, principal_id, role, permission, target_kind, target_id
		 FROM acl_entries
		 WHERE target_kind = $1 AND target_id = $2
		 ORDER BY created_at, id`,
		string(target.Kind), target.ID)
	if err != nil {
		return nil, err
	}
	recs, err := pgx.CollectRows(rows, pgx.RowToStructByName[aclRow])
	if err != nil {
		return nil, err
	}
	grants := make([]security.Grant, 0, len(recs))
	for _, r := range recs {
		grants = append(grants, r.grant())
	}
	return grants, nil
}

type outboxRow struct {
	aclRow
	Op        string     `db:"op"`
	CreatedAt time.Time  `db:"created_at"`
	AppliedAt *time.Time `db:"applied_at"`
}

// PendingACL returns up to limit unapplied outbox entries, oldest first.
func (s *Store) PendingACL(ctx context.Context, limit int) ([]security.OutboxEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, op, principal_id, role, permission, target_kind, target_id,
		        created_at, applied_at
		 FROM acl_outbox
		 WHERE applied_at IS NULL
		 ORDER BY created_at, id
		 LIMIT NULLIF(GREATEST($1, 0), 0)`,
		limit)
	if err != nil {
		return nil, err
	}
	recs, err := pgx.CollectRows(rows, pgx.RowToStructByName[outboxRow])
	if err != nil {
		return nil, err
	}
	entries := make([]security.OutboxEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, security.OutboxEntry{
			ID:        r.ID,
			Op:        security.OutboxOp(r.Op),
			Grant:     r.grant(),
			CreatedAt: r.CreatedAt,
			AppliedAt: r.AppliedAt,
		})
	}
	return entries, nil
}

// MarkACLApplied stamps the entries as applied.
func (s *Store) MarkACLApplied(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE acl_outbox SET applied_at = NOW() WHERE id = ANY($1) AND applied_at IS NULL`,
		ids)
	return err
}
