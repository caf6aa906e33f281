package security

import (
	"context"

	"github.com/google/uuid"
)

// Permission names a right a grantee holds on a target object.
type Permission string

// Administer allows full control over the target: edit, move, delete.
const Administer Permission = "administer"

// Role names a group of principals granted rights collectively.
type Role string

// TargetKind identifies the entity type an ACL entry is attached to.
type TargetKind string

const (
	TargetBranch TargetKind = "branch"
	TargetTopic  TargetKind = "topic"
	TargetPost   TargetKind = "post"
)

// Target is the content object an ACL entry applies to.
type Target struct {
	Kind TargetKind
	ID   uuid.UUID
}

func BranchTarget(id uuid.UUID) Target { return Target{Kind: TargetBranch, ID: id} }
func TopicTarget(id uuid.UUID) Target  { return Target{Kind: TargetTopic, ID: id} }
func PostTarget(id uuid.UUID) Target   { return Target{Kind: TargetPost, ID: id} }

// Grantee is either a concrete principal or a role; exactly one side is set.
type Grantee struct {
	PrincipalID uuid.UUID
	Role        Role
}

// Grant is a stored permission of a grantee on a target object.
type Grant struct {
	Grantee    Grantee
	Permission Permission
	Target     Target
}

// Provider is the external authorization subsystem. Implementations must make
// Apply an idempotent upsert so the reconciliation sweep can replay grants
// after a partial failure.
type Provider interface {
	// Apply persists the grants, ignoring ones that already exist.
	Apply(ctx context.Context, grants []Grant) error

	// RevokeAll removes every ACL entry attached to the target.
	RevokeAll(ctx context.Context, target Target) error

	// GrantsOn returns all entries currently attached to the target.
	GrantsOn(ctx context.Context, target Target) ([]Grant, error)
}

// Builder accumulates permissions, grantees and targets and emits their cross
// product. Typical use:
//
//	grants := security.NewGrant().
//	    Administer().
//	    To(actor).
//	    Role(adminRole).
//	    On(security.TopicTarget(topic.ID)).
//	    On(security.PostTarget(post.ID)).
//	    Build()
type Builder struct {
	permissions []Permission
	grantees    []Grantee
	targets     []Target
}

// NewGrant starts an empty grant builder.
func NewGrant() *Builder {
	return &Builder{}
}

// Administer adds the administer permission.
func (b *Builder) Administer() *Builder {
	return b.Permission(Administer)
}

// Permission adds an arbitrary permission.
func (b *Builder) Permission(p Permission) *Builder {
	b.permissions = append(b.permissions, p)
	return b
}

// To adds a principal grantee.
func (b *Builder) To(p Principal) *Builder {
	b.grantees = append(b.grantees, Grantee{PrincipalID: p.ID})
	return b
}

// Role adds a role grantee. Empty roles are ignored.
func (b *Builder) Role(r Role) *Builder {
	if r != "" {
		b.grantees = append(b.grantees, Grantee{Role: r})
	}
	return b
}

// On adds a target object.
func (b *Builder) On(t Target) *Builder {
	b.targets = append(b.targets, t)
	return b
}

// Build emits one grant per (grantee, permission, target) combination, in
// deterministic order.
func (b *Builder) Build() []Grant {
	grants := make([]Grant, 0, len(b.grantees)*len(b.permissions)*len(b.targets))
	for _, t := range b.targets {
		for _, g := range b.grantees {
			for _, p := range b.permissions {
				grants = append(grants, Grant{Grantee: g, Permission: p, Target: t})
			}
		}
	}
	return grants
}
