// Package security models per-entity access-control grants for forum content
// and keeps the ACL store in step with content mutations.
//
// Content writes and ACL writes live in different resources, so they cannot
// share a transaction. The package closes that gap with a transactional
// outbox: lifecycle operations record their intended grants and revocations
// in the content store's transaction, apply them against the ACL provider
// right after commit, and a scheduled sweep replays anything a crash left
// pending. Grants are idempotent upserts keyed by (grantee, permission,
// target), so replaying is always safe.
package security

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Principal is the authenticated actor on whose behalf an operation executes.
// Lifecycle operations take it as an explicit argument; there is no ambient
// current-user lookup inside the engine.
type Principal struct {
	ID       uuid.UUID
	Username string
}

// IsZero reports whether the principal is unresolved.
func (p Principal) IsZero() bool {
	return p.ID == uuid.Nil
}

type principalCtxKey struct{}

// ContextWithPrincipal stores the resolved principal in the context.
// The transport layer calls this once per request after authentication.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the principal stored by the transport layer,
// if any. Engines do not call this; it exists for callers that bridge
// session state to the explicit principal arguments.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	if !ok || p.IsZero() {
		return Principal{}, false
	}
	return p, true
}

// PrincipalLogExtractor annotates log records with the acting principal's id
// when one is present in the context. Plug it into the logger factory.
func PrincipalLogExtractor(ctx context.Context) (slog.Attr, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.String("principal_id", p.ID.String()), true
}
