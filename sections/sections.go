// Package sections serves the read-only board catalog: sections and the
// branches they contain. The lifecycle engine never mutates these; they are
// administered out of band.
package sections

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agora/forum"
)

// Store is the catalog surface of the content store.
type Store interface {
	// Sections returns all sections ordered by position, each with its
	// branches ordered by position.
	Sections(ctx context.Context) ([]forum.Section, error)

	// GetSection returns one section with its branches, or an error wrapping
	// forum.ErrNotFound.
	GetSection(ctx context.Context, id uuid.UUID) (*forum.Section, error)
}

// Queries exposes the catalog to callers.
type Queries struct {
	store Store
}

// NewQueries creates the catalog query engine.
func NewQueries(store Store) *Queries {
	return &Queries{store: store}
}

// All lists every section with its branches.
func (q *Queries) All(ctx context.Context) ([]forum.Section, error) {
	return q.store.Sections(ctx)
}

// Section loads one section with its branches.
func (q *Queries) Section(ctx context.Context, id uuid.UUID) (*forum.Section, error) {
	return q.store.GetSection(ctx, id)
}
