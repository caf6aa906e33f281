package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/security"
)

// --- security.Provider ---

func (s *Store) Apply(_ context.Context, grants []security.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailApply {
		return ErrInjected
	}

	for _, g := range grants {
		exists := false
		for _, have := range s.grants {
			if have == g {
				exists = true
				break
			}
		}
		if !exists {
			s.grants = append(s.grants, g)
		}
	}
	return nil
}

func (s *Store) RevokeAll(_ context.Context, target security.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailApply {
		return ErrInjected
	}

	kept := s.grants[:0]
	for _, g := range s.grants {
		if g.Target != target {
			kept = append(kept, g)
		}
	}
	s.grants = kept
	return nil
}

func (s *Store) GrantsOn(_ context.Context, target security.Target) ([]security.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []security.Grant
	for _, g := range s.grants {
		if g.Target == target {
			out = append(out, g)
		}
	}
	return out, nil
}

// --- security.OutboxStore ---

func (s *Store) PendingACL(_ context.Context, limit int) ([]security.OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []security.OutboxEntry
	for _, e := range s.outbox {
		if e.AppliedAt == nil {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkACLApplied(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for i := range s.outbox {
		for _, id := range ids {
			if s.outbox[i].ID == id {
				s.outbox[i].AppliedAt = &now
			}
		}
	}
	return nil
}

// --- sections.Store ---

func (s *Store) Sections(_ context.Context) ([]forum.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]forum.Section, 0, len(s.sections))
	for _, sec := range s.sections {
		sec.Branches = s.sectionBranches(sec.ID)
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetSection(_ context.Context, id uuid.UUID) (*forum.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, ok := s.sections[id]
	if !ok {
		return nil, fmt.Errorf("section %s: %w", id, forum.ErrNotFound)
	}
	sec.Branches = s.sectionBranches(id)
	return &sec, nil
}

// sectionBranches returns a section's branches by position. Caller holds the
// lock.
func (s *Store) sectionBranches(sectionID uuid.UUID) []forum.Branch {
	var out []forum.Branch
	for _, b := range s.branches {
		if b.SectionID == sectionID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out
}
