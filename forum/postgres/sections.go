package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/agora/forum"
)

// Sections returns the board catalog: sections ordered by position, each with
// its branches ordered by position.
func (s *Store) Sections(ctx context.Context) ([]forum.Section, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, position FROM sections ORDER BY position, name, id`)
	if err != nil {
		return nil, err
	}
	sections, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[forum.Section])
	if err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx,
		`SELECT `+branchColumns+` FROM branches ORDER BY position, name, id`)
	if err != nil {
		return nil, err
	}
	branches, err := pgx.CollectRows(rows, pgx.RowToStructByName[forum.Branch])
	if err != nil {
		return nil, err
	}

	bySection := make(map[uuid.UUID][]forum.Branch, len(sections))
	for _, b := range branches {
		bySection[b.SectionID] = append(bySection[b.SectionID], b)
	}
	for i := range sections {
		sections[i].Branches = bySection[sections[i].ID]
	}
	return sections, nil
}

// GetSection returns one section with its branches.
func (s *Store) GetSection(ctx context.Context, id uuid.UUID) (*forum.Section, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, position FROM sections WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	sec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[forum.Section])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("section %s: %w", id, forum.ErrNotFound)
		}
		return nil, err
	}

	rows, err = s.pool.Query(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE section_id = $1 ORDER BY position, name, id`,
		id)
	if err != nil {
		return nil, err
	}
	sec.Branches, err = pgx.CollectRows(rows, pgx.RowToStructByName[forum.Branch])
	if err != nil {
		return nil, err
	}
	return &sec, nil
}
