package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/agora/forum"
)

const (
	topicColumns = `id, branch_id, title, starter_id, first_post_id, weight, sticky,
		announcement, notify_on_answers, post_count, created_at, last_post_at`
	postColumns   = `id, topic_id, author_id, body, created_at, updated_at`
	branchColumns = `id, section_id, name, description, position, topic_count`
)

func (s *Store) BranchExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM branches WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

func (s *Store) GetBranch(ctx context.Context, id uuid.UUID) (*forum.Branch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	b, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[forum.Branch])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("branch %s: %w", id, forum.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetTopic(ctx context.Context, id uuid.UUID) (*forum.Topic, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[forum.Topic])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("topic %s: %w", id, forum.ErrNotFound)
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (*forum.Post, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[forum.Post])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post %s: %w", id, forum.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) TopicPostIDs(ctx context.Context, topicID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM posts WHERE topic_id = $1 ORDER BY created_at, id`, topicID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (s *Store) RecentTopics(ctx context.Context, since time.Time, limit, offset int) ([]forum.Topic, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM topics WHERE last_post_at > $1`, since,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	// NULLIF turns a non-positive limit into LIMIT NULL, i.e. no limit.
	rows, err := s.pool.Query(ctx,
		`SELECT `+topicColumns+` FROM topics
		 WHERE last_post_at > $1
		 ORDER BY last_post_at DESC, id ASC
		 LIMIT NULLIF(GREATEST($2, 0), 0) OFFSET $3`,
		since, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[forum.Topic])
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) UnansweredTopics(ctx context.Context, since time.Time, limit, offset int) ([]forum.Topic, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM topics WHERE post_count = 1 AND last_post_at > $1`, since,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+topicColumns+` FROM topics
		 WHERE post_count = 1 AND last_post_at > $1
		 ORDER BY last_post_at DESC, id ASC
		 LIMIT NULLIF(GREATEST($2, 0), 0) OFFSET $3`,
		since, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[forum.Topic])
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) BranchTopics(ctx context.Context, branchID uuid.UUID, limit, offset int) ([]forum.Topic, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM topics WHERE branch_id = $1`, branchID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+topicColumns+` FROM topics
		 WHERE branch_id = $1
		 ORDER BY sticky DESC, announcement DESC, weight DESC, last_post_at DESC, id ASC
		 LIMIT NULLIF(GREATEST($2, 0), 0) OFFSET $3`,
		branchID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[forum.Topic])
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) TopicPosts(ctx context.Context, topicID uuid.UUID, limit, offset int) ([]forum.Post, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE topic_id = $1`, topicID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE topic_id = $1
		 ORDER BY created_at ASC, id ASC
		 LIMIT NULLIF(GREATEST($2, 0), 0) OFFSET $3`,
		topicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[forum.Post])
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
