package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/security"
)

// storeTx implements topics.StoreTx over one pgx transaction. Counter
// maintenance travels with each mutation so the invariants hold at commit.
type storeTx struct {
	tx pgx.Tx
}

func (t *storeTx) CreateTopic(ctx context.Context, topic *forum.Topic, firstPost *forum.Post) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE branches SET topic_count = topic_count + 1 WHERE id = $1`, topic.BranchID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("branch %s: %w", topic.BranchID, forum.ErrNotFound)
	}

	if _, err := t.tx.Exec(ctx,
		`INSERT INTO topics (id, branch_id, title, starter_id, first_post_id, weight, sticky,
		                     announcement, notify_on_answers, post_count, created_at, last_post_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		topic.ID, topic.BranchID, topic.Title, topic.StarterID, topic.FirstPostID,
		topic.Weight, topic.Sticky, topic.Announcement, topic.NotifyOnAnswers,
		topic.PostCount, topic.CreatedAt, topic.LastPostAt,
	); err != nil {
		return err
	}

	_, err = t.tx.Exec(ctx,
		`INSERT INTO posts (id, topic_id, author_id, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		firstPost.ID, firstPost.TopicID, firstPost.AuthorID, firstPost.Body,
		firstPost.CreatedAt, firstPost.UpdatedAt,
	)
	return err
}

func (t *storeTx) AddPost(ctx context.Context, post *forum.Post) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE topics SET post_count = post_count + 1, last_post_at = $2 WHERE id = $1`,
		post.TopicID, post.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", post.TopicID, forum.ErrNotFound)
	}

	_, err = t.tx.Exec(ctx,
		`INSERT INTO posts (id, topic_id, author_id, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.TopicID, post.AuthorID, post.Body, post.CreatedAt, post.UpdatedAt,
	)
	return err
}

func (t *storeTx) UpdateTopic(ctx context.Context, topic *forum.Topic) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE topics SET title = $2, weight = $3, sticky = $4, announcement = $5,
		                   notify_on_answers = $6
		 WHERE id = $1`,
		topic.ID, topic.Title, topic.Weight, topic.Sticky, topic.Announcement,
		topic.NotifyOnAnswers,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", topic.ID, forum.ErrNotFound)
	}
	return nil
}

func (t *storeTx) UpdatePost(ctx context.Context, post *forum.Post) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE posts SET body = $2, updated_at = $3 WHERE id = $1`,
		post.ID, post.Body, post.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", post.ID, forum.ErrNotFound)
	}
	return nil
}

func (t *storeTx) MoveTopic(ctx context.Context, topicID, fromBranchID, toBranchID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE topics SET branch_id = $2 WHERE id = $1 AND branch_id = $3`,
		topicID, toBranchID, fromBranchID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", topicID, forum.ErrNotFound)
	}

	if _, err := t.tx.Exec(ctx,
		`UPDATE branches SET topic_count = topic_count - 1 WHERE id = $1`, fromBranchID,
	); err != nil {
		return err
	}
	tag, err = t.tx.Exec(ctx,
		`UPDATE branches SET topic_count = topic_count + 1 WHERE id = $1`, toBranchID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("branch %s: %w", toBranchID, forum.ErrNotFound)
	}
	return nil
}

func (t *storeTx) DeleteTopic(ctx context.Context, topicID, branchID uuid.UUID) error {
	// Posts go with the topic via ON DELETE CASCADE.
	tag, err := t.tx.Exec(ctx, `DELETE FROM topics WHERE id = $1`, topicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", topicID, forum.ErrNotFound)
	}

	_, err = t.tx.Exec(ctx,
		`UPDATE branches SET topic_count = topic_count - 1 WHERE id = $1`, branchID)
	return err
}

func (t *storeTx) EnqueueACL(ctx context.Context, entries []security.OutboxEntry) error {
	for _, e := range entries {
		var principalID *uuid.UUID
		if e.Grant.Grantee.PrincipalID != uuid.Nil {
			principalID = &e.Grant.Grantee.PrincipalID
		}
		var role *string
		if e.Grant.Grantee.Role != "" {
			r := string(e.Grant.Grantee.Role)
			role = &r
		}
		var permission *string
		if e.Grant.Permission != "" {
			p := string(e.Grant.Permission)
			permission = &p
		}

		if _, err := t.tx.Exec(ctx,
			`INSERT INTO acl_outbox (id, op, principal_id, role, permission, target_kind, target_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, string(e.Op), principalID, role, permission,
			string(e.Grant.Target.Kind), e.Grant.Target.ID,
		); err != nil {
			return err
		}
	}
	return nil
}
