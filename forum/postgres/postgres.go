// Package postgres is the PostgreSQL content store. It implements the topic
// engines' store contracts, the board catalog, the ACL provider and the ACL
// outbox on one database, with goose-managed schema migrations.
//
// The ACL tables are a logically separate resource: provider calls never run
// inside a content transaction. Only outbox rows ride the content
// transaction, which is what makes the post-commit ACL apply replayable.
package postgres

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/agora/pkg/db"
	"github.com/dmitrymomot/agora/sections"
	"github.com/dmitrymomot/agora/security"
	"github.com/dmitrymomot/agora/topics"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the pgx-backed content store. Safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store around an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrationsTable string, log *slog.Logger) error {
	return db.Migrate(ctx, pool, migrations, migrationsTable, log)
}

// InTx runs fn in one database transaction; see topics.Store.
func (s *Store) InTx(ctx context.Context, fn func(tx topics.StoreTx) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&storeTx{tx: tx})
	})
}

var (
	_ topics.Store         = (*Store)(nil)
	_ sections.Store       = (*Store)(nil)
	_ security.Provider    = (*Store)(nil)
	_ security.OutboxStore = (*Store)(nil)
)
