// Package agora wires the discussion board engine together: the PostgreSQL
// content store, the ACL synchronizer with its scheduled reconciliation
// sweep, the topic lifecycle and query engines and the board catalog.
//
// Embedding services construct an App once at startup and call the engines
// directly; there is no HTTP surface here.
package agora

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/agora/forum"
	"github.com/dmitrymomot/agora/forum/postgres"
	"github.com/dmitrymomot/agora/pkg/cache"
	"github.com/dmitrymomot/agora/pkg/db"
	"github.com/dmitrymomot/agora/pkg/job"
	"github.com/dmitrymomot/agora/pkg/logger"
	"github.com/dmitrymomot/agora/pkg/pagination"
	"github.com/dmitrymomot/agora/sections"
	"github.com/dmitrymomot/agora/security"
	"github.com/dmitrymomot/agora/topics"
)

// App is the assembled board engine.
type App struct {
	// Topics mutates the topic lifecycle.
	Topics *topics.Service

	// Queries serves topic and post listings, cached where it pays off.
	Queries *topics.CachedQueries

	// Sections serves the board catalog.
	Sections *sections.Queries

	// ACL reads back grants and replays pending changes.
	ACL *security.Synchronizer

	// Jobs runs the scheduled reconciliation sweep.
	Jobs *job.Manager

	Log *slog.Logger

	pool         *pgxpool.Pool
	redis        redis.UniversalClient
	listingCache cache.Cache[pagination.Page[forum.Topic]]
}

// New connects the dependencies, migrates the schema and assembles the
// engines. Call Start to begin background processing and Close on shutdown.
func New(ctx context.Context, cfg Config) (*App, error) {
	log := logger.NewWithSentry(cfg.Sentry, security.PrincipalLogExtractor)

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool, cfg.DB.MigrationsTable, log); err != nil {
		pool.Close()
		return nil, err
	}

	store := postgres.New(pool)
	sync := security.NewSynchronizer(store, store, log)

	jobs, err := job.NewManager(pool,
		job.WithScheduledTask(security.NewReconcileTask(sync, cfg.ReconcileSchedule)),
		job.WithJobLogger(log),
	)
	if err != nil {
		pool.Close()
		return nil, err
	}

	app := &App{
		Topics: topics.NewService(store, sync,
			topics.GrantPolicy{AdminRole: security.Role(cfg.AdminRole)},
			topics.WithServiceLogger(log),
		),
		Sections: sections.NewQueries(store),
		ACL:      sync,
		Jobs:     jobs,
		Log:      log,
		pool:     pool,
	}

	if cfg.RedisURL != "" {
		client, err := cache.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, err
		}
		app.redis = client
		app.listingCache = cache.NewRedis[pagination.Page[forum.Topic]](client, nil,
			cache.WithPrefix("agora"),
		)
	} else {
		app.listingCache = cache.NewMemory[pagination.Page[forum.Topic]]()
	}

	queries := topics.NewQueries(store,
		topics.WithPageSize(cfg.PageSize),
		topics.WithRecentWindow(cfg.RecentWindow),
	)
	app.Queries = topics.NewCachedQueries(queries, app.listingCache, cfg.ListingTTL)

	return app, nil
}

// Start begins background job processing, including the ACL reconciliation
// sweep.
func (a *App) Start(ctx context.Context) error {
	return a.Jobs.Start(ctx)
}

// Close stops background processing and releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if err := a.Jobs.Stop(ctx); err != nil && !errors.Is(err, job.ErrNotStarted) {
		errs = append(errs, err)
	}
	if err := a.listingCache.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.pool.Close()

	return errors.Join(errs...)
}
