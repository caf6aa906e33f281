package agora

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/agora/pkg/db"
	"github.com/dmitrymomot/agora/pkg/logger"
)

// Config holds the full service configuration, populated from environment
// variables.
type Config struct {
	DB     db.Config
	Sentry logger.SentryConfig

	// Optional Redis URL for the listing cache. Empty falls back to the
	// in-process cache.
	RedisURL string `env:"REDIS_URL"`

	// Fixed page size of all topic and post listings.
	PageSize int `env:"FORUM_PAGE_SIZE" envDefault:"20"`

	// Recency window of the recent and unanswered listings.
	RecentWindow time.Duration `env:"FORUM_RECENT_WINDOW" envDefault:"24h"`

	// TTL of cached listings.
	ListingTTL time.Duration `env:"FORUM_LISTING_TTL" envDefault:"30s"`

	// Role granted administration alongside the author on every new topic
	// and post. Empty disables the role grant.
	AdminRole string `env:"FORUM_ADMIN_ROLE" envDefault:"admins"`

	// Cron schedule of the ACL reconciliation sweep.
	ReconcileSchedule string `env:"FORUM_ACL_RECONCILE_SCHEDULE" envDefault:"*/5 * * * *"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
