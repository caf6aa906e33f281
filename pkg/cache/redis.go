package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a cache backed by Redis, serializing values with the configured
// Marshaler (JSON when nil).
type Redis[V any] struct {
	client     redis.UniversalClient
	marshaler  Marshaler[V]
	prefix     string
	defaultTTL time.Duration
}

// RedisOption configures the Redis cache.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix     string
	defaultTTL time.Duration
}

// WithPrefix namespaces all keys as "<prefix>:<key>".
func WithPrefix(p string) RedisOption {
	return func(c *redisConfig) { c.prefix = p }
}

// WithRedisDefaultTTL sets the TTL used when Set is called with a zero TTL.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(c *redisConfig) { c.defaultTTL = d }
}

// NewRedis creates a Redis-backed cache around an existing client.
func NewRedis[V any](client redis.UniversalClient, m Marshaler[V], opts ...RedisOption) *Redis[V] {
	cfg := &redisConfig{defaultTTL: time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	if m == nil {
		m = jsonMarshaler[V]{}
	}
	return &Redis[V]{
		client:     client,
		marshaler:  m,
		prefix:     cfg.prefix,
		defaultTTL: cfg.defaultTTL,
	}
}

// OpenRedis connects a Redis client from a URL and verifies it with a ping.
func OpenRedis(ctx context.Context, url string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Get retrieves a value by key.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}

	return r.marshaler.Unmarshal(data)
}

// Set stores a value. See Cache for the TTL semantics; Redis treats a zero
// TTL as "no expiration", which matches our negative-TTL semantic.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.marshaler.Marshal(value)
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = r.defaultTTL
	}
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

// Delete removes a key.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Close is a no-op; the client's lifecycle belongs to the caller.
func (r *Redis[V]) Close() error {
	return nil
}

func (r *Redis[V]) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

var _ Cache[any] = (*Redis[any])(nil)
