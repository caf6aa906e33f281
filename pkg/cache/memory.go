package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry[V any] struct {
	value     V
	expiresAt time.Time // zero = never expires
}

func (e memEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-memory cache with TTL expiration. A janitor goroutine
// sweeps expired entries; expired keys are also dropped lazily on access.
type Memory[V any] struct {
	mu         sync.Mutex
	items      map[string]memEntry[V]
	defaultTTL time.Duration
	done       chan struct{}
	closed     bool
}

// MemoryOption configures the in-memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	defaultTTL      time.Duration
	cleanupInterval time.Duration
}

// WithDefaultTTL sets the TTL used when Set is called with a zero TTL.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.defaultTTL = d }
}

// WithCleanupInterval sets the janitor sweep interval. Zero disables the
// janitor; expired entries are then only removed on access.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.cleanupInterval = d }
}

// NewMemory creates an in-memory cache.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := &memoryConfig{
		defaultTTL:      time.Minute,
		cleanupInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Memory[V]{
		items:      make(map[string]memEntry[V]),
		defaultTTL: cfg.defaultTTL,
		done:       make(chan struct{}),
	}

	if cfg.cleanupInterval > 0 {
		go m.janitor(cfg.cleanupInterval)
	}

	return m
}

// Get retrieves a value by key, dropping it if expired.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok || e.expired(time.Now()) {
		if ok {
			delete(m.items, key)
		}
		var zero V
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Set stores a value. See Cache for the TTL semantics.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.items[key] = memEntry[V]{value: value, expiresAt: expiresAt}
	return nil
}

// Delete removes a key.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

// Close stops the janitor. Idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *Memory[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory[V]) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, e := range m.items {
		if e.expired(now) {
			delete(m.items, key)
		}
	}
}

var _ Cache[any] = (*Memory[any])(nil)
