// Package cache provides a generic TTL cache with in-memory and Redis
// backends. The forum uses it to absorb repeated front-page listing queries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a generic key-value cache with TTL support.
//
// TTL semantics for Set:
//   - positive: the entry expires after this duration
//   - zero: use the backend's configured default TTL
//   - negative: the entry never expires
type Cache[V any] interface {
	// Get retrieves a value by key. Returns ErrNotFound when the key is
	// missing or expired.
	Get(ctx context.Context, key string) (V, error)

	// Set stores a value under key with the given TTL.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Marshaler serializes values for backends that store bytes.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

type jsonMarshaler[V any] struct{}

func (jsonMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

var sfGroup singleflight.Group

type computed[V any] struct {
	val V
	ttl time.Duration
}

// GetOrSet returns the cached value for key, or computes it with fn on a
// miss. Concurrent misses for the same key share one fn call via
// singleflight, so a popular listing never stampedes the store.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err, _ := sfGroup.Do(key, func() (any, error) {
		val, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return computed[V]{val: val, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	r := v.(computed[V])

	// Best effort; a failed Set only costs the next caller a recompute.
	_ = c.Set(ctx, key, r.val, r.ttl)

	return r.val, nil
}
