package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agora/pkg/cache"
)

// --- Memory: Get ---

func TestMemory_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		_, err := c.Get(context.Background(), "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored value", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", 42, time.Minute))

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, 42, val)
	})

	t.Run("returns ErrNotFound for expired key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", time.Millisecond))

		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}

// --- Memory: Set ---

func TestMemory_Set(t *testing.T) {
	t.Parallel()

	t.Run("zero TTL uses the default", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](
			cache.WithDefaultTTL(time.Millisecond),
			cache.WithCleanupInterval(0),
		)
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", 0))

		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("negative TTL never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](
			cache.WithDefaultTTL(time.Millisecond),
			cache.WithCleanupInterval(0),
		)
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", -1))

		time.Sleep(5 * time.Millisecond)

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "value", val)
	})

	t.Run("overwrite replaces value", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "one", time.Minute))
		require.NoError(t, c.Set(ctx, "key", "two", time.Minute))

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "two", val)
	})
}

// --- Memory: Delete / Close ---

func TestMemory_Delete(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string]()
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, c.Delete(ctx, "key"))

	_, err := c.Get(ctx, "key")
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestMemory_Close(t *testing.T) {
	t.Parallel()

	t.Run("set after close fails", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		require.NoError(t, c.Close())

		err := c.Set(context.Background(), "key", "value", time.Minute)
		require.ErrorIs(t, err, cache.ErrClosed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
	})
}

// --- GetOrSet ---

func TestGetOrSet(t *testing.T) {
	t.Parallel()

	t.Run("computes on miss and caches", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		ctx := context.Background()
		var calls atomic.Int32

		compute := func(ctx context.Context) (int, time.Duration, error) {
			calls.Add(1)
			return 42, time.Minute, nil
		}

		val, err := cache.GetOrSet(ctx, c, "key", compute)
		require.NoError(t, err)
		require.Equal(t, 42, val)

		val, err = cache.GetOrSet(ctx, c, "key", compute)
		require.NoError(t, err)
		require.Equal(t, 42, val)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("propagates compute errors without caching", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		ctx := context.Background()
		wantErr := errors.New("store down")

		_, err := cache.GetOrSet(ctx, c, "failing", func(ctx context.Context) (int, time.Duration, error) {
			return 0, 0, wantErr
		})
		require.ErrorIs(t, err, wantErr)

		val, err := cache.GetOrSet(ctx, c, "failing", func(ctx context.Context) (int, time.Duration, error) {
			return 7, time.Minute, nil
		})
		require.NoError(t, err)
		require.Equal(t, 7, val)
	})

	t.Run("concurrent misses share one compute", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		ctx := context.Background()
		var calls atomic.Int32
		started := make(chan struct{})

		compute := func(ctx context.Context) (int, time.Duration, error) {
			calls.Add(1)
			<-started
			return 1, time.Minute, nil
		}

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				val, err := cache.GetOrSet(ctx, c, "shared", compute)
				require.NoError(t, err)
				require.Equal(t, 1, val)
			}()
		}

		// Let the goroutines pile up on the same key, then release.
		time.Sleep(10 * time.Millisecond)
		close(started)
		wg.Wait()

		require.LessOrEqual(t, calls.Load(), int32(2))
	})
}
