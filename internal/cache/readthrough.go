package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// ReadThrough layers request de-duplication and an optional debounce window
// over a Cache. For any key, at most one fetch is in flight at a time;
// concurrent callers for an equal key block on the same flight and receive
// the same result. The debounce delay postpones only the network dispatch —
// the flight itself is claimed immediately, so rapid repeated calls within
// the window collapse into one round trip.
type ReadThrough[V any] struct {
	cache    *Cache[V]
	debounce time.Duration
	group    singleflight.Group
}

// NewReadThrough wraps cache with de-duplication and the given debounce
// window (zero for immediate dispatch).
func NewReadThrough[V any](cache *Cache[V], debounce time.Duration) *ReadThrough[V] {
	return &ReadThrough[V]{cache: cache, debounce: debounce}
}

// Cache exposes the underlying cache for invalidation and wholesale refresh.
func (r *ReadThrough[V]) Cache() *Cache[V] {
	return r.cache
}

// Get returns the cached value for key, or dispatches fetch (after the
// debounce window) and caches its result. Fetch failures are not cached.
func (r *ReadThrough[V]) Get(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := r.cache.Read(key); ok {
		return v, nil
	}

	result, err, _ := r.group.Do(key, func() (any, error) {
		if r.debounce > 0 {
			timer := time.NewTimer(r.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		// A fetch may have landed while this caller waited to claim the
		// flight; serve it rather than going to the network again.
		if v, ok := r.cache.Read(key); ok {
			return v, nil
		}

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		r.cache.Remember(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}
