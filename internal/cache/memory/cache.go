// Package memory provides a process-local keyed TTL cache with request coalescing.
//
// Entries expire lazily on read. Concurrent misses for the same key share a single
// computation through a singleflight group: the first caller runs it, later callers
// wait for its result, and only successful results are stored. There is no capacity
// bound; key count is limited by TTL expiry and the optional janitor only.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/davidbz/scribe/internal/domain"
	"github.com/davidbz/scribe/internal/observability"
)

// ErrComputePanicked is returned to every waiter when a computation panics.
var ErrComputePanicked = errors.New("cache computation panicked")

type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

func (e entry[V]) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now     func() time.Time
	metrics *observability.Metrics
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithMetrics reports lookups to the given metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Cache is a keyed TTL cache whose misses are coalesced per key.
type Cache[V any] struct {
	name    string
	now     func() time.Time
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]entry[V]

	group    singleflight.Group
	inflight atomic.Int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	coalesced atomic.Uint64
}

var _ domain.ComputeCache[[]float64] = (*Cache[[]float64])(nil)

// New creates an empty cache. The name labels its metrics and log lines.
func New[V any](name string, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[V]{
		name:    name,
		now:     o.now,
		metrics: o.metrics,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the live value for key. An expired entry is evicted and reported absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// GetOrCompute returns the live value for key, or runs compute and caches its
// result for ttl. A ttl of zero or less still coalesces but stores nothing.
//
// compute runs detached from the caller's cancellation so that one caller going
// away does not fail the others waiting on the same key; a caller whose ctx ends
// stops waiting and gets ctx.Err().
func (c *Cache[V]) GetOrCompute(
	ctx context.Context,
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) (V, error),
) (V, error) {
	if v, ok := c.Get(key); ok {
		c.record(observability.CacheHit)
		return v, nil
	}

	// Only the leader's closure runs, so outcome stays empty for coalesced callers.
	var outcome string
	ch := c.group.DoChan(key, func() (_ any, err error) {
		// DoChan re-panics on its own goroutine, out of reach of any request recoverer.
		defer func() {
			if rec := recover(); rec != nil {
				observability.FromContext(ctx).Error("cache computation panicked",
					observability.String("cache", c.name),
					observability.Any("panic", rec))
				err = fmt.Errorf("%w: %v", ErrComputePanicked, rec)
			}
		}()

		// The previous flight for key may have stored its value between our
		// lookup and this flight starting.
		if v, ok := c.Get(key); ok {
			outcome = observability.CacheHit
			return v, nil
		}
		outcome = observability.CacheMiss

		c.inflight.Add(1)
		defer c.inflight.Add(-1)

		v, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if ttl > 0 {
			c.set(key, v, ttl)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if outcome == "" {
			outcome = observability.CacheCoalesced
		}
		c.record(outcome)

		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

func (c *Cache[V]) record(outcome string) {
	switch outcome {
	case observability.CacheHit:
		c.hits.Add(1)
	case observability.CacheMiss:
		c.misses.Add(1)
	case observability.CacheCoalesced:
		c.coalesced.Add(1)
	}
	c.metrics.ObserveCache(c.name, outcome)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is done.
func (c *Cache[V]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				observability.FromContext(ctx).Debug("swept expired cache entries",
					observability.String("cache", c.name),
					observability.Int("removed", removed))
			}
		}
	}
}

// Stats returns the cache's counters.
func (c *Cache[V]) Stats() domain.CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	return domain.CacheStats{
		Entries:   entries,
		InFlight:  c.inflight.Load(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Coalesced: c.coalesced.Load(),
	}
}
