package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/scribe/internal/cache/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type payload struct {
	value string
}

func TestCache_GetOrCompute_CachesSuccess(t *testing.T) {
	ctx := context.Background()
	cache := memory.New[string]("test")

	var calls atomic.Int32
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		return "value", nil
	}

	first, err := cache.GetOrCompute(ctx, "k", time.Minute, compute)
	require.NoError(t, err)
	second, err := cache.GetOrCompute(ctx, "k", time.Minute, compute)
	require.NoError(t, err)

	require.Equal(t, "value", first)
	require.Equal(t, "value", second)
	require.Equal(t, int32(1), calls.Load())

	stats := cache.Stats()
	require.Equal(t, 1, stats.Entries)
	require.Equal(t, uint64(1), stats.Misses)
	require.Equal(t, uint64(1), stats.Hits)
}

func TestCache_GetOrCompute_CoalescesConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	cache := memory.New[*payload]("test")

	const callers = 16
	var calls atomic.Int32
	release := make(chan struct{})
	shared := &payload{value: "shared"}

	compute := func(context.Context) (*payload, error) {
		calls.Add(1)
		<-release
		return shared, nil
	}

	results := make([]*payload, callers)
	errs := make([]error, callers)
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer done.Done()
			started.Done()
			results[i], errs[i] = cache.GetOrCompute(ctx, "k", time.Minute, compute)
		}()
	}

	started.Wait()
	require.Eventually(t, func() bool { return cache.Stats().InFlight == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	require.Equal(t, int32(1), calls.Load())
	for i, r := range results {
		require.NoError(t, errs[i])
		require.Same(t, shared, r)
	}
}

func TestCache_GetOrCompute_SharesFailureAndDoesNotCacheIt(t *testing.T) {
	ctx := context.Background()
	cache := memory.New[string]("test")

	upstreamErr := errors.New("upstream down")
	var calls atomic.Int32
	release := make(chan struct{})

	failing := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "", upstreamErr
	}

	const callers = 8
	errs := make([]error, callers)
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer done.Done()
			started.Done()
			_, errs[i] = cache.GetOrCompute(ctx, "k", time.Minute, failing)
		}()
	}

	started.Wait()
	require.Eventually(t, func() bool { return cache.Stats().InFlight == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, err := range errs {
		require.ErrorIs(t, err, upstreamErr)
	}
	require.Equal(t, 0, cache.Stats().Entries)

	// The failure left no trace: the next call computes again.
	v, err := cache.GetOrCompute(ctx, "k", time.Minute, func(context.Context) (string, error) {
		calls.Add(1)
		return "recovered", nil
	})
	require.NoError(t, err)
	require.Equal(t, "recovered", v)
	require.Equal(t, int32(2), calls.Load())
}

func TestCache_GetOrCompute_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cache := memory.New[int]("test", memory.WithClock(clock.Now))

	var calls atomic.Int32
	compute := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	v, err := cache.GetOrCompute(ctx, "k", 5*time.Minute, compute)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	clock.Advance(5*time.Minute - time.Second)
	v, err = cache.GetOrCompute(ctx, "k", 5*time.Minute, compute)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	clock.Advance(time.Second)
	_, ok := cache.Get("k")
	require.False(t, ok)

	v, err = cache.GetOrCompute(ctx, "k", 5*time.Minute, compute)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestCache_GetOrCompute_NonPositiveTTLDoesNotStore(t *testing.T) {
	ctx := context.Background()
	cache := memory.New[string]("test")

	for _, ttl := range []time.Duration{0, -time.Second} {
		v, err := cache.GetOrCompute(ctx, "k", ttl, func(context.Context) (string, error) {
			return "v", nil
		})
		require.NoError(t, err)
		require.Equal(t, "v", v)
		require.Equal(t, 0, cache.Stats().Entries)
	}
}

func TestCache_GetOrCompute_WaiterCancellationDoesNotAbortComputation(t *testing.T) {
	cache := memory.New[string]("test")

	release := make(chan struct{})
	var computeCtxErr error
	compute := func(ctx context.Context) (string, error) {
		<-release
		computeCtxErr = ctx.Err()
		return "done", nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := cache.GetOrCompute(leaderCtx, "k", time.Minute, compute)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return cache.Stats().InFlight == 1 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		_, ok := cache.Get("k")
		return ok
	}, time.Second, time.Millisecond)
	require.NoError(t, computeCtxErr)
}

func TestCache_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cache := memory.New[string]("test", memory.WithClock(clock.Now))

	value := func(context.Context) (string, error) { return "v", nil }
	_, err := cache.GetOrCompute(ctx, "short", time.Minute, value)
	require.NoError(t, err)
	_, err = cache.GetOrCompute(ctx, "long", time.Hour, value)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	require.Equal(t, 1, cache.Sweep())
	require.Equal(t, 1, cache.Stats().Entries)
	_, ok := cache.Get("long")
	require.True(t, ok)
}

func TestCache_GetOrCompute_RecoversPanickingComputation(t *testing.T) {
	ctx := context.Background()
	cache := memory.New[string]("test")

	_, err := cache.GetOrCompute(ctx, "k", time.Minute, func(context.Context) (string, error) {
		panic("mongo driver bug")
	})
	require.ErrorIs(t, err, memory.ErrComputePanicked)
	require.ErrorContains(t, err, "mongo driver bug")
	require.Equal(t, 0, cache.Stats().Entries)
	require.Zero(t, cache.Stats().InFlight)

	v, err := cache.GetOrCompute(ctx, "k", time.Minute, func(context.Context) (string, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	require.Equal(t, "recovered", v)
}
