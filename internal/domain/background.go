package domain

import (
	"context"
	"sync"
	"time"

	"github.com/davidbz/scribe/internal/observability"
)

const defaultBackgroundTimeout = 10 * time.Second

// BackgroundRunner runs best-effort side effects after a response has been
// produced. Task failures are logged and never reach the caller.
type BackgroundRunner struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewBackgroundRunner creates a runner bounding each task by timeout.
func NewBackgroundRunner(timeout time.Duration) *BackgroundRunner {
	if timeout <= 0 {
		timeout = defaultBackgroundTimeout
	}
	return &BackgroundRunner{timeout: timeout}
}

// Go runs task in its own goroutine. The task keeps ctx's values but not its
// cancellation, so it outlives the request that spawned it.
func (r *BackgroundRunner) Go(ctx context.Context, name string, task func(ctx context.Context) error) {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				observability.FromContext(taskCtx).Error("background task panicked",
					observability.String("task", name),
					observability.Any("panic", rec))
			}
		}()

		if err := task(taskCtx); err != nil {
			observability.FromContext(taskCtx).Error("background task failed",
				observability.String("task", name),
				observability.Error(err))
		}
	}()
}

// Wait blocks until every started task has returned or ctx is done.
func (r *BackgroundRunner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
