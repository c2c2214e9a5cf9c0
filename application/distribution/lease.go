package distribution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"drive-distribution/domain/distribution"
	"drive-distribution/infrastructure/logging"
)

// holdLease extends the lease every third of the lock TTL until stop is
// called, so a run longer than the TTL keeps its lock. When the lease is lost
// the returned context is cancelled with ErrLockLost as its cause.
func (e *Engine) holdLease(ctx context.Context, lease distribution.Lease, log logging.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(e.opts.LockTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			err := lease.Extend(ctx, e.opts.LockTTL)
			switch {
			case err == nil:
			case errors.Is(err, distribution.ErrLockLost):
				log.Error(ctx, "run lock lost", "err", err)
				cancel(err)
				return
			default:
				log.Warn(ctx, "failed to extend run lock", "err", err)
			}
		}
	}()

	return ctx, func() {
		close(done)
		wg.Wait()
		cancel(nil)
	}
}

// lockLost replaces err with ErrLockLost when the run's lease was lost
func lockLost(ctx context.Context, activityID int64, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, distribution.ErrLockLost) {
		return fmt.Errorf("activity %d: %w", activityID, cause)
	}
	return err
}
