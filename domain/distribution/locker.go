package distribution

import (
	"context"
	"fmt"
	"time"
)

// Locker serialises runs. Acquire returns ErrRunInProgress when the key is held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock
type Lease interface {
	// Extend moves the expiry to ttl from now. It returns ErrLockLost when
	// the lock expired and another owner has taken the key.
	Extend(ctx context.Context, ttl time.Duration) error

	// Release frees the key if this lease still owns it
	Release(ctx context.Context) error
}

// RunLockKey returns the lock key for an activity's distribution run
func RunLockKey(activityID int64) string {
	return fmt.Sprintf("distribution:activity:%d", activityID)
}
