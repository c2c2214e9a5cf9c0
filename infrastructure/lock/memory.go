package lock

import (
	"context"
	"sync"
	"time"

	"drive-distribution/domain/distribution"
)

type entry struct {
	owner   uint64
	expires time.Time
}

// MemoryLocker implements distribution.Locker within one process
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]entry
	next  uint64
	clock func() time.Time
}

// NewMemoryLocker creates a new in-memory locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]entry),
		clock: time.Now,
	}
}

// Acquire implements distribution.Locker. An expired lock may be taken over.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (distribution.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, distribution.ErrRunInProgress
	}

	l.next++
	l.held[key] = entry{owner: l.next, expires: now.Add(ttl)}
	return &memoryLease{locker: l, key: key, owner: l.next}, nil
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	owner  uint64
}

func (m *memoryLease) Extend(ctx context.Context, ttl time.Duration) error {
	l := m.locker
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.held[m.key]
	if !ok || e.owner != m.owner {
		return distribution.ErrLockLost
	}
	e.expires = l.clock().Add(ttl)
	l.held[m.key] = e
	return nil
}

func (m *memoryLease) Release(context.Context) error {
	l := m.locker
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.held[m.key]; ok && e.owner == m.owner {
		delete(l.held, m.key)
	}
	return nil
}

// Ensure MemoryLocker implements distribution.Locker
var _ distribution.Locker = (*MemoryLocker)(nil)
