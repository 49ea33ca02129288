package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLocker is an in-process Locker for tests and single-node runs.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	wait  time.Duration
	retry time.Duration
}

// NewMemoryLocker builds a locker with the given wait budget.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &MemoryLocker{
		held:  make(map[string]time.Time),
		wait:  wait,
		retry: 5 * time.Millisecond,
	}
}

type memoryLease struct {
	locker *MemoryLocker
	name   string
}

func (l *memoryLease) Release(context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	delete(l.locker.held, l.name)
	return nil
}

func (ml *MemoryLocker) tryAcquire(name string, ttl time.Duration) bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if expiry, ok := ml.held[name]; ok && time.Now().Before(expiry) {
		return false
	}
	ml.held[name] = time.Now().Add(ttl)
	return true
}

// Acquire polls until the wait budget is exhausted.
func (ml *MemoryLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	deadline := time.Now().Add(ml.wait)
	for {
		if ml.tryAcquire(name, ttl) {
			return &memoryLease{locker: ml, name: name}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s not acquired within %s", ErrLockContention, name, ml.wait)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(ml.retry):
		}
	}
}
