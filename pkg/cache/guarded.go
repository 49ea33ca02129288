package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"banditflow/pkg/lock"
)

// WriteMode selects the primitive used by a lock-guarded write.
type WriteMode int

const (
	// WriteSet overwrites the key unconditionally. Used for probability
	// snapshots, which are meant to be replaced every cycle.
	WriteSet WriteMode = iota
	// WriteSetIfAbsent writes only when the key does not exist. Used for
	// counter initialization: a bare set racing with increments would
	// silently erase accumulated counts, setnx cannot.
	WriteSetIfAbsent
)

// SetWithLock performs one lock-guarded write against the cache, holding
// the key's lease for the whole check-and-set. On contention the current
// value is read back best-effort for diagnostics and the error surfaced;
// the operation is never retried here.
func SetWithLock(ctx context.Context, c CounterCache, locker lock.Locker, key, value string, mode WriteMode, ttl time.Duration) error {
	lease, err := locker.Acquire(ctx, LockName(key), ttl)
	if err != nil {
		if current, ok, getErr := c.Get(ctx, key); getErr == nil && ok {
			log.Printf("[cache] lock for %s unavailable; current value %q", key, current)
		}
		return fmt.Errorf("guarded write %s: %w", key, err)
	}
	defer func() {
		if relErr := lease.Release(ctx); relErr != nil {
			log.Printf("[cache] release lock for %s: %v", key, relErr)
		}
	}()

	switch mode {
	case WriteSetIfAbsent:
		if _, err := c.SetNX(ctx, key, value); err != nil {
			return fmt.Errorf("guarded setnx %s: %w", key, err)
		}
	default:
		if err := c.Set(ctx, key, value); err != nil {
			return fmt.Errorf("guarded set %s: %w", key, err)
		}
	}
	return nil
}

// Counter reads an integer counter, treating an absent or unreadable key
// as zero so one missing variant never fails a whole computation.
func Counter(ctx context.Context, c CounterCache, key string) int64 {
	val, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
