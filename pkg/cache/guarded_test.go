package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"banditflow/pkg/lock"
)

func TestSetWithLockOverwrites(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	locker := lock.NewMemoryLocker(time.Second)

	if err := SetWithLock(ctx, c, locker, "k", "1", WriteSet, time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := SetWithLock(ctx, c, locker, "k", "2", WriteSet, time.Second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	val, ok, _ := c.Get(ctx, "k")
	if !ok || val != "2" {
		t.Fatalf("expected 2, got %q (present=%v)", val, ok)
	}
}

func TestSetIfAbsentNeverClobbers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	locker := lock.NewMemoryLocker(time.Second)

	// Increments land before initialization.
	for i := 0; i < 4; i++ {
		if _, err := c.Incr(ctx, "counter"); err != nil {
			t.Fatalf("incr: %v", err)
		}
	}
	if err := SetWithLock(ctx, c, locker, "counter", "0", WriteSetIfAbsent, time.Second); err != nil {
		t.Fatalf("setnx: %v", err)
	}
	if n := Counter(ctx, c, "counter"); n != 4 {
		t.Fatalf("accumulated counter was reset: got %d, want 4", n)
	}

	// On a fresh key the same call seeds zero.
	if err := SetWithLock(ctx, c, locker, "fresh", "0", WriteSetIfAbsent, time.Second); err != nil {
		t.Fatalf("setnx fresh: %v", err)
	}
	if n := Counter(ctx, c, "fresh"); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestSetWithLockSurfacesContention(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	locker := lock.NewMemoryLocker(20 * time.Millisecond)

	lease, err := locker.Acquire(ctx, LockName("busy"), time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lease.Release(ctx)

	err = SetWithLock(ctx, c, locker, "busy", "1", WriteSet, time.Second)
	if !errors.Is(err, lock.ErrLockContention) {
		t.Fatalf("expected ErrLockContention, got %v", err)
	}
	if _, ok, _ := c.Get(ctx, "busy"); ok {
		t.Fatal("value must not be written when the lock is contended")
	}
}

func TestCounterTreatsMissingAndGarbageAsZero(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if n := Counter(ctx, c, "absent"); n != 0 {
		t.Fatalf("absent key: got %d, want 0", n)
	}
	c.Set(ctx, "garbage", "not-a-number")
	if n := Counter(ctx, c, "garbage"); n != 0 {
		t.Fatalf("garbage value: got %d, want 0", n)
	}
}

func TestKeyNames(t *testing.T) {
	if got := SuccessesKey("e", "v"); got != "e_v_successes" {
		t.Fatalf("successes key: %s", got)
	}
	if got := TotalKey("e", "v"); got != "e_v_total" {
		t.Fatalf("total key: %s", got)
	}
	if got := ProbabilitiesKey("e"); got != "e_probabilities" {
		t.Fatalf("probabilities key: %s", got)
	}
	if got := LockName("e_probabilities"); got != "lock_e_probabilities" {
		t.Fatalf("lock name: %s", got)
	}
}
