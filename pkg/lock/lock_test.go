package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	ml := NewMemoryLocker(50 * time.Millisecond)

	lease, err := ml.Acquire(ctx, "lock_a", time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}

	// Released lock can be re-acquired immediately.
	lease, err = ml.Acquire(ctx, "lock_a", time.Second)
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	lease.Release(ctx)
}

func TestContentionFailsFast(t *testing.T) {
	ctx := context.Background()
	ml := NewMemoryLocker(30 * time.Millisecond)

	lease, err := ml.Acquire(ctx, "lock_b", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lease.Release(ctx)

	start := time.Now()
	_, err = ml.Acquire(ctx, "lock_b", time.Minute)
	if !errors.Is(err, ErrLockContention) {
		t.Fatalf("expected ErrLockContention, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("contention wait was not bounded")
	}
}

func TestExpiredLeaseIsReacquirable(t *testing.T) {
	ctx := context.Background()
	ml := NewMemoryLocker(200 * time.Millisecond)

	if _, err := ml.Acquire(ctx, "lock_c", 10*time.Millisecond); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	// Lease auto-expires; the second acquire must succeed without a release.
	lease, err := ml.Acquire(ctx, "lock_c", time.Second)
	if err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	lease.Release(ctx)
}

func TestAcquireHonorsContextCancel(t *testing.T) {
	ml := NewMemoryLocker(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	lease, err := ml.Acquire(ctx, "lock_d", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lease.Release(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := ml.Acquire(ctx, "lock_d", time.Minute)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("acquire did not observe cancellation")
	}
}
