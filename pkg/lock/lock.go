// Package lock provides short-lived named mutual-exclusion leases used to
// serialize read-modify-write sequences against the counter cache.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLockContention is returned when a lease cannot be acquired within the
// locker's configured wait budget. It is fatal to the single operation that
// wanted the lock, never to the consuming stream.
var ErrLockContention = errors.New("lock contention")

// Lease is a held lock. Release is idempotent; the lease also auto-expires
// at its TTL so a crashed holder cannot wedge other processes.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker grants named exclusive leases.
type Locker interface {
	// Acquire blocks up to the locker's wait budget for the named lease,
	// which auto-expires after ttl. Fails with ErrLockContention when the
	// budget runs out.
	Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error)
}
