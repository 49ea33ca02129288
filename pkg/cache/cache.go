// Package cache holds the live per-variant counters and probability
// snapshots the pipeline aggregates into, plus the lock-guarded write
// routine used for initialization and snapshot overwrites.
package cache

import (
	"context"
	"fmt"
)

// CounterCache is the shared key/value contract. Incr must be atomic and
// commutative; concurrent increments from any number of processes never
// need external locking.
type CounterCache interface {
	Incr(ctx context.Context, key string) (int64, error)
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetNX writes only when the key is absent; reports whether it wrote.
	SetNX(ctx context.Context, key, value string) (bool, error)
}

// ActionCountKey is the global counter incremented once per observed action.
const ActionCountKey = "action_count"

// SuccessesKey names the per-variant success counter.
func SuccessesKey(experimentID, variantID string) string {
	return fmt.Sprintf("%s_%s_successes", experimentID, variantID)
}

// TotalKey names the per-variant total counter.
func TotalKey(experimentID, variantID string) string {
	return fmt.Sprintf("%s_%s_total", experimentID, variantID)
}

// ProbabilitiesKey names an experiment's published snapshot.
func ProbabilitiesKey(experimentID string) string {
	return fmt.Sprintf("%s_probabilities", experimentID)
}

// LockName names the lease guarding writes to a cache key.
func LockName(key string) string {
	return "lock_" + key
}
