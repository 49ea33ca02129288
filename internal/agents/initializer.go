package agents

import (
	"context"
	"log"
	"time"

	"banditflow/pkg/cache"
	"banditflow/pkg/lock"
	"banditflow/pkg/records"
)

// Initializer seeds the success and total counters for newly registered
// (experiment, variant) pairs. Seeding uses a lock-guarded set-if-absent:
// the lock is held across the whole check-and-set, and setnx guarantees a
// registration replayed after real increments have landed cannot reset
// them to zero.
type Initializer struct {
	cache   cache.CounterCache
	locker  lock.Locker
	lockTTL time.Duration
}

// NewInitializer wires the initializer agent.
func NewInitializer(c cache.CounterCache, locker lock.Locker, lockTTL time.Duration) *Initializer {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Initializer{cache: c, locker: locker, lockTTL: lockTTL}
}

// Handle processes one raw registration payload.
func (a *Initializer) Handle(ctx context.Context, payload []byte) error {
	reg, err := records.DecodeExperimentInit(payload)
	if err != nil {
		experimentsInitialized.WithLabelValues("invalid").Inc()
		log.Printf("[initializer] skipping malformed registration: %v", err)
		return nil
	}
	return a.Init(ctx, reg.ExperimentID, reg.VariantID)
}

// Init seeds both counters to zero. A lock-contention failure is fatal to
// this attempt only; the next registration retry is the retry mechanism.
func (a *Initializer) Init(ctx context.Context, experimentID, variantID string) error {
	keys := []string{
		cache.SuccessesKey(experimentID, variantID),
		cache.TotalKey(experimentID, variantID),
	}
	for _, key := range keys {
		if err := cache.SetWithLock(ctx, a.cache, a.locker, key, "0", cache.WriteSetIfAbsent, a.lockTTL); err != nil {
			experimentsInitialized.WithLabelValues("error").Inc()
			return err
		}
	}
	experimentsInitialized.WithLabelValues("ok").Inc()
	log.Printf("[initializer] seeded counters for %s_%s", experimentID, variantID)
	return nil
}
