package agents

import (
	"context"
	"fmt"
	"log"
	"time"

	"banditflow/pkg/bandit"
	"banditflow/pkg/cache"
	"banditflow/pkg/lock"
	"banditflow/pkg/records"
	"banditflow/pkg/store"
	"banditflow/pkg/stream"
)

// Calculator recomputes an experiment's variant-selection probabilities:
// one Thompson-Sampling draw per observed variant from its Beta-Bernoulli
// posterior. The snapshot is written to the cache under a lock-guarded
// plain set (it is meant to be overwritten every cycle) and the same
// payload broadcast on the outbound topic. The calculator keeps no state
// between invocations, which is what makes duplicate recompute requests
// harmless.
type Calculator struct {
	store   store.ActionStore
	cache   cache.CounterCache
	locker  lock.Locker
	pub     stream.Publisher
	sampler *bandit.Sampler
	topic   string
	lockTTL time.Duration
}

// NewCalculator wires the calculator agent.
func NewCalculator(s store.ActionStore, c cache.CounterCache, locker lock.Locker, pub stream.Publisher, sampler *bandit.Sampler, topic string, lockTTL time.Duration) *Calculator {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Calculator{store: s, cache: c, locker: locker, pub: pub, sampler: sampler, topic: topic, lockTTL: lockTTL}
}

// Handle processes one recompute request: the payload is the experiment id.
func (a *Calculator) Handle(ctx context.Context, payload []byte) error {
	experimentID := string(payload)
	if _, err := a.Recompute(ctx, experimentID); err != nil {
		recomputes.WithLabelValues("error").Inc()
		return fmt.Errorf("recompute %s: %w", experimentID, err)
	}
	recomputes.WithLabelValues("ok").Inc()
	return nil
}

// Recompute draws, stores, and publishes a fresh snapshot for one
// experiment. A variant with absent or unreadable counters contributes a
// Beta(1,1) uniform draw rather than failing the computation.
func (a *Calculator) Recompute(ctx context.Context, experimentID string) (records.ProbabilitySnapshot, error) {
	variants, err := a.store.DistinctVariantIDs(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	snapshot := make(records.ProbabilitySnapshot, len(variants))
	for _, variantID := range variants {
		successes := cache.Counter(ctx, a.cache, cache.SuccessesKey(experimentID, variantID))
		total := cache.Counter(ctx, a.cache, cache.TotalKey(experimentID, variantID))
		snapshot[variantID] = a.sampler.Posterior(successes, total)
	}

	payload, err := snapshot.Encode()
	if err != nil {
		return nil, err
	}

	key := cache.ProbabilitiesKey(experimentID)
	if err := cache.SetWithLock(ctx, a.cache, a.locker, key, string(payload), cache.WriteSet, a.lockTTL); err != nil {
		return nil, err
	}

	if err := a.pub.Publish(ctx, a.topic, payload); err != nil {
		return nil, err
	}
	log.Printf("[calculator] published probabilities for %s over %d variants", experimentID, len(variants))
	return snapshot, nil
}
