package agents

import (
	"context"
	"fmt"

	"banditflow/pkg/cache"
	"banditflow/pkg/records"
)

// CounterUpdater folds each observed action into the counter cache: the
// global action count, the variant total, and — for rewarded actions —
// the variant success count. Increments are atomic and commute, so no
// lock is taken and cross-action ordering is irrelevant.
type CounterUpdater struct {
	cache cache.CounterCache
}

// NewCounterUpdater wires the updater to a cache.
func NewCounterUpdater(c cache.CounterCache) *CounterUpdater {
	return &CounterUpdater{cache: c}
}

// Apply increments the counters for one action.
func (u *CounterUpdater) Apply(ctx context.Context, action *records.Action) error {
	if _, err := u.cache.Incr(ctx, cache.ActionCountKey); err != nil {
		return fmt.Errorf("incr %s: %w", cache.ActionCountKey, err)
	}
	countersUpdated.WithLabelValues("action_count").Inc()

	totalKey := cache.TotalKey(action.ExperimentID, action.VariantID)
	if _, err := u.cache.Incr(ctx, totalKey); err != nil {
		return fmt.Errorf("incr %s: %w", totalKey, err)
	}
	countersUpdated.WithLabelValues("total").Inc()

	if action.Reward == 1 {
		successesKey := cache.SuccessesKey(action.ExperimentID, action.VariantID)
		if _, err := u.cache.Incr(ctx, successesKey); err != nil {
			return fmt.Errorf("incr %s: %w", successesKey, err)
		}
		countersUpdated.WithLabelValues("successes").Inc()
	}
	return nil
}
