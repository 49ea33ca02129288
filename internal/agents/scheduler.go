package agents

import (
	"context"
	"log"
	"time"

	"banditflow/pkg/leader"
	"banditflow/pkg/store"
	"banditflow/pkg/stream"
)

// Scheduler is the leader-only periodic task that discovers every
// experiment with persisted actions and dispatches one recompute request
// each. Dispatch is fire-and-forget: ticks never wait on one another, and
// duplicate in-flight requests for the same experiment are tolerated
// because recomputation is idempotent.
type Scheduler struct {
	store    store.ActionStore
	elector  leader.Elector
	pub      stream.Publisher
	topic    string
	interval time.Duration
}

// NewScheduler wires the scheduler.
func NewScheduler(s store.ActionStore, elector leader.Elector, pub stream.Publisher, topic string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{store: s, elector: elector, pub: pub, topic: topic, interval: interval}
}

// Run ticks until the context is cancelled. Each tick runs in its own
// goroutine so a slow store scan does not block the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.elector.IsLeader() {
				continue
			}
			go func() {
				if _, err := s.Tick(ctx); err != nil {
					log.Printf("[scheduler] tick: %v", err)
				}
			}()
		}
	}
}

// Tick scans for distinct experiment ids and dispatches one recompute
// request per experiment, returning how many were dispatched.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	ids, err := s.store.DistinctExperimentIDs(ctx)
	if err != nil {
		return 0, err
	}
	dispatched := 0
	for _, id := range ids {
		if err := s.pub.Publish(ctx, s.topic, []byte(id)); err != nil {
			log.Printf("[scheduler] dispatch %s: %v", id, err)
			continue
		}
		schedulerDispatches.Inc()
		dispatched++
	}
	return dispatched, nil
}
