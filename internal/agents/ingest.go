package agents

import (
	"context"
	"fmt"
	"log"

	"banditflow/pkg/records"
	"banditflow/pkg/store"
)

// Ingestor consumes the inbound action stream: each action is durably
// persisted (idempotent on id) and then forwarded to the counter updater.
// A bad or unpersistable action is logged and skipped; it never halts the
// stream and is never retried here — redelivery is the broker's concern.
type Ingestor struct {
	store   store.ActionStore
	updater *CounterUpdater
}

// NewIngestor wires the ingestion agent.
func NewIngestor(s store.ActionStore, updater *CounterUpdater) *Ingestor {
	return &Ingestor{store: s, updater: updater}
}

// Handle processes one raw inbound payload.
func (a *Ingestor) Handle(ctx context.Context, payload []byte) error {
	action, err := records.DecodeAction(payload)
	if err != nil {
		actionsIngested.WithLabelValues("invalid").Inc()
		log.Printf("[ingest] skipping malformed action: %v", err)
		return nil
	}

	if _, err := a.store.UpsertAction(ctx, action); err != nil {
		actionsIngested.WithLabelValues("store_error").Inc()
		log.Printf("[ingest] skipping action %s, store error: %v", action.ID, err)
		return nil
	}
	actionsIngested.WithLabelValues("ok").Inc()

	if err := a.updater.Apply(ctx, action); err != nil {
		return fmt.Errorf("update counters for action %s: %w", action.ID, err)
	}
	return nil
}
