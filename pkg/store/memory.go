package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"banditflow/pkg/records"
)

// MemoryStore is an in-memory ActionStore for tests and single-node runs.
type MemoryStore struct {
	mu      sync.RWMutex
	actions map[string]records.Action
	order   []string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{actions: make(map[string]records.Action)}
}

// UpsertAction stores the action unless its id already exists.
func (s *MemoryStore) UpsertAction(_ context.Context, action *records.Action) (string, error) {
	if err := action.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actions[action.ID]; ok {
		return action.ID, nil
	}
	stored := *action
	if stored.RecordedAt.IsZero() {
		stored.RecordedAt = time.Now().UTC()
	}
	s.actions[action.ID] = stored
	s.order = append(s.order, action.ID)
	return action.ID, nil
}

// QueryActions filters stored actions in insertion order.
func (s *MemoryStore) QueryActions(_ context.Context, filter Filter, limit int) ([]records.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []records.Action
	for _, id := range s.order {
		a := s.actions[id]
		if filter.ID != "" && a.ID != filter.ID {
			continue
		}
		if filter.ExperimentID != "" && a.ExperimentID != filter.ExperimentID {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// DistinctExperimentIDs lists experiments in first-seen order.
func (s *MemoryStore) DistinctExperimentIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for _, id := range s.order {
		exp := s.actions[id].ExperimentID
		if !seen[exp] {
			seen[exp] = true
			ids = append(ids, exp)
		}
	}
	return ids, nil
}

// DistinctVariantIDs lists variants observed for one experiment.
func (s *MemoryStore) DistinctVariantIDs(_ context.Context, experimentID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for _, id := range s.order {
		a := s.actions[id]
		if a.ExperimentID != experimentID {
			continue
		}
		if !seen[a.VariantID] {
			seen[a.VariantID] = true
			ids = append(ids, a.VariantID)
		}
	}
	return ids, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
