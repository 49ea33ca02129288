// Package records defines the wire-level record types shared by the
// experimentation pipeline: observed actions, experiment registrations,
// and published probability snapshots.
package records

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action is one observed reward-bearing event for a running experiment.
// An action is immutable once persisted; duplicate deliveries of the same
// ID must collapse into a single stored row.
type Action struct {
	ID           string          `json:"id"`
	ExperimentID string          `json:"experiment_id"`
	VariantID    string          `json:"variant_id"`
	Reward       int             `json:"reward"`
	Context      json.RawMessage `json:"context,omitempty"`
	RecordedAt   time.Time       `json:"recorded_at,omitempty"`
}

// ExperimentInit registers a (experiment, variant) pair so its counters
// can be seeded before traffic arrives.
type ExperimentInit struct {
	ExperimentID string `json:"experiment_id"`
	VariantID    string `json:"variant_id"`
}

// Validate checks identity and reward domain. Identifiers must be UUIDs;
// reward is Bernoulli, 0 or 1.
func (a *Action) Validate() error {
	if _, err := uuid.Parse(a.ID); err != nil {
		return fmt.Errorf("action id %q is not a UUID: %w", a.ID, err)
	}
	if _, err := uuid.Parse(a.ExperimentID); err != nil {
		return fmt.Errorf("experiment id %q is not a UUID: %w", a.ExperimentID, err)
	}
	if _, err := uuid.Parse(a.VariantID); err != nil {
		return fmt.Errorf("variant id %q is not a UUID: %w", a.VariantID, err)
	}
	if a.Reward != 0 && a.Reward != 1 {
		return fmt.Errorf("reward must be 0 or 1, got %d", a.Reward)
	}
	return nil
}

// DecodeAction parses and validates an inbound action payload.
func DecodeAction(data []byte) (*Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks that both identifiers are UUIDs.
func (e *ExperimentInit) Validate() error {
	if _, err := uuid.Parse(e.ExperimentID); err != nil {
		return fmt.Errorf("experiment id %q is not a UUID: %w", e.ExperimentID, err)
	}
	if _, err := uuid.Parse(e.VariantID); err != nil {
		return fmt.Errorf("variant id %q is not a UUID: %w", e.VariantID, err)
	}
	return nil
}

// DecodeExperimentInit parses and validates a registration payload.
func DecodeExperimentInit(data []byte) (*ExperimentInit, error) {
	var e ExperimentInit
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode experiment init: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// ProbabilitySnapshot maps variant ids to their sampled selection
// probabilities for one experiment.
type ProbabilitySnapshot map[string]float64

// Encode serializes the snapshot for the cache and the outbound stream.
func (p ProbabilitySnapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot previously produced by Encode.
func DecodeSnapshot(data []byte) (ProbabilitySnapshot, error) {
	var p ProbabilitySnapshot
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return p, nil
}
