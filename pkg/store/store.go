// Package store persists observed actions and answers the discovery
// queries the scheduler and calculator run against the durable store.
package store

import (
	"context"
	"errors"
	"fmt"

	"banditflow/pkg/records"
)

// ErrInvalidAction marks an action rejected before it reaches the backing
// store: non-UUID identifiers or an out-of-domain reward.
var ErrInvalidAction = errors.New("invalid action")

// Error wraps a backing-store failure with the operation that hit it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Filter narrows a QueryActions call. Zero-value fields are ignored.
type Filter struct {
	ID           string
	ExperimentID string
}

// DefaultQueryLimit applies when callers pass no explicit limit.
const DefaultQueryLimit = 500

// ActionStore is the durable-store contract. UpsertAction is idempotent on
// the action id: redelivery of an already-persisted id succeeds and returns
// the existing identifier without touching the stored row.
type ActionStore interface {
	UpsertAction(ctx context.Context, action *records.Action) (string, error)
	// QueryActions returns persisted actions matching the filter.
	// limit <= 0 means unlimited.
	QueryActions(ctx context.Context, filter Filter, limit int) ([]records.Action, error)
	DistinctExperimentIDs(ctx context.Context) ([]string, error)
	DistinctVariantIDs(ctx context.Context, experimentID string) ([]string, error)
	Close() error
}
