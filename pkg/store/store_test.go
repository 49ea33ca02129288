package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"banditflow/pkg/records"
)

func mkAction(experimentID, variantID string, reward int) *records.Action {
	return &records.Action{
		ID:           uuid.NewString(),
		ExperimentID: experimentID,
		VariantID:    variantID,
		Reward:       reward,
	}
}

func TestUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mkAction(uuid.NewString(), uuid.NewString(), 1)

	first, err := s.UpsertAction(ctx, a)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := s.UpsertAction(ctx, a)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first != second || first != a.ID {
		t.Fatalf("expected same id both times, got %s and %s", first, second)
	}

	rows, err := s.QueryActions(ctx, Filter{ID: a.ID}, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestUpsertRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	bad := mkAction(uuid.NewString(), uuid.NewString(), 1)
	bad.ID = "not-a-uuid"
	if _, err := s.UpsertAction(ctx, bad); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}

	bad = mkAction(uuid.NewString(), uuid.NewString(), 3)
	if _, err := s.UpsertAction(ctx, bad); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for reward 3, got %v", err)
	}
}

func TestQueryFiltersAndLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	exp1, exp2 := uuid.NewString(), uuid.NewString()
	variant := uuid.NewString()

	for i := 0; i < 3; i++ {
		if _, err := s.UpsertAction(ctx, mkAction(exp1, variant, 0)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if _, err := s.UpsertAction(ctx, mkAction(exp2, variant, 1)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := s.QueryActions(ctx, Filter{ExperimentID: exp1}, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows for %s, got %d", exp1, len(rows))
	}

	rows, err = s.QueryActions(ctx, Filter{ExperimentID: exp1}, 2)
	if err != nil {
		t.Fatalf("query with limit: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected limit 2 to apply, got %d rows", len(rows))
	}

	// limit <= 0 means unlimited
	rows, err = s.QueryActions(ctx, Filter{}, -1)
	if err != nil {
		t.Fatalf("query unlimited: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected all 4 rows, got %d", len(rows))
	}
}

func TestDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	exp1, exp2 := uuid.NewString(), uuid.NewString()
	v1, v2 := uuid.NewString(), uuid.NewString()

	for i := 0; i < 2; i++ {
		s.UpsertAction(ctx, mkAction(exp1, v1, 1))
		s.UpsertAction(ctx, mkAction(exp1, v2, 0))
		s.UpsertAction(ctx, mkAction(exp2, v1, 0))
	}

	exps, err := s.DistinctExperimentIDs(ctx)
	if err != nil {
		t.Fatalf("distinct experiments: %v", err)
	}
	if len(exps) != 2 {
		t.Fatalf("expected 2 experiments, got %d", len(exps))
	}

	variants, err := s.DistinctVariantIDs(ctx, exp1)
	if err != nil {
		t.Fatalf("distinct variants: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants for %s, got %d", exp1, len(variants))
	}

	variants, err = s.DistinctVariantIDs(ctx, exp2)
	if err != nil {
		t.Fatalf("distinct variants: %v", err)
	}
	if len(variants) != 1 {
		t.Fatalf("expected 1 variant for %s, got %d", exp2, len(variants))
	}
}
