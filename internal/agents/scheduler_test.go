package agents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"banditflow/pkg/leader"
	"banditflow/pkg/store"
	"banditflow/pkg/stream"
)

func TestTickDispatchesOncePerExperiment(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	bus := stream.NewBus(16)
	exp1, exp2 := uuid.NewString(), uuid.NewString()

	// Several variants per experiment; dispatch is still one per experiment.
	for _, exp := range []string{exp1, exp2} {
		for i := 0; i < 3; i++ {
			if _, err := s.UpsertAction(ctx, mkAction(exp, uuid.NewString(), 1)); err != nil {
				t.Fatalf("upsert: %v", err)
			}
		}
	}

	requests := bus.Subscribe("recompute")
	sched := NewScheduler(s, leader.Static(true), bus, "recompute", time.Second)

	n, err := sched.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if n != 2 {
		t.Fatalf("dispatched %d requests, want 2", n)
	}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-requests:
			got[string(msg)] = true
		case <-time.After(time.Second):
			t.Fatal("missing dispatch")
		}
	}
	if !got[exp1] || !got[exp2] {
		t.Fatalf("expected dispatches for both experiments, got %v", got)
	}
}

func TestTickWithEmptyStore(t *testing.T) {
	ctx := context.Background()
	sched := NewScheduler(store.NewMemoryStore(), leader.Static(true), stream.NewBus(1), "recompute", time.Second)
	n, err := sched.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if n != 0 {
		t.Fatalf("dispatched %d requests from empty store", n)
	}
}

func TestRunSkipsTicksWhenNotLeader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemoryStore()
	if _, err := s.UpsertAction(ctx, mkAction(uuid.NewString(), uuid.NewString(), 1)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	bus := stream.NewBus(16)
	requests := bus.Subscribe("recompute")

	sched := NewScheduler(s, leader.Static(false), bus, "recompute", 5*time.Millisecond)
	go sched.Run(ctx)

	select {
	case msg := <-requests:
		t.Fatalf("non-leader dispatched %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunDispatchesWhenLeader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemoryStore()
	exp := uuid.NewString()
	if _, err := s.UpsertAction(ctx, mkAction(exp, uuid.NewString(), 1)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	bus := stream.NewBus(16)
	requests := bus.Subscribe("recompute")

	sched := NewScheduler(s, leader.Static(true), bus, "recompute", 5*time.Millisecond)
	go sched.Run(ctx)

	select {
	case msg := <-requests:
		if string(msg) != exp {
			t.Fatalf("dispatched %q, want %q", msg, exp)
		}
	case <-time.After(time.Second):
		t.Fatal("leader never dispatched")
	}
}
