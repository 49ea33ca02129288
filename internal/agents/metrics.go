package agents

import "github.com/prometheus/client_golang/prometheus"

var (
	actionsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bandit", Subsystem: "pipeline", Name: "actions_ingested_total", Help: "Inbound actions by outcome."},
		[]string{"result"},
	)
	countersUpdated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bandit", Subsystem: "pipeline", Name: "counter_increments_total", Help: "Cache counter increments."},
		[]string{"counter"},
	)
	experimentsInitialized = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bandit", Subsystem: "pipeline", Name: "experiments_initialized_total", Help: "Experiment counter initializations by outcome."},
		[]string{"result"},
	)
	schedulerDispatches = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "bandit", Subsystem: "pipeline", Name: "scheduler_dispatches_total", Help: "Recompute requests dispatched."},
	)
	recomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bandit", Subsystem: "pipeline", Name: "recomputes_total", Help: "Probability recomputations by outcome."},
		[]string{"result"},
	)
)

func init() {
	_ = prometheus.Register(actionsIngested)
	_ = prometheus.Register(countersUpdated)
	_ = prometheus.Register(experimentsInitialized)
	_ = prometheus.Register(schedulerDispatches)
	_ = prometheus.Register(recomputes)
}
