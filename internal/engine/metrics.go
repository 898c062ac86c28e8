package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reconcileOps counts staged passes and committed answer writes by operation
	reconcileOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynaform_reconcile_operations_total",
		Help: "Answer reconciliation operations by type",
	}, []string{"operation"})

	// commitDuration tracks per-question commit latency
	commitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dynaform_commit_duration_seconds",
		Help:    "Answer commit duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	// questionOutcomes counts submitted questions by route and result
	questionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynaform_question_outcomes_total",
		Help: "Submitted questions by storage route and result",
	}, []string{"route", "result"})

	// conditionEvaluations counts condition evaluations by mode and result
	conditionEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynaform_condition_evaluations_total",
		Help: "Condition evaluations by mode and result",
	}, []string{"mode", "result"})

	// choiceFetches counts choice source loads by origin and result
	choiceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynaform_choice_fetches_total",
		Help: "Choice source loads by origin and result",
	}, []string{"origin", "result"})
)
