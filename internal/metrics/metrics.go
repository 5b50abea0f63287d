// Package metrics exposes the coordinator's Prometheus instruments,
// served on /metrics by the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksProcessed counts finished executions by agent and outcome
	// (completed|failed).
	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coordinator_tasks_processed_total",
		Help: "Task executions finished, labeled by agent and outcome.",
	}, []string{"agent", "outcome"})

	// TaskDuration observes wall-clock execution time per agent.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordinator_task_duration_seconds",
		Help:    "Task execution duration in seconds, labeled by agent.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"agent"})

	// TasksDelegated counts follow-on tasks spawned by coordinator
	// delegate decisions.
	TasksDelegated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coordinator_tasks_delegated_total",
		Help: "Delegated follow-on tasks inserted by the dispatch loop.",
	})

	// Cycles counts dispatch poll cycles.
	Cycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coordinator_dispatch_cycles_total",
		Help: "Completed dispatch poll cycles.",
	})

	// TokensUsed accumulates provider token usage by agent.
	TokensUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coordinator_tokens_used_total",
		Help: "LLM tokens consumed, labeled by agent.",
	}, []string{"agent"})
)
