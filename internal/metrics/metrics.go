package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Workflow metrics
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seeker_research_runs_started_total",
			Help: "Total number of research runs started",
		},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeker_research_runs_completed_total",
			Help: "Total number of research runs completed",
		},
		[]string{"status"}, // completed|forced|failed
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seeker_research_run_duration_seconds",
			Help:    "Research run duration in seconds",
			Buckets: []float64{1, 5, 10, 15, 20, 25, 30, 45, 60, 120},
		},
	)

	IterationsPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seeker_research_iterations_per_run",
			Help:    "Planning iterations consumed per research run",
			Buckets: []float64{0, 1, 2},
		},
	)

	BreakerForcedRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seeker_research_breaker_forced_total",
			Help: "Runs terminated by the iteration bound with partial data",
		},
	)

	// Stage metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seeker_stage_duration_seconds",
			Help:    "Stage activity duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // plan|search|evaluate|synthesize
	)

	// Fan-out metrics
	SearchCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeker_search_calls_total",
			Help: "Individual search calls by outcome",
		},
		[]string{"provider", "outcome"}, // ok|error|timeout
	)

	FanOutFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seeker_fanout_failed_calls_total",
			Help: "Failed search calls absorbed at the fan-out join",
		},
	)

	EvidenceGathered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seeker_evidence_items_total",
			Help: "Evidence items accumulated across all runs",
		},
	)

	// Provider metrics
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeker_provider_calls_total",
			Help: "External provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "seeker_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeker_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
