package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		transitionsTotal,
		accountCallsTotal,
		accountCallLatencyMs,
		storeErrorsTotal,
		lockWaitMs,
	)
}

var (
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_transitions_total",
			Help: "Conversation transitions by source and destination state.",
		},
		[]string{"from", "to"},
	)

	accountCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_calls_total",
			Help: "Remote account service calls by call kind and outcome.",
		},
		[]string{"call", "outcome"},
	)

	accountCallLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "account_call_latency_ms",
			Help:    "Remote account service latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"call"},
	)

	storeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_store_errors_total",
			Help: "Session store failures by backend and operation.",
		},
		[]string{"backend", "op"},
	)

	lockWaitMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "session_lock_wait_ms",
			Help:    "Time spent waiting for the per-conversation lock.",
			Buckets: []float64{0.5, 1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"lock"},
	)
)

func IncTransition(from, to string) {
	transitionsTotal.WithLabelValues(norm(from), norm(to)).Inc()
}

func ObserveAccountCall(call, outcome string, took time.Duration) {
	accountCallsTotal.WithLabelValues(norm(call), norm(outcome)).Inc()
	accountCallLatencyMs.WithLabelValues(norm(call)).Observe(float64(took.Milliseconds()))
}

func IncStoreError(backend, op string) {
	storeErrorsTotal.WithLabelValues(norm(backend), norm(op)).Inc()
}

func ObserveLockWait(lock string, waited time.Duration) {
	lockWaitMs.WithLabelValues(norm(lock)).Observe(float64(waited) / float64(time.Millisecond))
}
