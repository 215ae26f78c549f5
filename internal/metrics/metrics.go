package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, path, and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minivault_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "path", "status"})

	// GenerateDuration tracks end-to-end generation latency per serving tier.
	GenerateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "minivault_generate_duration_seconds",
		Help:    "Time spent handling a generate request.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"method"})

	// InteractionsTotal counts journaled interactions per serving tier.
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minivault_interactions_total",
		Help: "Total interactions recorded, by serving tier.",
	}, []string{"method"})

	// JournalWriteFailures counts interaction log appends that failed.
	JournalWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minivault_journal_write_failures_total",
		Help: "Interaction log writes that could not be completed.",
	})

	// BackendAvailable reports the startup probe result per backend.
	BackendAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "minivault_backend_available",
		Help: "Whether a generation backend was reachable at startup (1) or not (0).",
	}, []string{"backend"})
)
