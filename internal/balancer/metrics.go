package balancer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	optimizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "craft_balancer_optimize_duration_seconds",
			Help:    "Duration of a single-count balancing run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	optimizeIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "craft_balancer_iterations",
			Help:    "Balancing passes needed per run",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 50, 100},
		},
	)

	optimizeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craft_balancer_optimizations_total",
			Help: "Total number of balancing runs by outcome",
		},
		[]string{"status"},
	)

	settlementsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "craft_balancer_settlements_total",
			Help: "Total number of throughput settlements performed",
		},
	)
)

const (
	statusConverged    = "converged"
	statusNotConverged = "not_converged"
	statusError        = "error"
)
