package program

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liftplan_program_generations_total",
		Help: "Program generation requests by result",
	}, []string{"result"})

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "liftplan_program_generation_duration_seconds",
		Help:    "End-to-end program generation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
	})

	generatedSessions = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "liftplan_program_sessions",
		Help:    "Sessions per generated program",
		Buckets: []float64{3, 6, 12, 24, 48},
	})

	setMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liftplan_set_mutations_total",
		Help: "Set update/add/delete operations by operation and result",
	}, []string{"operation", "result"})
)
