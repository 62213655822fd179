package vqe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "entropica"
	subsystem        = "vqe"
)

var (
	// Evaluation throughput metrics
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "evaluations_total",
			Help:      "Total number of cost function evaluations",
		},
		[]string{"backend"},
	)

	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "evaluation_duration_seconds",
			Help:      "Time taken to evaluate the cost function once",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// Sampling volume metrics
	shotsSampled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "shots_sampled_total",
			Help:      "Total number of shots consumed by evaluations",
		},
		[]string{"backend"},
	)

	// Last observed energy per backend
	lastEnergy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "last_energy",
			Help:      "Most recently evaluated energy expectation value",
		},
		[]string{"backend"},
	)
)
