package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

var (
	// facadeCalls counts facade operations by outcome ("ok" or the error kind).
	facadeCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facade_operations_total",
			Help: "Total number of facade operations by facade, operation and outcome.",
		},
		[]string{"facade", "op", "outcome"},
	)

	// simulatedDelay records the artificial latency applied per call.
	simulatedDelay = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "facade_simulated_delay_seconds",
			Help:    "Artificial latency applied before facade operations.",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 1},
		},
		[]string{"facade"},
	)
)

func init() {
	prometheus.MustRegister(facadeCalls, simulatedDelay)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := domain.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
