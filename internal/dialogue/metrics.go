package dialogue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_requests_total",
		Help: "Dialogue completions by status",
	}, []string{"status"})

	metricLatencyMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dialogue_latency_ms",
		Help:    "Latency of a successful dialogue completion",
		Buckets: prometheus.ExponentialBuckets(100, 1.7, 10),
	})
)
