package transcribe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_requests_total",
		Help: "Transcription attempts by backend and status",
	}, []string{"backend", "status"})

	metricFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_fallbacks_total",
		Help: "Times the router advanced past a failed backend",
	})

	metricUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_unavailable_total",
		Help: "Turns where every transcription backend failed",
	})

	metricLatencyMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcribe_latency_ms",
		Help:    "Latency of a successful transcription",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 10),
	})
)
