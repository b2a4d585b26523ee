package turn

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPhase = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_phase_transitions_total",
		Help: "Controller phase transitions by target phase",
	}, []string{"to"})

	metricTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_turns_total",
		Help: "Completed turns by outcome",
	}, []string{"result"})

	metricBargeIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turn_barge_ins_total",
		Help: "User interruptions during a machine response",
	})

	metricBargeLatencyMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "turn_barge_in_latency_ms",
		Help:    "Time from interruption onset to playback stopped",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})
)
