package synth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synth_generations_total",
		Help: "Utterance generation requests by status",
	}, []string{"status"})

	metricPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synth_utterances_played_total",
		Help: "Utterances played to completion",
	})

	metricSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synth_utterances_skipped_total",
		Help: "Utterances skipped after generation or playback failure",
	})

	metricCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synth_cancelled_total",
		Help: "Speak calls aborted by cancellation (barge-in or stop)",
	})

	metricFirstAudioMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "synth_first_audio_ms",
		Help:    "Latency from Speak start to first audible utterance",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 12),
	})

	metricProviderMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "synth_provider_latency_ms",
		Help:    "Latency of one synthesis provider request",
		Buckets: prometheus.ExponentialBuckets(20, 1.6, 10),
	})
)
