package vad

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_frames_total",
		Help: "Total energy frames processed",
	})

	metricStarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_speech_starts_total",
		Help: "Total confirmed speech start events",
	})

	metricEnds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_speech_ends_total",
		Help: "Total confirmed speech end events",
	})

	metricDiscards = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_speech_discarded_total",
		Help: "Speech bursts discarded for being under the minimum duration",
	})

	metricRelaxations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_end_threshold_relaxations_total",
		Help: "Adaptive end-threshold relaxation steps applied",
	})

	metricCalibrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vad_calibrations_total",
		Help: "Calibration passes by mode",
	}, []string{"mode"})

	metricNoiseFloor = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vad_noise_floor",
		Help:    "Calibrated noise floor (RMS)",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 10),
	})
)
