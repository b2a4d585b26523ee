package callws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callws_connections_total",
		Help: "Accepted call websocket connections",
	})

	metricFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callws_audio_frames_total",
		Help: "Inbound PCM frames received over call connections",
	})
)
