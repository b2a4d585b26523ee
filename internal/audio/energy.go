package audio

import (
	"math"
	"time"
)

// EnergySample describes the loudness of a single microphone frame.
type EnergySample struct {
	Avg  float64
	Peak float64
	At   time.Time
}

// Meter converts raw PCM16LE frames into energy samples.
type Meter struct {
	sampleRate int
	frameMs    int
}

func NewMeter(sampleRate, frameMs int) *Meter {
	return &Meter{sampleRate: sampleRate, frameMs: frameMs}
}

// FrameBytes returns the expected byte length of one frame.
func (m *Meter) FrameBytes() int {
	return m.sampleRate * m.frameMs / 1000 * 2
}

// Sample computes the RMS and peak energy of a PCM16LE frame.
func (m *Meter) Sample(pcm []byte, now time.Time) EnergySample {
	if len(pcm) < 2 {
		return EnergySample{At: now}
	}
	var sum float64
	var peak float64
	n := len(pcm) / 2
	for i := 0; i < n; i++ {
		// Little-endian int16
		s := float64(int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8))
		sum += s * s
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return EnergySample{Avg: math.Sqrt(sum / float64(n)), Peak: peak, At: now}
}
