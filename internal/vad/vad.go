package vad

import (
	"log"

	"lingua/voice/internal/audio"
)

// State is the detector phase.
type State int

const (
	StateCalibrating State = iota
	StateListening
	StateSpeechDetected
	StateSilenceAfterSpeech
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateCalibrating:
		return "CALIBRATING"
	case StateListening:
		return "LISTENING"
	case StateSpeechDetected:
		return "SPEECH_DETECTED"
	case StateSilenceAfterSpeech:
		return "SILENCE_AFTER_SPEECH"
	case StateEnded:
		return "ENDED"
	}
	return "UNKNOWN"
}

// EventKind classifies detector output per processed frame.
type EventKind int

const (
	EventNone EventKind = iota
	EventCalibrated
	EventSpeechStart
	EventSpeechEnd
	EventSpeechDiscarded
)

// Event is what Process reports back to the controller.
type Event struct {
	Kind       EventKind
	NoiseFloor float64
}

// Config holds the detector tunables. Energy values are RMS levels of
// PCM16 frames.
type Config struct {
	CalibFramesFull    int
	CalibFramesQuick   int
	MinNoiseFloor      float64
	StartFactor        float64
	MinStartLevel      float64
	EndFactor          float64
	MinSpeechFrames    int
	MinSilenceFrames   int
	MinSpeechDurFrames int
	RelaxAfterFrames   int
	RelaxStep          float64
	RelaxFloorFactor   float64
	OutlierFactor      float64
}

// DefaultConfig returns tunables suitable for 16kHz 20ms frames.
func DefaultConfig() Config {
	return Config{
		CalibFramesFull:    150,
		CalibFramesQuick:   30,
		MinNoiseFloor:      120.0,
		StartFactor:        2.2,
		MinStartLevel:      500.0,
		EndFactor:          0.5,
		MinSpeechFrames:    3,
		MinSilenceFrames:   25,
		MinSpeechDurFrames: 10,
		RelaxAfterFrames:   50,
		RelaxStep:          0.85,
		RelaxFloorFactor:   0.4,
		OutlierFactor:      3.0,
	}
}

// Detector classifies a stream of energy samples into speech and silence
// without a fixed volume threshold. Thresholds derive from a calibrated
// noise floor with hysteresis between speech start and speech end.
//
// Not safe for concurrent use; one detector serves one session and is
// driven from the audio frame loop.
type Detector struct {
	cfg Config

	state State
	calib *calibration

	noiseFloor float64
	startLevel float64
	endLevel   float64
	// effEndLevel is the end threshold after adaptive relaxation; it is
	// restored to endLevel whenever speech resumes.
	effEndLevel float64

	speechRun    int
	silenceRun   int
	speechFrames int
	quietRun     int
}

// New creates a detector in full calibration.
func New(cfg Config) *Detector {
	d := &Detector{cfg: cfg}
	d.Recalibrate(CalibFull)
	return d
}

func (d *Detector) State() State        { return d.state }
func (d *Detector) NoiseFloor() float64 { return d.noiseFloor }

// StartLevel exposes the active speech-start threshold (for diagnostics).
func (d *Detector) StartLevel() float64 { return d.startLevel }

// Recalibrate re-enters the calibrating state. Quick mode is used when
// resuming after a machine utterance so listening restarts fast.
func (d *Detector) Recalibrate(mode Mode) {
	target := d.cfg.CalibFramesFull
	if mode == CalibQuick {
		target = d.cfg.CalibFramesQuick
	}
	d.calib = newCalibration(mode, target, d.cfg.OutlierFactor, d.cfg.MinNoiseFloor)
	d.state = StateCalibrating
	d.resetRuns()
	metricCalibrations.WithLabelValues(mode.String()).Inc()
}

func (d *Detector) resetRuns() {
	d.speechRun = 0
	d.silenceRun = 0
	d.speechFrames = 0
	d.quietRun = 0
}

// Process consumes one energy sample and reports at most one event.
func (d *Detector) Process(s audio.EnergySample) Event {
	metricFrames.Inc()

	switch d.state {
	case StateCalibrating:
		if !d.calib.add(s.Avg) {
			return Event{Kind: EventNone}
		}
		d.noiseFloor = d.calib.floor()
		d.startLevel = d.noiseFloor * d.cfg.StartFactor
		if d.startLevel < d.cfg.MinStartLevel {
			d.startLevel = d.cfg.MinStartLevel
		}
		d.endLevel = d.startLevel * d.cfg.EndFactor
		d.effEndLevel = d.endLevel
		d.state = StateListening
		d.resetRuns()
		metricNoiseFloor.Observe(d.noiseFloor)
		log.Printf("[vad] calibrated mode=%s noise_floor=%.1f start=%.1f end=%.1f",
			d.calib.mode, d.noiseFloor, d.startLevel, d.endLevel)
		return Event{Kind: EventCalibrated, NoiseFloor: d.noiseFloor}

	case StateListening:
		if d.above(s, d.startLevel) {
			d.speechRun++
			if d.speechRun >= d.cfg.MinSpeechFrames {
				d.state = StateSpeechDetected
				d.speechFrames = d.speechRun
				d.silenceRun = 0
				d.quietRun = 0
				metricStarts.Inc()
				return Event{Kind: EventSpeechStart, NoiseFloor: d.noiseFloor}
			}
		} else {
			d.speechRun = 0
		}

	case StateSpeechDetected:
		if d.above(s, d.effEndLevel) {
			d.speechFrames++
			d.quietRun = 0
			d.effEndLevel = d.endLevel
		} else {
			d.state = StateSilenceAfterSpeech
			d.silenceRun = 1
			d.quietRun = 1
		}

	case StateSilenceAfterSpeech:
		if d.above(s, d.effEndLevel) {
			// Speech resumed before the silence run completed.
			d.state = StateSpeechDetected
			d.speechFrames++
			d.silenceRun = 0
			d.quietRun = 0
			d.effEndLevel = d.endLevel
			return Event{Kind: EventNone}
		}
		d.silenceRun++
		d.quietRun++
		d.relax()
		if d.silenceRun >= d.cfg.MinSilenceFrames {
			if d.speechFrames < d.cfg.MinSpeechDurFrames {
				// Too short to be speech; treat as noise and keep listening.
				d.state = StateListening
				d.resetRuns()
				metricDiscards.Inc()
				return Event{Kind: EventSpeechDiscarded, NoiseFloor: d.noiseFloor}
			}
			d.state = StateEnded
			metricEnds.Inc()
			ev := Event{Kind: EventSpeechEnd, NoiseFloor: d.noiseFloor}
			// The next turn starts with a quick recalibration.
			d.Recalibrate(CalibQuick)
			return ev
		}

	case StateEnded:
		// Inert until recalibrated.
	}
	return Event{Kind: EventNone}
}

// relax lowers the effective end threshold after a long quiet run so
// trailing quiet speech is not mistaken for ongoing silence.
func (d *Detector) relax() {
	if d.cfg.RelaxAfterFrames <= 0 || d.quietRun < d.cfg.RelaxAfterFrames {
		return
	}
	if d.quietRun%d.cfg.RelaxAfterFrames != 0 {
		return
	}
	floor := d.endLevel * d.cfg.RelaxFloorFactor
	next := d.effEndLevel * d.cfg.RelaxStep
	if next < floor {
		next = floor
	}
	d.effEndLevel = next
	metricRelaxations.Inc()
}

// above reports whether a sample counts as speech against a threshold:
// either the average or the peak energy exceeds it.
func (d *Detector) above(s audio.EnergySample, level float64) bool {
	return s.Avg >= level || s.Peak >= level
}
