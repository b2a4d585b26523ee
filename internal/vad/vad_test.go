package vad

import (
	"math"
	"testing"
	"time"

	"lingua/voice/internal/audio"
)

func sample(avg float64) audio.EnergySample {
	return audio.EnergySample{Avg: avg, Peak: avg, At: time.Now()}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CalibFramesFull = 10
	cfg.CalibFramesQuick = 4
	cfg.MinSpeechFrames = 3
	cfg.MinSilenceFrames = 5
	cfg.MinSpeechDurFrames = 6
	cfg.RelaxAfterFrames = 10
	return cfg
}

// calibrate drives the detector out of calibration at the given ambient level.
func calibrate(t *testing.T, d *Detector, level float64) Event {
	t.Helper()
	for i := 0; i < 100; i++ {
		ev := d.Process(sample(level))
		if ev.Kind == EventCalibrated {
			return ev
		}
	}
	t.Fatalf("calibration did not complete")
	return Event{}
}

func TestCalibrationConvergence(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)

	ev := calibrate(t, d, 200.0)
	if math.Abs(ev.NoiseFloor-200.0) > 1.0 {
		t.Fatalf("expected noise floor ~200, got %f", ev.NoiseFloor)
	}
	if d.State() != StateListening {
		t.Fatalf("expected LISTENING after calibration, got %s", d.State())
	}
}

func TestCalibrationNeverBelowMinimum(t *testing.T) {
	cfg := testConfig()
	cfg.MinNoiseFloor = 120.0
	d := New(cfg)

	ev := calibrate(t, d, 0.0)
	if ev.NoiseFloor != 120.0 {
		t.Fatalf("expected noise floor clamped to 120, got %f", ev.NoiseFloor)
	}
	if d.StartLevel() < cfg.MinStartLevel {
		t.Fatalf("start level %f below configured minimum %f", d.StartLevel(), cfg.MinStartLevel)
	}
}

func TestCalibrationRejectsOutliers(t *testing.T) {
	cfg := testConfig()
	cfg.CalibFramesFull = 20
	d := New(cfg)

	// Ambient at 200 with loud spikes interleaved after warmup.
	var ev Event
	for i := 0; ev.Kind != EventCalibrated && i < 200; i++ {
		level := 200.0
		if i > calibWarmup && i%4 == 0 {
			level = 5000.0
		}
		ev = d.Process(sample(level))
	}
	if ev.Kind != EventCalibrated {
		t.Fatalf("calibration did not complete")
	}
	if ev.NoiseFloor > 300.0 {
		t.Fatalf("outliers leaked into noise floor: %f", ev.NoiseFloor)
	}
}

func TestSpeechStartDebounce(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	calibrate(t, d, 200.0)

	loud := d.StartLevel() + 100

	// Two loud frames are not enough (MinSpeechFrames=3).
	for i := 0; i < 2; i++ {
		if ev := d.Process(sample(loud)); ev.Kind != EventNone {
			t.Fatalf("unexpected event after %d frames: %v", i+1, ev.Kind)
		}
	}
	// A quiet frame resets the run.
	d.Process(sample(100.0))
	for i := 0; i < 2; i++ {
		if ev := d.Process(sample(loud)); ev.Kind != EventNone {
			t.Fatalf("run should have been reset, got event %v", ev.Kind)
		}
	}
	if ev := d.Process(sample(loud)); ev.Kind != EventSpeechStart {
		t.Fatalf("expected speech start on third consecutive frame, got %v", ev.Kind)
	}
	if d.State() != StateSpeechDetected {
		t.Fatalf("expected SPEECH_DETECTED, got %s", d.State())
	}
}

func TestMinimumDurationFiltering(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	calibrate(t, d, 200.0)

	loud := d.StartLevel() + 100

	// A burst just long enough to confirm start but shorter than the
	// minimum viable duration.
	var started bool
	for i := 0; i < cfg.MinSpeechFrames; i++ {
		if ev := d.Process(sample(loud)); ev.Kind == EventSpeechStart {
			started = true
		}
	}
	if !started {
		t.Fatalf("speech start not confirmed")
	}

	var got EventKind
	for i := 0; i < cfg.MinSilenceFrames+2; i++ {
		if ev := d.Process(sample(50.0)); ev.Kind != EventNone {
			got = ev.Kind
			break
		}
	}
	if got != EventSpeechDiscarded {
		t.Fatalf("expected short burst to be discarded, got %v", got)
	}
	if d.State() != StateListening {
		t.Fatalf("expected detector back in LISTENING, got %s", d.State())
	}
}

func TestSpeechEndAfterSilenceRun(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	calibrate(t, d, 200.0)

	loud := d.StartLevel() + 100

	for i := 0; i < cfg.MinSpeechDurFrames+2; i++ {
		d.Process(sample(loud))
	}

	var got EventKind
	for i := 0; i < cfg.MinSilenceFrames+2; i++ {
		if ev := d.Process(sample(50.0)); ev.Kind != EventNone {
			got = ev.Kind
			break
		}
	}
	if got != EventSpeechEnd {
		t.Fatalf("expected speech end, got %v", got)
	}
	// The detector re-enters quick calibration for the next turn.
	if d.State() != StateCalibrating {
		t.Fatalf("expected CALIBRATING after speech end, got %s", d.State())
	}
}

func TestSpeechResumesDuringSilenceRun(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	calibrate(t, d, 200.0)

	loud := d.StartLevel() + 100

	for i := 0; i < cfg.MinSpeechDurFrames; i++ {
		d.Process(sample(loud))
	}
	// A few silence frames, fewer than the end run, then speech again.
	for i := 0; i < cfg.MinSilenceFrames-1; i++ {
		if ev := d.Process(sample(50.0)); ev.Kind != EventNone {
			t.Fatalf("premature event %v", ev.Kind)
		}
	}
	d.Process(sample(loud))
	if d.State() != StateSpeechDetected {
		t.Fatalf("expected return to SPEECH_DETECTED, got %s", d.State())
	}
}

func TestEndThresholdHysteresis(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	calibrate(t, d, 400.0)

	if d.endLevel >= d.startLevel {
		t.Fatalf("end threshold %f should be below start threshold %f", d.endLevel, d.startLevel)
	}
	if math.Abs(d.endLevel-d.startLevel*cfg.EndFactor) > 0.01 {
		t.Fatalf("end threshold %f not %f x start", d.endLevel, cfg.EndFactor)
	}
}

func TestAdaptiveRelaxation(t *testing.T) {
	cfg := testConfig()
	cfg.MinSilenceFrames = 100 // keep the run going so relaxation can fire
	cfg.RelaxAfterFrames = 10
	d := New(cfg)
	calibrate(t, d, 400.0)

	loud := d.StartLevel() + 100
	for i := 0; i < cfg.MinSpeechDurFrames+2; i++ {
		d.Process(sample(loud))
	}

	before := d.effEndLevel
	for i := 0; i < cfg.RelaxAfterFrames+1; i++ {
		d.Process(sample(10.0))
	}
	if d.effEndLevel >= before {
		t.Fatalf("expected effective end threshold to relax below %f, got %f", before, d.effEndLevel)
	}
	floor := d.endLevel * cfg.RelaxFloorFactor
	for i := 0; i < cfg.RelaxAfterFrames*20; i++ {
		d.Process(sample(10.0))
		if d.State() != StateSilenceAfterSpeech {
			break
		}
	}
	if d.effEndLevel < floor-0.01 {
		t.Fatalf("relaxation went below its floor: %f < %f", d.effEndLevel, floor)
	}
}

func TestQuickRecalibrationLength(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	calibrate(t, d, 200.0)

	d.Recalibrate(CalibQuick)
	var frames int
	for frames = 1; frames <= cfg.CalibFramesFull; frames++ {
		if ev := d.Process(sample(200.0)); ev.Kind == EventCalibrated {
			break
		}
	}
	if frames != cfg.CalibFramesQuick {
		t.Fatalf("quick calibration took %d frames, want %d", frames, cfg.CalibFramesQuick)
	}
}
