// Package turn drives the conversation loop: it owns the phase machine,
// feeds captured audio through voice detection, and runs each completed
// user utterance through transcription, dialogue and speech synthesis.
package turn

import (
	"context"
	"log"
	"sync"
	"time"

	"lingua/voice/internal/audio"
	"lingua/voice/internal/segment"
	"lingua/voice/internal/synth"
	"lingua/voice/internal/transcribe"
	"lingua/voice/internal/vad"
)

// Phase is the controller's coarse state.
type Phase int

const (
	PhaseListening Phase = iota
	PhaseProcessing
	PhaseSpeaking
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseListening:
		return "LISTENING"
	case PhaseProcessing:
		return "PROCESSING"
	case PhaseSpeaking:
		return "SPEAKING"
	case PhaseStopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}

// Transcriber converts one captured utterance to text. Failures are
// absorbed into the result, never surfaced as errors.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, lang string) transcribe.Result
}

// Responder produces the tutor's textual reply to a user utterance.
type Responder interface {
	Reply(ctx context.Context, userText string) (string, error)
}

// Speaker renders a segmented reply as audible speech.
type Speaker interface {
	Speak(ctx context.Context, texts []string) (synth.Report, error)
}

// Sink receives call events for diagnostics and the client feed. Emit
// must not block; it may be called from the frame path.
type Sink interface {
	Emit(typ string, payload map[string]any)
}

// Config holds controller tunables.
type Config struct {
	// Language is the session language tag, e.g. "ru-RU".
	Language string
	// PrerollFrames is how many frames before a detected onset are
	// prepended to the capture, so debounced onsets lose no audio.
	PrerollFrames int
	// TextOnly suppresses automatic playback; the reply is emitted as a
	// text event and nothing is synthesized.
	TextOnly bool
	// Events is optional.
	Events Sink
}

// Controller runs one session's conversation loop. OnFrame is called
// from the audio capture path; everything downstream of a completed
// utterance runs on the controller's own goroutine.
type Controller struct {
	cfg     Config
	meter   *audio.Meter
	det     *vad.Detector
	trans   Transcriber
	respond Responder
	speaker Speaker
	player  synth.Player

	root       context.Context
	rootCancel context.CancelFunc
	stopOnce   sync.Once
	wg         sync.WaitGroup

	mu        sync.Mutex
	phase     Phase
	scope     *Scope
	preroll   [][]byte
	capture   []byte
	capturing bool
	turnSeq   uint64
}

func NewController(cfg Config, meter *audio.Meter, det *vad.Detector, trans Transcriber, respond Responder, speaker Speaker, player synth.Player) *Controller {
	if cfg.PrerollFrames <= 0 {
		cfg.PrerollFrames = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:        cfg,
		meter:      meter,
		det:        det,
		trans:      trans,
		respond:    respond,
		speaker:    speaker,
		player:     player,
		root:       ctx,
		rootCancel: cancel,
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// OnFrame consumes one captured PCM frame. Safe to call from a single
// capture goroutine; returns immediately once the controller is stopped.
func (c *Controller) OnFrame(pcm []byte) {
	sample := c.meter.Sample(pcm, time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseStopped {
		return
	}

	ev := c.det.Process(sample)
	switch ev.Kind {
	case vad.EventCalibrated:
		c.emit("calibrated", map[string]any{"noise_floor": ev.NoiseFloor})

	case vad.EventSpeechStart:
		c.emit("speech_start", nil)
		if c.phase != PhaseListening {
			c.bargeInLocked()
		}
		c.capturing = true
		c.capture = c.capture[:0]
		for _, f := range c.preroll {
			c.capture = append(c.capture, f...)
		}
		c.preroll = c.preroll[:0]

	case vad.EventSpeechEnd:
		c.emit("speech_end", map[string]any{"bytes": len(c.capture)})
		buf := make([]byte, len(c.capture))
		copy(buf, c.capture)
		c.capturing = false
		c.capture = c.capture[:0]
		c.turnSeq++
		seq := c.turnSeq
		c.setPhaseLocked(PhaseProcessing)
		c.scope = NewScope(c.root)
		scope := c.scope
		c.wg.Add(1)
		go c.runTurn(scope, seq, buf)

	case vad.EventSpeechDiscarded:
		log.Printf("[turn] burst too short, discarded without transcription")
		c.emit("speech_discarded", nil)
		c.capturing = false
		c.capture = c.capture[:0]
	}

	if c.capturing {
		c.capture = append(c.capture, pcm...)
	} else {
		c.pushPrerollLocked(pcm)
	}
}

func (c *Controller) pushPrerollLocked(pcm []byte) {
	f := make([]byte, len(pcm))
	copy(f, pcm)
	c.preroll = append(c.preroll, f)
	if len(c.preroll) > c.cfg.PrerollFrames {
		c.preroll = c.preroll[1:]
	}
}

// bargeInLocked interrupts the in-flight machine response. The new user
// onset that triggered it becomes the next turn's capture.
func (c *Controller) bargeInLocked() {
	start := time.Now()
	if c.scope != nil {
		c.scope.Cancel()
	}
	c.player.Stop()
	elapsed := time.Since(start)
	metricBargeIns.Inc()
	metricBargeLatencyMS.Observe(float64(elapsed.Milliseconds()))
	log.Printf("[turn] barge-in, playback stopped in %s", elapsed.Round(time.Millisecond))
	c.emit("barge_in", map[string]any{"stop_ms": elapsed.Milliseconds()})
	c.setPhaseLocked(PhaseListening)
}

func (c *Controller) emit(typ string, payload map[string]any) {
	if c.cfg.Events != nil {
		c.cfg.Events.Emit(typ, payload)
	}
}

func (c *Controller) setPhaseLocked(p Phase) {
	if c.phase == p {
		return
	}
	c.phase = p
	metricPhase.WithLabelValues(p.String()).Inc()
}

// endTurn returns the controller to listening unless a newer turn or a
// barge-in already moved it on.
func (c *Controller) endTurn(seq uint64, result string) {
	metricTurns.WithLabelValues(result).Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.turnSeq != seq || c.phase == PhaseStopped {
		return
	}
	if c.phase == PhaseProcessing || c.phase == PhaseSpeaking {
		c.setPhaseLocked(PhaseListening)
	}
}

func (c *Controller) runTurn(scope *Scope, seq uint64, pcm []byte) {
	defer c.wg.Done()

	res := c.trans.Transcribe(scope.Ctx(), pcm, c.cfg.Language)
	if res.Unavailable {
		log.Printf("[turn] transcription unavailable, dropping turn")
		c.emit("transcription_unavailable", nil)
		c.endTurn(seq, "transcribe_unavailable")
		return
	}
	if res.Empty() {
		log.Printf("[turn] empty transcript, dropping turn")
		c.endTurn(seq, "empty")
		return
	}
	log.Printf("[turn] user (%s): %q", res.Backend, res.Text)
	c.emit("transcript", map[string]any{"text": res.Text, "backend": res.Backend})

	reply, err := c.respond.Reply(scope.Ctx(), res.Text)
	if err != nil {
		if scope.Cancelled() {
			c.endTurn(seq, "cancelled")
			return
		}
		// Recoverable: the session keeps listening.
		log.Printf("[turn] dialogue failed: %v", err)
		c.endTurn(seq, "dialogue_error")
		return
	}

	c.emit("reply", map[string]any{"text": reply})
	if c.cfg.TextOnly {
		c.emit("turn_completed", map[string]any{"mode": "text"})
		c.endTurn(seq, "ok_text")
		return
	}

	texts := segment.Split(reply)
	if len(texts) == 0 {
		c.endTurn(seq, "empty_reply")
		return
	}

	c.mu.Lock()
	if c.turnSeq != seq || c.phase == PhaseStopped {
		c.mu.Unlock()
		c.endTurn(seq, "superseded")
		return
	}
	c.setPhaseLocked(PhaseSpeaking)
	c.mu.Unlock()

	rep, err := c.speaker.Speak(scope.Ctx(), texts)
	if err != nil {
		c.endTurn(seq, "cancelled")
		return
	}
	if rep.SoftFailed() {
		c.emit("soft_failure", map[string]any{"skipped": rep.Skipped})
		c.endTurn(seq, "synth_failed")
		return
	}
	c.emit("turn_completed", map[string]any{"played": rep.Played, "skipped": rep.Skipped})
	c.endTurn(seq, "ok")
}

// Stop shuts the controller down. Idempotent; concurrent and repeated
// calls are safe. Blocks until the in-flight turn goroutine exits.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.setPhaseLocked(PhaseStopped)
		if c.scope != nil {
			c.scope.Cancel()
		}
		c.mu.Unlock()
		c.rootCancel()
		c.player.Stop()
		c.wg.Wait()
		log.Printf("[turn] controller stopped")
	})
}
