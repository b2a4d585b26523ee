package synth

import (
	"context"
	"log"
	"time"
)

// Status tracks an utterance through its lifecycle.
type Status int

const (
	StatusPending Status = iota
	StatusGenerating
	StatusReady
	StatusFailed
	StatusPlayed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusGenerating:
		return "generating"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	case StatusPlayed:
		return "played"
	}
	return "unknown"
}

// Utterance is one synthesizable unit with a fixed playback position.
// Text is immutable after creation; Status and Audio are owned by the
// synthesizer and only read back once Speak has returned.
type Utterance struct {
	Index  int
	Text   string
	Status Status
	Audio  []byte
}

// Generator produces audio for one utterance's text.
type Generator interface {
	Generate(ctx context.Context, text string) ([]byte, error)
}

// Player accepts a decoded audio buffer. Play blocks until the buffer
// finished or the context was cancelled; Stop interrupts the current
// buffer and is safe to call at any time.
type Player interface {
	Play(ctx context.Context, audio []byte) error
	Stop()
}

// Report summarizes one spoken response.
type Report struct {
	Played     int
	Skipped    int
	Utterances []*Utterance
}

// SoftFailed reports whether every utterance failed to generate. The
// session survives; the caller logs and moves on.
func (r Report) SoftFailed() bool { return r.Played == 0 && r.Skipped > 0 }

// Synthesizer turns a segmented response into audible speech. All
// utterances are generated concurrently; playback consumes them strictly
// in submission order, waiting only for the next slot it needs. One
// instance serves one session; there is no shared state across sessions.
type Synthesizer struct {
	gen    Generator
	player Player
}

func New(gen Generator, player Player) *Synthesizer {
	return &Synthesizer{gen: gen, player: player}
}

// slot is the landing area for one utterance's generation result.
// done is closed exactly once, after the utterance was updated.
type slot struct {
	done chan struct{}
	utt  *Utterance
}

// Speak synthesizes and plays the utterances. It returns early with
// ctx.Err() on cancellation (barge-in); per-utterance failures are
// skipped and counted, never fatal.
func (s *Synthesizer) Speak(ctx context.Context, texts []string) (Report, error) {
	utts := make([]*Utterance, len(texts))
	for i, t := range texts {
		utts[i] = &Utterance{Index: i, Text: t}
	}
	rep := Report{Utterances: utts}

	switch len(utts) {
	case 0:
		return rep, nil
	case 1:
		// Short responses skip the fan-out entirely.
		return s.speakOne(ctx, rep, utts[0])
	}

	start := time.Now()
	slots := make([]*slot, len(utts))
	for i := range utts {
		slots[i] = &slot{done: make(chan struct{}), utt: utts[i]}
		utts[i].Status = StatusGenerating
		go func(sl *slot) {
			defer close(sl.done)
			audio, err := s.gen.Generate(ctx, sl.utt.Text)
			if err != nil {
				sl.utt.Status = StatusFailed
				metricGenerations.WithLabelValues("error").Inc()
				return
			}
			sl.utt.Audio = audio
			sl.utt.Status = StatusReady
			metricGenerations.WithLabelValues("ok").Inc()
		}(slots[i])
	}

	firstAudio := false
	for i, sl := range slots {
		select {
		case <-ctx.Done():
			metricCancelled.Inc()
			return rep, ctx.Err()
		case <-sl.done:
		}
		if sl.utt.Status == StatusFailed {
			log.Printf("[synth] utterance %d failed, skipping", i)
			rep.Skipped++
			metricSkipped.Inc()
			continue
		}
		if ctx.Err() != nil {
			metricCancelled.Inc()
			return rep, ctx.Err()
		}
		if !firstAudio {
			firstAudio = true
			metricFirstAudioMS.Observe(float64(time.Since(start).Milliseconds()))
		}
		if err := s.player.Play(ctx, sl.utt.Audio); err != nil {
			if ctx.Err() != nil {
				metricCancelled.Inc()
				return rep, ctx.Err()
			}
			log.Printf("[synth] playback of utterance %d failed: %v", i, err)
			sl.utt.Status = StatusFailed
			rep.Skipped++
			metricSkipped.Inc()
			continue
		}
		sl.utt.Status = StatusPlayed
		sl.utt.Audio = nil
		rep.Played++
		metricPlayed.Inc()
	}
	if rep.SoftFailed() {
		log.Printf("[synth] response produced no audio (%d utterances failed)", rep.Skipped)
	}
	return rep, nil
}

func (s *Synthesizer) speakOne(ctx context.Context, rep Report, utt *Utterance) (Report, error) {
	start := time.Now()
	utt.Status = StatusGenerating
	audio, err := s.gen.Generate(ctx, utt.Text)
	if err != nil {
		if ctx.Err() != nil {
			metricCancelled.Inc()
			return rep, ctx.Err()
		}
		log.Printf("[synth] utterance failed, skipping: %v", err)
		utt.Status = StatusFailed
		metricGenerations.WithLabelValues("error").Inc()
		metricSkipped.Inc()
		rep.Skipped = 1
		return rep, nil
	}
	utt.Status = StatusReady
	metricGenerations.WithLabelValues("ok").Inc()
	if ctx.Err() != nil {
		metricCancelled.Inc()
		return rep, ctx.Err()
	}
	metricFirstAudioMS.Observe(float64(time.Since(start).Milliseconds()))
	if err := s.player.Play(ctx, audio); err != nil {
		if ctx.Err() != nil {
			metricCancelled.Inc()
			return rep, ctx.Err()
		}
		log.Printf("[synth] playback failed: %v", err)
		utt.Status = StatusFailed
		metricSkipped.Inc()
		rep.Skipped = 1
		return rep, nil
	}
	utt.Status = StatusPlayed
	rep.Played = 1
	metricPlayed.Inc()
	return rep, nil
}
