package callws

import (
	"context"
	"sync"
	"time"
)

// wsPlayer streams synthesized PCM back over the call connection, paced
// at real time so barge-in can interrupt mid-utterance. Implements the
// playback sink used by the speech synthesizer.
type wsPlayer struct {
	reg        *Registry
	sessionID  string
	sampleRate int

	mu   sync.Mutex
	stop chan struct{}
}

func newWSPlayer(reg *Registry, sessionID string, sampleRate int) *wsPlayer {
	return &wsPlayer{reg: reg, sessionID: sessionID, sampleRate: sampleRate}
}

func (p *wsPlayer) Play(ctx context.Context, pcm []byte) error {
	stop := make(chan struct{})
	p.mu.Lock()
	p.stop = stop
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		if p.stop == stop {
			p.stop = nil
		}
		p.mu.Unlock()
	}()

	// 100ms of PCM16 mono per network frame.
	chunk := p.sampleRate / 10 * 2
	chunkDur := 100 * time.Millisecond
	for off := 0; off < len(pcm); off += chunk {
		end := off + chunk
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := p.reg.SendBinary(ctx, p.sessionID, pcm[off:end]); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-time.After(chunkDur):
		}
	}
	return nil
}

// Stop aborts the utterance currently streaming and tells the client to
// flush whatever it has buffered.
func (p *wsPlayer) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.stop = nil
	p.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.reg.SendJSON(ctx, p.sessionID, map[string]any{"type": "playback_flush"})
}
