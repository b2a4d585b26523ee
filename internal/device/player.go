package device

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player renders PCM16 buffers on the default output device. Play blocks
// until the buffer drained or was interrupted; Stop is safe from any
// goroutine and when nothing is playing.
type Player struct {
	ctx *oto.Context

	mu     sync.Mutex
	active *oto.Player
}

func NewPlayer(sampleRate int) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	<-ready
	log.Printf("[device] speaker ready rate=%d", sampleRate)
	return &Player{ctx: ctx}, nil
}

func (p *Player) Play(ctx context.Context, pcm []byte) error {
	player := p.ctx.NewPlayer(bytes.NewReader(pcm))

	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			p.clear(player)
			_ = player.Close()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	p.clear(player)
	return player.Close()
}

// Stop interrupts the buffer currently playing, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.active = nil
	p.mu.Unlock()

	if active != nil {
		active.Pause()
	}
}

func (p *Player) clear(player *oto.Player) {
	p.mu.Lock()
	if p.active == player {
		p.active = nil
	}
	p.mu.Unlock()
}
