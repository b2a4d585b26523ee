package synth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeGen resolves each utterance when its gate channel is closed,
// letting tests control network arrival order.
type fakeGen struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	fail  map[string]bool
	calls int
}

func newFakeGen() *fakeGen {
	return &fakeGen{gates: make(map[string]chan struct{}), fail: make(map[string]bool)}
}

func (g *fakeGen) gate(text string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[text]
	if !ok {
		ch = make(chan struct{})
		g.gates[text] = ch
	}
	return ch
}

func (g *fakeGen) release(text string) { close(g.gate(text)) }

func (g *fakeGen) Generate(ctx context.Context, text string) ([]byte, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	select {
	case <-g.gate(text):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	g.mu.Lock()
	failed := g.fail[text]
	g.mu.Unlock()
	if failed {
		return nil, errors.New("provider error")
	}
	return []byte(text), nil
}

// instantGen resolves immediately.
type instantGen struct {
	fail  map[string]bool
	calls int
}

func (g *instantGen) Generate(ctx context.Context, text string) ([]byte, error) {
	g.calls++
	if g.fail[text] {
		return nil, errors.New("provider error")
	}
	return []byte(text), nil
}

// fakePlayer records played buffers in order.
type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	stopped bool
	block   chan struct{} // if set, Play blocks until closed or ctx done
}

func (p *fakePlayer) Play(ctx context.Context, audio []byte) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	p.played = append(p.played, string(audio))
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
}

func (p *fakePlayer) order() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.played))
	copy(out, p.played)
	return out
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("utterance-%d", i)
	}
	return out
}

func TestPlaybackOrderMatchesSubmissionOrder(t *testing.T) {
	gen := newFakeGen()
	player := &fakePlayer{}
	s := New(gen, player)

	ts := texts(4)
	done := make(chan Report, 1)
	go func() {
		rep, err := s.Speak(context.Background(), ts)
		if err != nil {
			t.Errorf("speak: %v", err)
		}
		done <- rep
	}()

	// Arrivals in a scrambled permutation.
	gen.release(ts[2])
	gen.release(ts[0])
	gen.release(ts[3])
	gen.release(ts[1])

	rep := <-done
	if rep.Played != 4 || rep.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	got := player.order()
	for i, want := range ts {
		if got[i] != want {
			t.Fatalf("playback order: want %v, got %v", ts, got)
		}
	}
}

func TestPlaybackStartsBeforeLaterUtterancesArrive(t *testing.T) {
	gen := newFakeGen()
	player := &fakePlayer{}
	s := New(gen, player)

	ts := texts(3)
	done := make(chan Report, 1)
	go func() {
		rep, _ := s.Speak(context.Background(), ts)
		done <- rep
	}()

	// Only index 0 has arrived; it must still play.
	gen.release(ts[0])
	deadline := time.After(2 * time.Second)
	for len(player.order()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("utterance 0 did not play while later ones were pending")
		case <-time.After(5 * time.Millisecond):
		}
	}

	gen.release(ts[1])
	gen.release(ts[2])
	<-done
}

func TestFailedUtteranceIsSkipped(t *testing.T) {
	gen := &instantGen{fail: map[string]bool{"utterance-1": true}}
	player := &fakePlayer{}
	s := New(gen, player)

	ts := texts(3)
	rep, err := s.Speak(context.Background(), ts)
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if rep.Played != 2 || rep.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	got := player.order()
	if len(got) != 2 || got[0] != ts[0] || got[1] != ts[2] {
		t.Fatalf("expected [0, 2] played in order, got %v", got)
	}
	if rep.Utterances[1].Status != StatusFailed {
		t.Fatalf("utterance 1 status: %v", rep.Utterances[1].Status)
	}
}

func TestZeroUtterancesIsNoOp(t *testing.T) {
	gen := &instantGen{}
	player := &fakePlayer{}
	s := New(gen, player)

	rep, err := s.Speak(context.Background(), nil)
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if rep.Played != 0 || rep.Skipped != 0 || gen.calls != 0 {
		t.Fatalf("expected no-op, got %+v calls=%d", rep, gen.calls)
	}
}

func TestAllFailedIsSoftFailure(t *testing.T) {
	gen := &instantGen{fail: map[string]bool{"utterance-0": true, "utterance-1": true}}
	player := &fakePlayer{}
	s := New(gen, player)

	rep, err := s.Speak(context.Background(), texts(2))
	if err != nil {
		t.Fatalf("all-failed must not be a hard error, got %v", err)
	}
	if !rep.SoftFailed() {
		t.Fatalf("expected soft failure, got %+v", rep)
	}
	if len(player.order()) != 0 {
		t.Fatalf("no audio should have played")
	}
}

func TestSingleUtteranceDirectPath(t *testing.T) {
	gen := &instantGen{}
	player := &fakePlayer{}
	s := New(gen, player)

	rep, err := s.Speak(context.Background(), []string{"just one sentence."})
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if rep.Played != 1 || gen.calls != 1 {
		t.Fatalf("unexpected report %+v calls=%d", rep, gen.calls)
	}
	if rep.Utterances[0].Status != StatusPlayed {
		t.Fatalf("status: %v", rep.Utterances[0].Status)
	}
}

func TestCancellationReturnsPromptlyWithPendingRequests(t *testing.T) {
	gen := newFakeGen()
	player := &fakePlayer{}
	s := New(gen, player)

	ctx, cancel := context.WithCancel(context.Background())
	ts := texts(3)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Speak(ctx, ts)
		errCh <- err
	}()

	// Nothing has arrived; cancel mid-generation.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Speak did not return promptly after cancellation")
	}
	if len(player.order()) != 0 {
		t.Fatalf("no audio should have played after cancellation")
	}
}

func TestCancellationStopsBetweenUtterances(t *testing.T) {
	gen := &instantGen{}
	player := &fakePlayer{block: make(chan struct{})}
	s := New(gen, player)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Speak(ctx, texts(3))
		errCh <- err
	}()

	// First Play is blocked; cancel and verify nothing further is emitted.
	time.Sleep(10 * time.Millisecond)
	cancel()
	err := <-errCh
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(player.order()) != 0 {
		t.Fatalf("interrupted playback must not emit further audio, got %v", player.order())
	}
}

// Mirrors the reference dialogue scenario: three utterances, the third
// fails, the second arrives before the first.
func TestOutOfOrderArrivalWithOneFailure(t *testing.T) {
	gen := newFakeGen()
	player := &fakePlayer{}
	s := New(gen, player)

	ts := []string{
		"Привет!",
		"Это первое предложение.",
		"А это второе — длиннее и интереснее. Третье.",
	}
	gen.mu.Lock()
	gen.fail[ts[2]] = true
	gen.mu.Unlock()

	done := make(chan Report, 1)
	go func() {
		rep, _ := s.Speak(context.Background(), ts)
		done <- rep
	}()

	gen.release(ts[1]) // index 1 arrives before index 0
	gen.release(ts[0])
	gen.release(ts[2])

	rep := <-done
	if rep.Played != 2 || rep.Skipped != 1 {
		t.Fatalf("expected 2 played / 1 skipped, got %+v", rep)
	}
	got := player.order()
	if len(got) != 2 || got[0] != ts[0] || got[1] != ts[1] {
		t.Fatalf("expected [0, 1] in order, got %v", got)
	}
}
