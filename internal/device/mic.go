// Package device wraps the local audio hardware: microphone capture and
// speaker playback.
package device

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"
)

// Mic captures mono PCM16 from the default input device and delivers it
// to the frame callback in fixed-size frames.
type Mic struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	frameBytes int
	onFrame    func([]byte)

	mu      sync.Mutex
	pending []byte
	closed  bool
}

// NewMic opens the default capture device. frameBytes is the exact frame
// size handed to onFrame; hardware periods are re-chunked to match.
func NewMic(sampleRate, frameMs, frameBytes int, onFrame func([]byte)) (*Mic, error) {
	cfg := malgo.ContextConfig{}
	cfg.ThreadPriority = malgo.ThreadPriorityRealtime
	ctx, err := malgo.InitContext(nil, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	m := &Mic{ctx: ctx, frameBytes: frameBytes, onFrame: onFrame}

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.Capture.Format = malgo.FormatS16
	devCfg.Capture.Channels = 1
	devCfg.SampleRate = uint32(sampleRate)
	devCfg.PeriodSizeInMilliseconds = uint32(frameMs)

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.push(input)
		},
	}
	device, err := malgo.InitDevice(ctx.Context, devCfg, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		return nil, fmt.Errorf("init microphone: %w", err)
	}
	m.device = device
	return m, nil
}

func (m *Mic) Start() error {
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("start microphone: %w", err)
	}
	log.Printf("[device] microphone started")
	return nil
}

// push re-chunks the hardware period into exact frames. Runs on the
// audio thread; the frame callback must not block.
func (m *Mic) push(input []byte) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending = append(m.pending, input...)
	var frames [][]byte
	for len(m.pending) >= m.frameBytes {
		f := make([]byte, m.frameBytes)
		copy(f, m.pending)
		m.pending = m.pending[m.frameBytes:]
		frames = append(frames, f)
	}
	m.mu.Unlock()

	for _, f := range frames {
		m.onFrame(f)
	}
}

// Close stops capture and releases the device. Idempotent.
func (m *Mic) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
	}
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
	}
	log.Printf("[device] microphone closed")
}
