package turn

import (
	"context"
	"sync"
)

// Scope bounds all cancellable work belonging to one machine response:
// transcription, the dialogue request, synthesis and playback. Cancel is
// idempotent; cancelling an already finished scope is a no-op.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

func (s *Scope) Ctx() context.Context { return s.ctx }

func (s *Scope) Cancel() {
	s.once.Do(s.cancel)
}

func (s *Scope) Cancelled() bool { return s.ctx.Err() != nil }
