package dialogue

import "sync"

// Turn is one completed user/assistant exchange.
type Turn struct {
	User      string
	Assistant string
}

// History keeps the conversation so far. Appends are permanent; the
// prompt window is capped to the most recent turns so long sessions do
// not grow the request without bound.
type History struct {
	mu       sync.Mutex
	turns    []Turn
	maxTurns int
}

func NewHistory(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = 12
	}
	return &History{maxTurns: maxTurns}
}

func (h *History) Append(user, assistant string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{User: user, Assistant: assistant})
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Window returns a copy of the most recent turns, capped to maxTurns.
func (h *History) Window() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	start := 0
	if len(h.turns) > h.maxTurns {
		start = len(h.turns) - h.maxTurns
	}
	out := make([]Turn, len(h.turns)-start)
	copy(out, h.turns[start:])
	return out
}
