// Package callws is the websocket gateway a client attaches to for the
// audio leg of a call: PCM frames in, synthesized speech and call events
// out.
package callws

import (
	"context"
	"encoding/json"
	"sync"

	ws "nhooyr.io/websocket"
)

// Registry keeps at most one call connection per session.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*ws.Conn
}

func NewRegistry() *Registry { return &Registry{conns: make(map[string]*ws.Conn)} }

// Replace sets the connection for a session and closes the previous one if present.
func (r *Registry) Replace(sessionID string, c *ws.Conn) (prevClosed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.conns[sessionID]; ok && old != nil {
		_ = old.Close(ws.StatusNormalClosure, "replaced")
		prevClosed = true
	}
	r.conns[sessionID] = c
	return
}

func (r *Registry) Get(sessionID string) *ws.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[sessionID]
}

// Remove drops the registration only if it still points at c, so a
// replaced connection's teardown cannot evict its successor.
func (r *Registry) Remove(sessionID string, c *ws.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[sessionID] == c {
		delete(r.conns, sessionID)
	}
}

// Detach closes and removes a session's connection, if any.
func (r *Registry) Detach(sessionID string) {
	r.mu.Lock()
	c := r.conns[sessionID]
	delete(r.conns, sessionID)
	r.mu.Unlock()
	if c != nil {
		_ = c.Close(ws.StatusNormalClosure, "session ended")
	}
}

// SendJSON writes a text frame to the session's connection, if attached.
func (r *Registry) SendJSON(ctx context.Context, sessionID string, v any) error {
	r.mu.Lock()
	c := r.conns[sessionID]
	r.mu.Unlock()
	if c == nil {
		return nil
	}
	b, _ := json.Marshal(v)
	return c.Write(ctx, ws.MessageText, b)
}

// SendBinary writes a binary frame to the session's connection, if attached.
func (r *Registry) SendBinary(ctx context.Context, sessionID string, data []byte) error {
	r.mu.Lock()
	c := r.conns[sessionID]
	r.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Write(ctx, ws.MessageBinary, data)
}
