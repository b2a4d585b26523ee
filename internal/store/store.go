// Package store keeps session records and their event logs in memory.
package store

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionExists = errors.New("session already exists")

// Session is one tutoring call. TextOnly sessions get their replies as
// text events instead of synthesized audio.
type Session struct {
	ID        string     `json:"id"`
	Language  string     `json:"language"`
	TextOnly  bool       `json:"text_only,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Event is one timeline entry in a session's log.
type Event struct {
	Type    string         `json:"type"`
	Ts      time.Time      `json:"ts"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Store is safe for concurrent use. Event logs are capped per session so
// long calls do not grow memory without bound.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	events   map[string][]Event
}

func New() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		events:   make(map[string][]Event),
	}
}

func (s *Store) CreateSession(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return ErrSessionExists
	}
	s.sessions[sess.ID] = sess
	s.events[sess.ID] = []Event{}
	return nil
}

func (s *Store) GetSession(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *Store) EndSession(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.EndedAt != nil {
		return false
	}
	sess.EndedAt = &at
	return true
}

func (s *Store) AppendEvent(sessionID, typ string, payload map[string]any) Event {
	evt := Event{Type: typ, Ts: time.Now().UTC(), Payload: payload}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[sessionID] = append(s.events[sessionID], evt)
	// Cap total events per session to avoid unbounded growth
	const maxEvents = 200
	if l := len(s.events[sessionID]); l > maxEvents {
		keep := maxEvents - 1
		dropped := l - keep
		s.events[sessionID] = append([]Event(nil), s.events[sessionID][l-keep:]...)
		warn := Event{Type: "events_truncated", Ts: time.Now().UTC(), Payload: map[string]any{"session_id": sessionID, "dropped": dropped, "kept": keep}}
		s.events[sessionID] = append(s.events[sessionID], warn)
	}
	return evt
}

func (s *Store) ListEvents(sessionID string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.events[sessionID]
	out := make([]Event, len(src))
	copy(out, src)
	return out
}

func (s *Store) ListSessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}
