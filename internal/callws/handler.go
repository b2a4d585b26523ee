package callws

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"lingua/voice/internal/auth"
	"lingua/voice/internal/config"
	"lingua/voice/internal/store"
	"lingua/voice/internal/synth"

	ws "nhooyr.io/websocket"
)

// SessionController is the per-call conversation loop the gateway feeds.
type SessionController interface {
	OnFrame(pcm []byte)
	Stop()
}

// ControllerFactory builds the conversation loop for one attached call.
// The player streams synthesized speech back over the connection.
type ControllerFactory func(sess *store.Session, player synth.Player) (SessionController, error)

type controlMessage struct {
	Type string `json:"type"`
}

type Server struct {
	cfg     config.Config
	store   *store.Store
	reg     *Registry
	factory ControllerFactory
}

func NewServer(cfg config.Config, st *store.Store, reg *Registry, factory ControllerFactory) *Server {
	return &Server{cfg: cfg, store: st, reg: reg, factory: factory}
}

// HandleCall serves /call/{id}. The client authenticates with the call
// token, then streams binary PCM frames; control messages are JSON text
// frames.
func (s *Server) HandleCall(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/call/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	sess := s.store.GetSession(sessionID)
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if sess.EndedAt != nil {
		http.Error(w, "session ended", http.StatusConflict)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		authz := r.Header.Get("Authorization")
		token = strings.TrimPrefix(authz, "Bearer ")
	}
	if s.cfg.Call.TokenSecret == "" {
		http.Error(w, "call auth not configured", http.StatusUnauthorized)
		return
	}
	if _, _, err := auth.ValidateCallToken(s.cfg.Call.TokenSecret, token, sessionID, time.Now(), s.cfg.Call.TokenSkewSecs); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[callws] accept: %v", err)
		return
	}
	if s.reg.Replace(sessionID, c) {
		s.store.AppendEvent(sessionID, "call_replaced", nil)
	}
	s.store.AppendEvent(sessionID, "call_connected", nil)
	metricConnects.Inc()

	player := newWSPlayer(s.reg, sessionID, s.cfg.Audio.SampleRate)
	ctrl, err := s.factory(sess, player)
	if err != nil {
		log.Printf("[callws] controller for session %s: %v", sessionID, err)
		_ = c.Close(ws.StatusInternalError, "controller init failed")
		s.reg.Remove(sessionID, c)
		return
	}
	defer ctrl.Stop()

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		switch typ {
		case ws.MessageBinary:
			metricFrames.Inc()
			ctrl.OnFrame(data)
		case ws.MessageText:
			var msg controlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				s.store.AppendEvent(sessionID, "call_msg_invalid", map[string]any{"error": err.Error()})
				continue
			}
			if msg.Type == "end" {
				s.store.EndSession(sessionID, time.Now().UTC())
				s.store.AppendEvent(sessionID, "session_ended", map[string]any{"by": "client"})
				_ = c.Close(ws.StatusNormalClosure, "ended")
				s.reg.Remove(sessionID, c)
				s.store.AppendEvent(sessionID, "call_disconnected", nil)
				return
			}
		}
	}
	_ = c.Close(ws.StatusNormalClosure, "done")
	s.reg.Remove(sessionID, c)
	s.store.AppendEvent(sessionID, "call_disconnected", nil)
}
