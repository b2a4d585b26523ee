package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"lingua/voice/internal/auth"
	"lingua/voice/internal/config"
	"lingua/voice/internal/store"
)

// Gateway detaches a session's live call connection, if one is attached.
type Gateway interface {
	Detach(sessionID string)
}

type Handlers struct {
	cfg     config.Config
	store   *store.Store
	gateway Gateway
}

func NewHandlers(cfg config.Config, st *store.Store, gw Gateway) *Handlers {
	return &Handlers{cfg: cfg, store: st, gateway: gw}
}

type createSessionRequest struct {
	Language string `json:"language"`
	TextOnly bool   `json:"text_only"`
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Call.TokenSecret == "" {
		http.Error(w, "missing call token secret", http.StatusInternalServerError)
		return
	}
	var req createSessionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Language == "" {
		req.Language = "en-US"
	}

	id := uuid.New().String()
	exp := time.Now().Add(time.Duration(h.cfg.Call.TokenExpMin) * time.Minute).Unix()
	token := auth.GenerateCallToken(h.cfg.Call.TokenSecret, id, exp)

	sess := &store.Session{
		ID:        id,
		Language:  req.Language,
		TextOnly:  req.TextOnly,
		CreatedAt: time.Now().UTC(),
	}
	_ = h.store.CreateSession(sess)
	h.store.AppendEvent(id, "session_created", map[string]any{"language": req.Language, "text_only": req.TextOnly})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": id,
		"language":   req.Language,
		"call_token": token,
		"ws_path":    "/call/" + id,
	})
}

func (h *Handlers) HandleEndSession(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.store.GetSession(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	ended := h.store.EndSession(id, time.Now().UTC())
	if ended {
		h.store.AppendEvent(id, "session_ended", nil)
		if h.gateway != nil {
			h.gateway.Detach(id)
		}
	} else {
		h.store.AppendEvent(id, "session_end_requested", map[string]any{"noop": true})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "ended": true})
}

// HandleMintToken issues a fresh call token for an existing session, for
// clients reconnecting after the original token expired.
func (h *Handlers) HandleMintToken(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.store.GetSession(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	if sess.EndedAt != nil {
		http.Error(w, "session ended", http.StatusConflict)
		return
	}
	exp := time.Now().Add(time.Duration(h.cfg.Call.TokenExpMin) * time.Minute).Unix()
	token := auth.GenerateCallToken(h.cfg.Call.TokenSecret, id, exp)
	h.store.AppendEvent(id, "call_token_minted", nil)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"call_token": token, "exp": exp})
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.store.GetSession(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	events := h.store.ListEvents(id)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": id,
		"events":     events,
	})
}
