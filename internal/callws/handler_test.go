package callws

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lingua/voice/internal/auth"
	"lingua/voice/internal/config"
	"lingua/voice/internal/store"
	"lingua/voice/internal/synth"
)

type noopController struct{}

func (noopController) OnFrame(pcm []byte) {}
func (noopController) Stop()              {}

func newTestServer(t *testing.T) (*httptest.Server, *store.Store, config.Config) {
	t.Helper()
	var cfg config.Config
	cfg.Call.TokenSecret = "test-secret"
	cfg.Call.TokenSkewSecs = 30
	cfg.Audio.SampleRate = 16000
	st := store.New()
	factory := func(sess *store.Session, player synth.Player) (SessionController, error) {
		return noopController{}, nil
	}
	s := NewServer(cfg, st, NewRegistry(), factory)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleCall))
	t.Cleanup(srv.Close)
	return srv, st, cfg
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	return resp
}

func TestCallUnknownSession404(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp := get(t, srv.URL+"/call/unknown?token=x")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCallBadToken401(t *testing.T) {
	srv, st, _ := newTestServer(t)
	st.CreateSession(&store.Session{ID: "s1", CreatedAt: time.Now()})

	resp := get(t, srv.URL+"/call/s1?token=not-a-token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCallTokenForOtherSession401(t *testing.T) {
	srv, st, cfg := newTestServer(t)
	st.CreateSession(&store.Session{ID: "s1", CreatedAt: time.Now()})
	st.CreateSession(&store.Session{ID: "s2", CreatedAt: time.Now()})

	tok := auth.GenerateCallToken(cfg.Call.TokenSecret, "s2", time.Now().Add(time.Hour).Unix())
	resp := get(t, srv.URL+"/call/s1?token="+tok)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCallEndedSession409(t *testing.T) {
	srv, st, cfg := newTestServer(t)
	st.CreateSession(&store.Session{ID: "s1", CreatedAt: time.Now()})
	st.EndSession("s1", time.Now())

	tok := auth.GenerateCallToken(cfg.Call.TokenSecret, "s1", time.Now().Add(time.Hour).Unix())
	resp := get(t, srv.URL+"/call/s1?token="+tok)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}
