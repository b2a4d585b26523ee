package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nhooyr.io/websocket"
)

// chunkBytes is 100ms of PCM16 at 16kHz per websocket frame.
const chunkBytes = 3200

// LiveRecognizer streams one captured utterance over a live websocket
// recognition session and returns the final transcript. Availability is
// environment-dependent and probed once at session start.
type LiveRecognizer struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

func NewLiveRecognizer(baseURL, apiKey string, timeout time.Duration) *LiveRecognizer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LiveRecognizer{baseURL: baseURL, apiKey: apiKey, timeout: timeout}
}

func (l *LiveRecognizer) Name() string { return "live" }

// Available dials the recognizer once and hangs up. A failed dial means
// the capability is absent for this session.
func (l *LiveRecognizer) Available(ctx context.Context) bool {
	if l.baseURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, l.baseURL, &websocket.DialOptions{HTTPHeader: l.header()})
	if err != nil {
		return false
	}
	_ = ws.Close(websocket.StatusNormalClosure, "probe")
	return true
}

type liveEvent struct {
	Type string `json:"type"` // "interim" | "final" | "error"
	Text string `json:"text,omitempty"`
}

// Transcribe streams the audio in 100ms frames, requests finalization
// and waits for the final transcript event.
func (l *LiveRecognizer) Transcribe(ctx context.Context, pcm []byte, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("encoding", "linear16")
	q.Set("sample_rate", "16000")
	if lang != "" {
		q.Set("language", lang)
	}
	ws, _, err := websocket.Dial(ctx, l.baseURL+"?"+q.Encode(), &websocket.DialOptions{HTTPHeader: l.header()})
	if err != nil {
		return "", fmt.Errorf("live recognizer dial: %w", err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "done")

	for off := 0; off < len(pcm); off += chunkBytes {
		end := off + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := ws.Write(ctx, websocket.MessageBinary, pcm[off:end]); err != nil {
			return "", fmt.Errorf("live recognizer write: %w", err)
		}
	}
	if err := ws.Write(ctx, websocket.MessageText, []byte(`{"type":"finalize"}`)); err != nil {
		return "", fmt.Errorf("live recognizer finalize: %w", err)
	}

	// Interims may precede the final; the last interim is kept as a
	// fallback in case the stream closes without a final event.
	var lastInterim string
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if lastInterim != "" {
				return lastInterim, nil
			}
			return "", fmt.Errorf("live recognizer read: %w", err)
		}
		var ev liveEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		switch ev.Type {
		case "final":
			return ev.Text, nil
		case "interim":
			if ev.Text != "" {
				lastInterim = ev.Text
			}
		case "error":
			return "", fmt.Errorf("live recognizer: %s", ev.Text)
		}
	}
}

func (l *LiveRecognizer) header() http.Header {
	h := make(http.Header)
	if l.apiKey != "" {
		h.Set("Authorization", "Token "+l.apiKey)
	}
	return h
}
