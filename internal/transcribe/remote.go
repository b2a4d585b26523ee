package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RemoteTranscriber posts a whole utterance to the batch transcription
// service and reads back {text}.
type RemoteTranscriber struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewRemoteTranscriber(baseURL, apiKey string, timeout time.Duration) *RemoteTranscriber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteTranscriber{baseURL: baseURL, apiKey: apiKey, httpc: &http.Client{Timeout: timeout}}
}

func (r *RemoteTranscriber) Name() string { return "remote" }

func (r *RemoteTranscriber) Available(ctx context.Context) bool {
	return r.baseURL != ""
}

type remoteResponse struct {
	Text string `json:"text"`
}

func (r *RemoteTranscriber) Transcribe(ctx context.Context, pcm []byte, lang string) (string, error) {
	u := r.baseURL
	if lang != "" {
		u += "?" + url.Values{"language": {lang}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(pcm))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := r.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("remote transcription status=%d body=%s", resp.StatusCode, string(b))
	}
	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return out.Text, nil
}
