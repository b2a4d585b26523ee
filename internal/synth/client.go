package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lingua/voice/internal/audio"
)

// Client calls the remote speech-synthesis service: one HTTP request per
// utterance, raw audio bytes back.
type Client struct {
	url    string
	apiKey string
	voice  string
	speed  float64
	format string
	httpc  *http.Client
}

type ClientConfig struct {
	URL     string
	APIKey  string
	Voice   string
	Speed   float64
	Format  string
	Timeout time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		voice:  cfg.Voice,
		speed:  cfg.Speed,
		format: cfg.Format,
		httpc:  &http.Client{Timeout: cfg.Timeout},
	}
}

type synthRequest struct {
	Text   string  `json:"text"`
	Voice  string  `json:"voice"`
	Speed  float64 `json:"speed,omitempty"`
	Format string  `json:"format,omitempty"`
}

// Generate requests audio for one utterance and returns decoded PCM16LE.
func (c *Client) Generate(ctx context.Context, text string) ([]byte, error) {
	body, _ := json.Marshal(synthRequest{Text: text, Voice: c.voice, Speed: c.speed, Format: c.format})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("synthesis status=%d body=%s", resp.StatusCode, string(b))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	metricProviderMS.Observe(float64(time.Since(start).Milliseconds()))

	pcm, err := audio.ExtractPCM(data)
	if err != nil {
		return nil, fmt.Errorf("decode synthesis audio: %w", err)
	}
	return pcm, nil
}
