// Package dialogue produces the tutor's reply for a completed user turn.
package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client calls a chat-completions style endpoint.
type Client struct {
	cfg   ClientConfig
	httpc *http.Client
}

type ClientConfig struct {
	URL          string
	APIKey       string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Timeout      time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	return &Client{cfg: cfg, httpc: &http.Client{Timeout: cfg.Timeout}}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Reply sends the conversation history plus the user's new utterance and
// returns the assistant text.
func (c *Client) Reply(ctx context.Context, hist *History, userText string) (string, error) {
	msgs := make([]message, 0, hist.Len()+2)
	if c.cfg.SystemPrompt != "" {
		msgs = append(msgs, message{Role: "system", Content: c.cfg.SystemPrompt})
	}
	for _, t := range hist.Window() {
		msgs = append(msgs, message{Role: "user", Content: t.User})
		msgs = append(msgs, message{Role: "assistant", Content: t.Assistant})
	}
	msgs = append(msgs, message{Role: "user", Content: userText})

	body, err := json.Marshal(chatRequest{Model: c.cfg.Model, Messages: msgs, MaxTokens: c.cfg.MaxTokens})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		metricRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("dialogue request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		metricRequests.WithLabelValues("error").Inc()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("dialogue status=%d body=%s", resp.StatusCode, string(b))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metricRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("decode dialogue response: %w", err)
	}
	if out.Error != nil {
		metricRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("dialogue: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		metricRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("dialogue: empty choices")
	}
	metricRequests.WithLabelValues("ok").Inc()
	metricLatencyMS.Observe(float64(time.Since(start).Milliseconds()))
	log.Printf("[dialogue] reply in %s", time.Since(start).Round(time.Millisecond))
	return out.Choices[0].Message.Content, nil
}
