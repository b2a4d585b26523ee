// Package health probes the external services a call depends on.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lingua/voice/internal/config"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

type Status struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h Status) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "ok"
		if !c.OK {
			mark = "fail"
		}
		s += fmt.Sprintf("  [%s] %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Error != "" {
			s += fmt.Sprintf(" - %s", c.Error)
		}
		s += "\n"
	}
	return s
}

// CheckAll probes each configured downstream and returns combined status.
// Unconfigured services are reported as failing with a reason rather
// than skipped silently.
func CheckAll(ctx context.Context, cfg config.Config) Status {
	checks := []CheckResult{
		checkEndpoint(ctx, "synth", cfg.Synth.URL, cfg.Synth.APIKey),
		checkEndpoint(ctx, "transcribe_remote", cfg.Transcribe.RemoteURL, cfg.Transcribe.RemoteAPIKey),
		checkEndpoint(ctx, "dialogue", cfg.Dialogue.URL, cfg.Dialogue.APIKey),
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
		}
	}
	return Status{OK: allOK, Checks: checks, CheckedAt: time.Now().UTC()}
}

// checkEndpoint verifies the service is reachable. Any HTTP response,
// including 4xx/5xx from probing with no payload, counts as reachable;
// only transport failures do not.
func checkEndpoint(ctx context.Context, name, url, apiKey string) CheckResult {
	start := time.Now()
	result := CheckResult{Name: name}

	if url == "" {
		result.Error = name + " URL not set"
		result.Latency = time.Since(start)
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("request build failed: %v", err)
		result.Latency = time.Since(start)
		return result
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Latency = time.Since(start)
		return result
	}
	resp.Body.Close()

	result.Latency = time.Since(start)
	result.OK = true
	return result
}
