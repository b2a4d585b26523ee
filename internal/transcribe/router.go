// Package transcribe converts captured speech audio to text, choosing
// among recognition backends with a deterministic fallback policy.
package transcribe

import (
	"context"
	"log"
	"strings"
	"time"
)

// Backend is one speech-recognition provider.
type Backend interface {
	Name() string
	// Available probes the backend; called once at session start.
	Available(ctx context.Context) bool
	Transcribe(ctx context.Context, pcm []byte, lang string) (string, error)
}

// Result is what the router reports. Unavailable is set when every
// backend in the chain failed; the router never raises an error.
type Result struct {
	Text        string
	Backend     string
	Unavailable bool
}

// Empty reports whether the turn should be treated as a no-op.
func (r Result) Empty() bool { return r.Unavailable || strings.TrimSpace(r.Text) == "" }

// Router owns the backend selection policy: the live recognizer is
// preferred, the remote backend is the single fallback, and languages
// whose scripts the live recognizer cannot reliably handle are routed
// to the remote backend outright.
type Router struct {
	live       Backend
	remote     Backend
	remoteOnly map[string]bool
	liveOK     bool
}

func NewRouter(live, remote Backend, remoteOnlyLangs []string) *Router {
	m := make(map[string]bool, len(remoteOnlyLangs))
	for _, l := range remoteOnlyLangs {
		m[strings.ToLower(strings.TrimSpace(l))] = true
	}
	return &Router{live: live, remote: remote, remoteOnly: m}
}

// Negotiate probes backend availability once at session start, so the
// per-turn path never probes capabilities.
func (r *Router) Negotiate(ctx context.Context) {
	r.liveOK = r.live != nil && r.live.Available(ctx)
	log.Printf("[transcribe] capability negotiation: live=%v", r.liveOK)
}

// ForcesRemote reports whether the language bypasses the live recognizer.
func (r *Router) ForcesRemote(lang string) bool {
	base, _, _ := strings.Cut(strings.ToLower(lang), "-")
	return r.remoteOnly[base]
}

// Transcribe runs the backend chain for one utterance. All failures are
// contained; exhausting the chain yields an Unavailable result.
func (r *Router) Transcribe(ctx context.Context, pcm []byte, lang string) Result {
	chain := r.chain(lang)
	for _, b := range chain {
		if b == nil {
			continue
		}
		start := time.Now()
		text, err := b.Transcribe(ctx, pcm, lang)
		if err != nil {
			log.Printf("[transcribe] backend=%s failed: %v", b.Name(), err)
			metricRequests.WithLabelValues(b.Name(), "error").Inc()
			metricFallbacks.Inc()
			continue
		}
		metricRequests.WithLabelValues(b.Name(), "ok").Inc()
		metricLatencyMS.Observe(float64(time.Since(start).Milliseconds()))
		return Result{Text: text, Backend: b.Name()}
	}
	metricUnavailable.Inc()
	return Result{Unavailable: true}
}

func (r *Router) chain(lang string) []Backend {
	if r.ForcesRemote(lang) || !r.liveOK {
		return []Backend{r.remote}
	}
	return []Backend{r.live, r.remote}
}
