package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lingua/voice/internal/api"
	"lingua/voice/internal/audio"
	"lingua/voice/internal/callws"
	"lingua/voice/internal/config"
	"lingua/voice/internal/dialogue"
	"lingua/voice/internal/health"
	"lingua/voice/internal/store"
	"lingua/voice/internal/synth"
	"lingua/voice/internal/transcribe"
	"lingua/voice/internal/turn"
	"lingua/voice/internal/vad"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	st := store.New()
	reg := callws.NewRegistry()

	factory := func(sess *store.Session, player synth.Player) (callws.SessionController, error) {
		meter := audio.NewMeter(cfg.Audio.SampleRate, cfg.Audio.FrameMs)
		det := vad.New(vadConfig(cfg))

		live := transcribe.NewLiveRecognizer(cfg.Transcribe.LiveURL, cfg.Transcribe.LiveAPIKey,
			time.Duration(cfg.Transcribe.TimeoutS)*time.Second)
		remote := transcribe.NewRemoteTranscriber(cfg.Transcribe.RemoteURL, cfg.Transcribe.RemoteAPIKey,
			time.Duration(cfg.Transcribe.TimeoutS)*time.Second)
		router := transcribe.NewRouter(live, remote, cfg.RemoteOnlyLanguages())
		negCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		router.Negotiate(negCtx)
		cancel()

		gen := synth.NewClient(synth.ClientConfig{
			URL:     cfg.Synth.URL,
			APIKey:  cfg.Synth.APIKey,
			Voice:   cfg.Synth.Voice,
			Speed:   cfg.Synth.Speed,
			Format:  cfg.Synth.Format,
			Timeout: time.Duration(cfg.Synth.TimeoutS) * time.Second,
		})
		speaker := synth.New(gen, player)

		client := dialogue.NewClient(dialogue.ClientConfig{
			URL:          cfg.Dialogue.URL,
			APIKey:       cfg.Dialogue.APIKey,
			Model:        cfg.Dialogue.Model,
			SystemPrompt: cfg.Dialogue.System,
			Timeout:      time.Duration(cfg.Dialogue.TimeoutS) * time.Second,
		})
		respond := turn.NewDialogueResponder(client, dialogue.NewHistory(cfg.Dialogue.MaxTurns))

		sink := &callSink{st: st, reg: reg, sessionID: sess.ID}
		log.Printf("[voiced] session %s attached lang=%s text_only=%v", sess.ID, sess.Language, sess.TextOnly)
		ctrl := turn.NewController(turn.Config{
			Language: sess.Language,
			TextOnly: sess.TextOnly,
			Events:   sink,
		}, meter, det, router, respond, speaker, player)
		return ctrl, nil
	}

	h := api.NewHandlers(cfg, st, reg)
	wss := callws.NewServer(cfg, st, reg, factory)

	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(h))
	mux.HandleFunc("/call/", wss.HandleCall)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		status := health.CheckAll(r.Context(), cfg)
		w.Header().Set("Content-Type", "application/json")
		if !status.OK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		for _, id := range st.ListSessionIDs() {
			reg.Detach(id)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

// callSink fans call events out to the session log and, when a client
// is attached, the call websocket. Writes are fire-and-forget.
type callSink struct {
	st        *store.Store
	reg       *callws.Registry
	sessionID string
}

func (s *callSink) Emit(typ string, payload map[string]any) {
	s.st.AppendEvent(s.sessionID, typ, payload)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		msg := map[string]any{"type": typ}
		for k, v := range payload {
			msg[k] = v
		}
		_ = s.reg.SendJSON(ctx, s.sessionID, msg)
	}()
}

func vadConfig(cfg config.Config) vad.Config {
	return vad.Config{
		CalibFramesFull:    cfg.VAD.CalibFramesFull,
		CalibFramesQuick:   cfg.VAD.CalibFramesQuick,
		MinNoiseFloor:      cfg.VAD.MinNoiseFloor,
		StartFactor:        cfg.VAD.StartFactor,
		MinStartLevel:      cfg.VAD.MinStartLevel,
		EndFactor:          cfg.VAD.EndFactor,
		MinSpeechFrames:    cfg.VAD.MinSpeechFrames,
		MinSilenceFrames:   cfg.VAD.MinSilenceFrames,
		MinSpeechDurFrames: cfg.VAD.MinSpeechDurFrames,
		RelaxAfterFrames:   cfg.VAD.RelaxAfterFrames,
		RelaxStep:          cfg.VAD.RelaxStep,
		RelaxFloorFactor:   cfg.VAD.RelaxFloorFactor,
		OutlierFactor:      cfg.VAD.OutlierFactor,
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
