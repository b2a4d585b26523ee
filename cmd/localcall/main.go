// localcall runs the tutoring call against the local microphone and
// speaker instead of a websocket client. Useful for trying the pipeline
// end to end on a dev machine.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lingua/voice/internal/audio"
	"lingua/voice/internal/config"
	"lingua/voice/internal/device"
	"lingua/voice/internal/dialogue"
	"lingua/voice/internal/synth"
	"lingua/voice/internal/transcribe"
	"lingua/voice/internal/turn"
	"lingua/voice/internal/vad"
)

func main() {
	lang := flag.String("lang", "en-US", "session language tag")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	meter := audio.NewMeter(cfg.Audio.SampleRate, cfg.Audio.FrameMs)
	det := vad.New(vad.Config{
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
	})

	live := transcribe.NewLiveRecognizer(cfg.Transcribe.LiveURL, cfg.Transcribe.LiveAPIKey,
		time.Duration(cfg.Transcribe.TimeoutS)*time.Second)
	remote := transcribe.NewRemoteTranscriber(cfg.Transcribe.RemoteURL, cfg.Transcribe.RemoteAPIKey,
		time.Duration(cfg.Transcribe.TimeoutS)*time.Second)
	router := transcribe.NewRouter(live, remote, cfg.RemoteOnlyLanguages())
	negCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	router.Negotiate(negCtx)
	cancel()

	player, err := device.NewPlayer(cfg.Audio.SampleRate)
	if err != nil {
		log.Fatalf("speaker: %v", err)
	}
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

	ctrl := turn.NewController(turn.Config{Language: *lang}, meter, det, router, respond, speaker, player)

	mic, err := device.NewMic(cfg.Audio.SampleRate, cfg.Audio.FrameMs, meter.FrameBytes(), ctrl.OnFrame)
	if err != nil {
		log.Fatalf("microphone: %v", err)
	}
	if err := mic.Start(); err != nil {
		log.Fatalf("microphone: %v", err)
	}

	log.Printf("call started lang=%s, speak after calibration; Ctrl-C to hang up", *lang)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc

	log.Printf("hanging up...")
	mic.Close()
	ctrl.Stop()
}
