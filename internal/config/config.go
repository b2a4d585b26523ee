package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Audio struct {
		SampleRate int
		FrameMs    int
	}
	VAD struct {
		CalibFramesFull    int
		CalibFramesQuick   int
		MinNoiseFloor      float64
		StartFactor        float64
		MinStartLevel      float64
		EndFactor          float64
		MinSpeechFrames    int
		MinSilenceFrames   int
		MinSpeechDurFrames int
		RelaxAfterFrames   int
		RelaxStep          float64
		RelaxFloorFactor   float64
		OutlierFactor      float64
	}
	Synth struct {
		URL      string
		APIKey   string
		Voice    string
		Speed    float64
		Format   string
		TimeoutS int
	}
	Transcribe struct {
		LiveURL      string
		LiveAPIKey   string
		RemoteURL    string
		RemoteAPIKey string
		TimeoutS     int
		RemoteOnly   string // comma-separated language codes forced to the remote backend
	}
	Dialogue struct {
		URL      string
		APIKey   string
		Model    string
		System   string
		TimeoutS int
		MaxTurns int
	}
	Call struct {
		TokenSecret   string
		TokenExpMin   int
		TokenSkewSecs int
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.frame_ms", 20)

	v.SetDefault("vad.calib_frames_full", 150)
	v.SetDefault("vad.calib_frames_quick", 30)
	v.SetDefault("vad.min_noise_floor", 120.0)
	v.SetDefault("vad.start_factor", 2.2)
	v.SetDefault("vad.min_start_level", 500.0)
	v.SetDefault("vad.end_factor", 0.5)
	v.SetDefault("vad.min_speech_frames", 3)
	v.SetDefault("vad.min_silence_frames", 25)
	v.SetDefault("vad.min_speech_dur_frames", 10)
	v.SetDefault("vad.relax_after_frames", 50)
	v.SetDefault("vad.relax_step", 0.85)
	v.SetDefault("vad.relax_floor_factor", 0.4)
	v.SetDefault("vad.outlier_factor", 3.0)

	v.SetDefault("synth.voice", "alloy")
	v.SetDefault("synth.speed", 1.0)
	v.SetDefault("synth.format", "wav")
	v.SetDefault("synth.timeout_s", 15)

	v.SetDefault("transcribe.timeout_s", 10)
	v.SetDefault("transcribe.remote_only", "ru,zh,ja,ko,ar,he")

	v.SetDefault("dialogue.model", "gpt-4o-mini")
	v.SetDefault("dialogue.timeout_s", 20)
	v.SetDefault("dialogue.max_turns", 12)

	v.SetDefault("call.token_exp_min", 120)
	v.SetDefault("call.token_skew_secs", 30)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("audio.sample_rate", "AUDIO_SAMPLE_RATE")
	v.BindEnv("audio.frame_ms", "AUDIO_FRAME_MS")

	v.BindEnv("vad.calib_frames_full", "VAD_CALIB_FRAMES_FULL")
	v.BindEnv("vad.calib_frames_quick", "VAD_CALIB_FRAMES_QUICK")
	v.BindEnv("vad.min_noise_floor", "VAD_MIN_NOISE_FLOOR")
	v.BindEnv("vad.start_factor", "VAD_START_FACTOR")
	v.BindEnv("vad.min_start_level", "VAD_MIN_START_LEVEL")
	v.BindEnv("vad.end_factor", "VAD_END_FACTOR")
	v.BindEnv("vad.min_speech_frames", "VAD_MIN_SPEECH_FRAMES")
	v.BindEnv("vad.min_silence_frames", "VAD_MIN_SILENCE_FRAMES")
	v.BindEnv("vad.min_speech_dur_frames", "VAD_MIN_SPEECH_DUR_FRAMES")
	v.BindEnv("vad.relax_after_frames", "VAD_RELAX_AFTER_FRAMES")
	v.BindEnv("vad.relax_step", "VAD_RELAX_STEP")
	v.BindEnv("vad.relax_floor_factor", "VAD_RELAX_FLOOR_FACTOR")
	v.BindEnv("vad.outlier_factor", "VAD_OUTLIER_FACTOR")

	v.BindEnv("synth.url", "SYNTH_URL")
	v.BindEnv("synth.api_key", "SYNTH_API_KEY")
	v.BindEnv("synth.voice", "SYNTH_VOICE")
	v.BindEnv("synth.speed", "SYNTH_SPEED")
	v.BindEnv("synth.format", "SYNTH_FORMAT")
	v.BindEnv("synth.timeout_s", "SYNTH_TIMEOUT_S")

	v.BindEnv("transcribe.live_url", "TRANSCRIBE_LIVE_URL")
	v.BindEnv("transcribe.live_api_key", "TRANSCRIBE_LIVE_API_KEY")
	v.BindEnv("transcribe.remote_url", "TRANSCRIBE_REMOTE_URL")
	v.BindEnv("transcribe.remote_api_key", "TRANSCRIBE_REMOTE_API_KEY")
	v.BindEnv("transcribe.timeout_s", "TRANSCRIBE_TIMEOUT_S")
	v.BindEnv("transcribe.remote_only", "TRANSCRIBE_REMOTE_ONLY")

	v.BindEnv("dialogue.url", "DIALOGUE_URL")
	v.BindEnv("dialogue.api_key", "DIALOGUE_API_KEY")
	v.BindEnv("dialogue.model", "DIALOGUE_MODEL")
	v.BindEnv("dialogue.system", "DIALOGUE_SYSTEM_PROMPT")
	v.BindEnv("dialogue.timeout_s", "DIALOGUE_TIMEOUT_S")
	v.BindEnv("dialogue.max_turns", "DIALOGUE_MAX_TURNS")

	v.BindEnv("call.token_secret", "CALL_TOKEN_SECRET")
	v.BindEnv("call.token_exp_min", "CALL_TOKEN_EXP_MIN")
	v.BindEnv("call.token_skew_secs", "CALL_TOKEN_SKEW_SECS")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Audio.SampleRate = v.GetInt("audio.sample_rate")
	c.Audio.FrameMs = v.GetInt("audio.frame_ms")

	c.VAD.CalibFramesFull = v.GetInt("vad.calib_frames_full")
	c.VAD.CalibFramesQuick = v.GetInt("vad.calib_frames_quick")
	c.VAD.MinNoiseFloor = v.GetFloat64("vad.min_noise_floor")
	c.VAD.StartFactor = v.GetFloat64("vad.start_factor")
	c.VAD.MinStartLevel = v.GetFloat64("vad.min_start_level")
	c.VAD.EndFactor = v.GetFloat64("vad.end_factor")
	c.VAD.MinSpeechFrames = v.GetInt("vad.min_speech_frames")
	c.VAD.MinSilenceFrames = v.GetInt("vad.min_silence_frames")
	c.VAD.MinSpeechDurFrames = v.GetInt("vad.min_speech_dur_frames")
	c.VAD.RelaxAfterFrames = v.GetInt("vad.relax_after_frames")
	c.VAD.RelaxStep = v.GetFloat64("vad.relax_step")
	c.VAD.RelaxFloorFactor = v.GetFloat64("vad.relax_floor_factor")
	c.VAD.OutlierFactor = v.GetFloat64("vad.outlier_factor")

	c.Synth.URL = v.GetString("synth.url")
	c.Synth.APIKey = v.GetString("synth.api_key")
	c.Synth.Voice = v.GetString("synth.voice")
	c.Synth.Speed = v.GetFloat64("synth.speed")
	c.Synth.Format = v.GetString("synth.format")
	c.Synth.TimeoutS = v.GetInt("synth.timeout_s")

	c.Transcribe.LiveURL = v.GetString("transcribe.live_url")
	c.Transcribe.LiveAPIKey = v.GetString("transcribe.live_api_key")
	c.Transcribe.RemoteURL = v.GetString("transcribe.remote_url")
	c.Transcribe.RemoteAPIKey = v.GetString("transcribe.remote_api_key")
	c.Transcribe.TimeoutS = v.GetInt("transcribe.timeout_s")
	c.Transcribe.RemoteOnly = v.GetString("transcribe.remote_only")

	c.Dialogue.URL = v.GetString("dialogue.url")
	c.Dialogue.APIKey = v.GetString("dialogue.api_key")
	c.Dialogue.Model = v.GetString("dialogue.model")
	c.Dialogue.System = v.GetString("dialogue.system")
	c.Dialogue.TimeoutS = v.GetInt("dialogue.timeout_s")
	c.Dialogue.MaxTurns = v.GetInt("dialogue.max_turns")

	c.Call.TokenSecret = v.GetString("call.token_secret")
	c.Call.TokenExpMin = v.GetInt("call.token_exp_min")
	c.Call.TokenSkewSecs = v.GetInt("call.token_skew_secs")

	log.Printf("config loaded: port=%s sample_rate=%d frame_ms=%d", c.Server.Port, c.Audio.SampleRate, c.Audio.FrameMs)
	return c
}

// RemoteOnlyLanguages parses the comma-separated force-remote language list.
func (c Config) RemoteOnlyLanguages() []string {
	parts := strings.Split(c.Transcribe.RemoteOnly, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toString(v any) string { return fmt.Sprint(v) }
