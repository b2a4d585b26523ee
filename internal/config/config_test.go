package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Clear relevant envs
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("AUDIO_SAMPLE_RATE")
	os.Unsetenv("VAD_CALIB_FRAMES_FULL")

	c := Load()

	if c.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", c.Server.Port)
	}
	if c.Audio.SampleRate != 16000 {
		t.Fatalf("expected default sample rate 16000, got %d", c.Audio.SampleRate)
	}
	if c.VAD.CalibFramesFull != 150 || c.VAD.CalibFramesQuick != 30 {
		t.Fatalf("unexpected calibration defaults: full=%d quick=%d", c.VAD.CalibFramesFull, c.VAD.CalibFramesQuick)
	}
	if c.VAD.StartFactor != 2.2 {
		t.Fatalf("expected start factor 2.2, got %v", c.VAD.StartFactor)
	}
}

func TestRemoteOnlyLanguages(t *testing.T) {
	os.Setenv("TRANSCRIBE_REMOTE_ONLY", "ru, ZH ,ja,")
	defer os.Unsetenv("TRANSCRIBE_REMOTE_ONLY")

	c := Load()
	langs := c.RemoteOnlyLanguages()
	want := []string{"ru", "zh", "ja"}
	if len(langs) != len(want) {
		t.Fatalf("expected %d languages, got %v", len(want), langs)
	}
	for i := range want {
		if langs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, langs)
		}
	}
}
