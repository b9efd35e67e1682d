package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Turn.MinAudioBytes != 500 {
		t.Errorf("MinAudioBytes = %d, want 500", cfg.Turn.MinAudioBytes)
	}
	if cfg.Turn.FailureResetDelay != 3*time.Second {
		t.Errorf("FailureResetDelay = %v, want 3s", cfg.Turn.FailureResetDelay)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("SILVERLINK_DATA_DIR", "/tmp/sl")
	t.Setenv("SILVERLINK_MIN_AUDIO_BYTES", "1024")
	t.Setenv("SILVERLINK_FAILURE_RESET_DELAY", "1500ms")
	t.Setenv("SILVERLINK_SAMPLE_RATE", "not-a-number")
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps")

	cfg := DefaultConfig()
	cfg.LoadEnv()

	if cfg.DataDir != "/tmp/sl" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Turn.MinAudioBytes != 1024 {
		t.Errorf("MinAudioBytes = %d", cfg.Turn.MinAudioBytes)
	}
	if cfg.Turn.FailureResetDelay != 1500*time.Millisecond {
		t.Errorf("FailureResetDelay = %v", cfg.Turn.FailureResetDelay)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("invalid int should keep default, got %d", cfg.Audio.SampleRate)
	}
	if cfg.EnvKeys.OpenAI != "sk-test" || cfg.EnvKeys.GoogleMaps != "maps" || cfg.EnvKeys.Taigi != "" {
		t.Errorf("EnvKeys = %+v", cfg.EnvKeys)
	}
	if cfg.KeysPath() != filepath.Join("/tmp/sl", "keys.json") {
		t.Errorf("KeysPath = %q", cfg.KeysPath())
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"no data dir", func(c *Config) { c.DataDir = "" }, "DataDir"},
		{"bad sample rate", func(c *Config) { c.Audio.SampleRate = 0 }, "Audio.SampleRate"},
		{"bad channels", func(c *Config) { c.Audio.Channels = -1 }, "Audio.Channels"},
		{"negative min bytes", func(c *Config) { c.Turn.MinAudioBytes = -1 }, "Turn.MinAudioBytes"},
		{"negative delay", func(c *Config) { c.Turn.FailureResetDelay = -time.Second }, "Turn.FailureResetDelay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(&cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestKeyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keys.json")

	store, err := NewKeyStore(path, Keys{GoogleMaps: "env-maps"})
	if err != nil {
		t.Fatalf("NewKeyStore: %v", err)
	}
	if got := store.Keys(); got != (Keys{GoogleMaps: "env-maps"}) {
		t.Fatalf("initial keys = %+v", got)
	}

	if err := store.Update(Keys{OpenAI: "sk-1", Taigi: "tg", GoogleMaps: "file-maps"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := store.Keys()
	if got.OpenAI != "sk-1" || got.Taigi != "tg" {
		t.Errorf("keys after update = %+v", got)
	}
	if got.GoogleMaps != "env-maps" {
		t.Errorf("environment key should win, got %q", got.GoogleMaps)
	}

	// Partial update keeps other fields.
	if err := store.Update(Keys{OpenAI: "sk-2"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := NewKeyStore(path, Keys{})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	want := Keys{OpenAI: "sk-2", Taigi: "tg", GoogleMaps: "file-maps"}
	if got := reloaded.Keys(); got != want {
		t.Errorf("reloaded = %+v, want %+v", got, want)
	}
	if !reloaded.Keys().Complete() {
		t.Error("expected complete keys")
	}
}

func TestKeyStoreBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewKeyStore(path, Keys{}); err == nil {
		t.Fatal("expected parse error")
	}
}
