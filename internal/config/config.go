// Package config provides configuration loading for silverlink commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultDashboardAddr     = "127.0.0.1:8088"
	DefaultMinAudioBytes     = 500
	DefaultFailureResetDelay = 3 * time.Second
	DefaultMaxRecording      = 60 * time.Second
	DefaultDirName           = ".silverlink"
)

// Config holds all configuration for the assistant process.
// Flag parsing is done in cmd/silverlink; this struct is data only.
type Config struct {
	LogLevel string

	// DataDir holds keys.json, memos.json and the Google token.
	DataDir string

	DashboardAddr    string
	DashboardEnabled bool

	// ProxyAddr is an optional SOCKS5 proxy for all upstream calls.
	ProxyAddr string

	Audio  AudioConfig
	Turn   TurnConfig
	Google GoogleConfig

	// Keys read from the environment. They override the persisted keys file.
	EnvKeys Keys
}

// AudioConfig configures the ffmpeg capture and ffplay playback subprocesses.
type AudioConfig struct {
	FFmpegCommand string
	InputFormat   string
	InputDevice   string
	SampleRate    int
	Channels      int
	PlayerCommand string
	MaxRecording  time.Duration
}

// TurnConfig tunes pipeline turn handling.
type TurnConfig struct {
	MinAudioBytes     int
	FailureResetDelay time.Duration
}

// GoogleConfig enables the optional Google Docs memo mirror.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	MemoDocID    string
	RedirectURL  string
}

// DocsEnabled reports whether OAuth credentials for the Docs mirror are present.
func (g GoogleConfig) DocsEnabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	dataDir := DefaultDirName
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, DefaultDirName)
	}
	return Config{
		LogLevel:         "info",
		DataDir:          dataDir,
		DashboardAddr:    DefaultDashboardAddr,
		DashboardEnabled: true,
		Audio: AudioConfig{
			FFmpegCommand: "ffmpeg",
			InputFormat:   "pulse",
			InputDevice:   "default",
			SampleRate:    16000,
			Channels:      1,
			PlayerCommand: "ffplay",
			MaxRecording:  DefaultMaxRecording,
		},
		Turn: TurnConfig{
			MinAudioBytes:     DefaultMinAudioBytes,
			FailureResetDelay: DefaultFailureResetDelay,
		},
	}
}

// LoadEnv applies environment overrides on top of the current values.
// Call this after flag parsing.
func (c *Config) LoadEnv() {
	c.DataDir = envOrDefault("SILVERLINK_DATA_DIR", c.DataDir)
	c.DashboardAddr = envOrDefault("SILVERLINK_DASHBOARD_ADDR", c.DashboardAddr)
	c.ProxyAddr = envOrDefault("SILVERLINK_PROXY", c.ProxyAddr)
	c.LogLevel = envOrDefault("SILVERLINK_LOG_LEVEL", c.LogLevel)

	c.Audio.FFmpegCommand = envOrDefault("SILVERLINK_FFMPEG_COMMAND", c.Audio.FFmpegCommand)
	c.Audio.InputFormat = envOrDefault("SILVERLINK_AUDIO_INPUT_FORMAT", c.Audio.InputFormat)
	c.Audio.InputDevice = envOrDefault("SILVERLINK_AUDIO_INPUT_DEVICE", c.Audio.InputDevice)
	c.Audio.SampleRate = envOrDefaultInt("SILVERLINK_SAMPLE_RATE", c.Audio.SampleRate)
	c.Audio.Channels = envOrDefaultInt("SILVERLINK_CHANNELS", c.Audio.Channels)
	c.Audio.PlayerCommand = envOrDefault("SILVERLINK_PLAYER_COMMAND", c.Audio.PlayerCommand)
	c.Audio.MaxRecording = envOrDefaultDuration("SILVERLINK_MAX_RECORDING", c.Audio.MaxRecording)

	c.Turn.MinAudioBytes = envOrDefaultInt("SILVERLINK_MIN_AUDIO_BYTES", c.Turn.MinAudioBytes)
	c.Turn.FailureResetDelay = envOrDefaultDuration("SILVERLINK_FAILURE_RESET_DELAY", c.Turn.FailureResetDelay)

	c.Google.ClientID = envOrDefault("GOOGLE_CLIENT_ID", c.Google.ClientID)
	c.Google.ClientSecret = envOrDefault("GOOGLE_CLIENT_SECRET", c.Google.ClientSecret)
	c.Google.MemoDocID = envOrDefault("SILVERLINK_MEMO_DOC_ID", c.Google.MemoDocID)
	c.Google.RedirectURL = envOrDefault("GOOGLE_REDIRECT_URL", c.Google.RedirectURL)

	c.EnvKeys = Keys{
		OpenAI:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Taigi:      strings.TrimSpace(os.Getenv("TAIGI_API_KEY")),
		GoogleMaps: strings.TrimSpace(os.Getenv("GOOGLE_MAPS_API_KEY")),
	}
}

// Validate checks that the configuration is usable.
// Missing API keys are not an error here; the pipeline asks for them at runtime.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return &ConfigError{Field: "DataDir", Message: "data directory is required"}
	}
	if c.Audio.SampleRate <= 0 {
		return &ConfigError{Field: "Audio.SampleRate", Message: fmt.Sprintf("invalid sample rate %d", c.Audio.SampleRate)}
	}
	if c.Audio.Channels <= 0 {
		return &ConfigError{Field: "Audio.Channels", Message: fmt.Sprintf("invalid channel count %d", c.Audio.Channels)}
	}
	if c.Turn.MinAudioBytes < 0 {
		return &ConfigError{Field: "Turn.MinAudioBytes", Message: "minimum audio size cannot be negative"}
	}
	if c.Turn.FailureResetDelay < 0 {
		return &ConfigError{Field: "Turn.FailureResetDelay", Message: "failure reset delay cannot be negative"}
	}
	return nil
}

// KeysPath is the persisted credentials file.
func (c *Config) KeysPath() string {
	return filepath.Join(c.DataDir, "keys.json")
}

// MemosPath is the persisted memo collection.
func (c *Config) MemosPath() string {
	return filepath.Join(c.DataDir, "memos.json")
}

// GoogleTokenPath is where the Docs mirror OAuth token is kept.
func (c *Config) GoogleTokenPath() string {
	return filepath.Join(c.DataDir, "google_token.json")
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
