package tts

import (
	"log/slog"
	"net/http"
	"time"
)

// Default Taigi service settings.
const (
	DefaultTranslateURL  = "https://learn-language.tokyo/taigiTransBilling/model2/translate_api_limit"
	DefaultSynthesizeURL = "https://learn-language.tokyo/taigiStripe/synth_convert_api_limit_gender"
	DefaultModel         = "model7"
	DefaultVoice         = "normal_f2"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Service endpoints
	TranslateURL  string
	SynthesizeURL string

	// Language pair for translation
	InputLanguage  string
	OutputLanguage string

	// Voice configuration
	Model string
	Voice string
	Speed float64

	// Timeouts
	Timeout    time.Duration
	HTTPClient *http.Client

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithEndpoints overrides the translate and synthesize URLs.
func WithEndpoints(translateURL, synthesizeURL string) Option {
	return func(c *Config) {
		c.TranslateURL = translateURL
		c.SynthesizeURL = synthesizeURL
	}
}

// WithLanguages sets the translation language pair.
func WithLanguages(in, out string) Option {
	return func(c *Config) {
		c.InputLanguage = in
		c.OutputLanguage = out
	}
}

// WithVoice sets the voice label.
func WithVoice(voice string) Option {
	return func(c *Config) {
		c.Voice = voice
	}
}

// WithModel sets the synthesis model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithSpeed sets the speaking rate (1.0 is normal).
func WithSpeed(speed float64) Option {
	return func(c *Config) {
		c.Speed = speed
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithHTTPClient uses a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = hc
	}
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		TranslateURL:   DefaultTranslateURL,
		SynthesizeURL:  DefaultSynthesizeURL,
		InputLanguage:  "zhtw",
		OutputLanguage: "tw",
		Model:          DefaultModel,
		Voice:          DefaultVoice,
		Speed:          1.0,
		Timeout:        30 * time.Second,
		Logger:         slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.TranslateURL == "" || c.SynthesizeURL == "" {
		return ErrNoEndpoint
	}
	if c.Voice == "" {
		return ErrNoVoiceID
	}
	return nil
}
