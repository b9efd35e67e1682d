// Package stt transcribes recorded speech to text.
//
// Whisper is the production implementation backed by the OpenAI audio
// transcription endpoint. The API key is passed per call because the user can
// change it while the assistant is running.
package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Transcriber converts an audio recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, key string) (string, error)
}

// Sentinel errors for common error conditions.
var (
	// ErrNoAPIKey is returned when the call has no key.
	ErrNoAPIKey = errors.New("stt: API key required")

	// ErrEmptyAudio is returned for a zero-length recording.
	ErrEmptyAudio = errors.New("stt: empty audio")
)

// Error is a rejection from the transcription service. Message carries the
// service's own explanation when it sent one.
type Error struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("Whisper API Error: %s", e.Message)
}

// IsUnauthorized reports whether the key was rejected.
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Config holds transcriber configuration.
type Config struct {
	BaseURL     string
	Model       string
	Language    string
	FileName    string
	ContentType string

	Timeout    time.Duration
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Option is a functional option for configuring the transcriber.
type Option func(*Config)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Config) {
		c.BaseURL = u
	}
}

// WithModel sets the transcription model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithLanguage sets the language hint (ISO-639-1).
func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.Language = lang
	}
}

// WithFile sets the upload file name and content type, which tell the
// service how the audio is encoded.
func WithFile(name, contentType string) Option {
	return func(c *Config) {
		c.FileName = name
		c.ContentType = contentType
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

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:       "whisper-1",
		Language:    "zh",
		FileName:    "recording.wav",
		ContentType: "audio/wav",
		Timeout:     60 * time.Second,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
