package stt

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Whisper transcribes audio with the OpenAI transcription API.
type Whisper struct {
	config *Config
	http   *http.Client
}

// NewWhisper creates a Whisper transcriber.
func NewWhisper(opts ...Option) *Whisper {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	cfg.Logger = cfg.Logger.With("component", "stt.whisper")
	return &Whisper{config: cfg, http: hc}
}

func (w *Whisper) client(key string) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(w.http),
		option.WithMaxRetries(0),
	}
	if w.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(w.config.BaseURL))
	}
	return openai.NewClient(opts...)
}

// Transcribe implements Transcriber.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte, key string) (string, error) {
	if key == "" {
		return "", ErrNoAPIKey
	}
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	start := time.Now()
	client := w.client(key)

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), w.config.FileName, w.config.ContentType),
		Model: openai.AudioModel(w.config.Model),
	}
	if w.config.Language != "" {
		params.Language = openai.String(w.config.Language)
	}

	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", serviceError(err)
	}

	text := strings.TrimSpace(resp.Text)
	w.config.Logger.Debug("transcribed",
		"bytes", len(audio),
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// serviceError converts an SDK error into *Error, keeping the service message.
func serviceError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &Error{StatusCode: apiErr.StatusCode, Message: msg}
	}
	return err
}

var _ Transcriber = (*Whisper)(nil)
