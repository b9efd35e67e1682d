package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const providerTaigi = "taigi"

// Taigi implements Provider against the hosted Taigi translation and
// synthesis services. Both calls authenticate with the same key.
type Taigi struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewTaigi creates a Taigi provider.
func NewTaigi(opts ...Option) (*Taigi, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Taigi{
		config: cfg,
		http:   hc,
		logger: cfg.Logger.With("component", "tts.taigi"),
	}, nil
}

type translateRequest struct {
	InputText string `json:"inputText"`
	InputLan  string `json:"inputLan"`
	OutputLan string `json:"outputLan"`
}

type translateResponse struct {
	OutputText string `json:"outputText"`
}

type synthesizeRequest struct {
	Text       string  `json:"text"`
	Model      string  `json:"model"`
	VoiceLabel string  `json:"voice_label"`
	Speed      float64 `json:"speed"`
}

type synthesizeResponse struct {
	ConvertedAudioURL string `json:"converted_audio_url"`
}

// Translate converts Traditional Chinese text into Taigi.
func (t *Taigi) Translate(ctx context.Context, text, key string) (string, error) {
	if key == "" {
		return "", ErrNoAPIKey
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	var out translateResponse
	err := t.post(ctx, t.config.TranslateURL, key, "Taigi Translation", translateRequest{
		InputText: text,
		InputLan:  t.config.InputLanguage,
		OutputLan: t.config.OutputLanguage,
	}, &out)
	if err != nil {
		return "", err
	}

	return out.OutputText, nil
}

// Synthesize renders Taigi text and returns the converted audio URL.
func (t *Taigi) Synthesize(ctx context.Context, text, key string) (*SpeechResult, error) {
	if key == "" {
		return nil, ErrNoAPIKey
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()

	var out synthesizeResponse
	err := t.post(ctx, t.config.SynthesizeURL, key, "Taigi TTS", synthesizeRequest{
		Text:       text,
		Model:      t.config.Model,
		VoiceLabel: t.config.Voice,
		Speed:      t.config.Speed,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.ConvertedAudioURL == "" {
		return nil, WrapError(providerTaigi, ErrNoAudio)
	}

	latency := time.Since(start).Milliseconds()
	t.logger.Debug("synthesis complete",
		"chars", utf8.RuneCountInString(text),
		"latency_ms", latency,
	)

	return &SpeechResult{
		AudioURL:  out.ConvertedAudioURL,
		Text:      text,
		CharCount: utf8.RuneCountInString(text),
		LatencyMs: latency,
	}, nil
}

func (t *Taigi) post(ctx context.Context, url, key, operation string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("tts: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("tts: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", key)

	resp, err := t.http.Do(req)
	if err != nil {
		return WrapError(providerTaigi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return t.parseError(resp, operation)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return WrapError(providerTaigi, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (t *Taigi) parseError(resp *http.Response, operation string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))

	t.logger.Error(operation+" error",
		"status", resp.StatusCode,
		"body", msg,
	)

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Operation:  operation,
		Provider:   providerTaigi,
	}
}

var _ Provider = (*Taigi)(nil)
