package intent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Config holds classifier configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	BaseURL  string
	Model    string
	Location *time.Location

	Timeout    time.Duration
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Option is a functional option for configuring the classifier.
type Option func(*Config)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Config) {
		c.BaseURL = u
	}
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithLocation sets the zone used for the prompt clock and naive times.
func WithLocation(loc *time.Location) Option {
	return func(c *Config) {
		c.Location = loc
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
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return &Config{
		Model:    openai.ChatModelGPT4o,
		Location: loc,
		Timeout:  30 * time.Second,
		Logger:   slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// OpenAI classifies with a chat completion constrained to a JSON object.
type OpenAI struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI-backed classifier.
func NewOpenAI(opts ...Option) *OpenAI {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAI{
		config: cfg,
		http:   hc,
		logger: cfg.Logger.With("component", "intent.openai"),
	}
}

// Location is the zone naive departure times should be read in.
func (o *OpenAI) Location() *time.Location {
	return o.config.Location
}

// Classify implements Classifier.
func (o *OpenAI) Classify(ctx context.Context, transcript string, now time.Time, key string) (Result, error) {
	if key == "" {
		return Result{}, ErrNoAPIKey
	}

	start := time.Now()

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(o.http),
		option.WithMaxRetries(0),
	}
	if o.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.config.BaseURL))
	}
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.config.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(now, o.config.Location)),
			openai.UserMessage(transcript),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = http.StatusText(apiErr.StatusCode)
			}
			return Result{}, &APIError{StatusCode: apiErr.StatusCode, Message: msg}
		}
		return Result{}, err
	}

	if len(resp.Choices) == 0 {
		return Result{}, ErrMalformedResponse
	}

	content := resp.Choices[0].Message.Content
	result, err := Parse(content)
	if err != nil {
		o.logger.Warn("unparsable classifier output", "content", content)
		return Result{}, err
	}

	o.logger.Debug("classified",
		"intent", result.Intent,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

var _ Classifier = (*OpenAI)(nil)
