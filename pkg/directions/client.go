package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/teslashibe/go-silverlink/pkg/transit"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/directions"

// Config holds client configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string

	Timeout    time.Duration
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets the Maps API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the service URL (tests point this at httptest).
func WithBaseURL(u string) Option {
	return func(c *Config) {
		c.BaseURL = u
	}
}

// WithLanguage sets the response language.
func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.Language = lang
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithHTTPClient uses a custom HTTP client, e.g. one routed through a proxy.
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
		BaseURL:  defaultBaseURL,
		Language: "zh-TW",
		Timeout:  15 * time.Second,
		Logger:   slog.Default(),
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
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// Client calls the Directions web service with a single API key.
type Client struct {
	config  *Config
	http    *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewClient creates a Directions client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		config:  cfg,
		http:    hc,
		logger:  cfg.Logger.With("component", "directions.client"),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

type directionsResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Routes       []transit.Route `json:"routes"`
}

// Route fetches the first transit route for q.
func (c *Client) Route(ctx context.Context, q Query) (transit.Route, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/json?"+c.params(q).Encode(), nil)
	if err != nil {
		return transit.Route{}, fmt.Errorf("directions: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transit.Route{}, fmt.Errorf("directions: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return transit.Route{}, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var out directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return transit.Route{}, fmt.Errorf("directions: decode response: %w", err)
	}

	c.logger.Debug("directions response",
		"status", out.Status,
		"routes", len(out.Routes),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if out.Status != "OK" {
		return transit.Route{}, statusError(out.Status, out.ErrorMessage)
	}
	if len(out.Routes) == 0 {
		return transit.Route{}, statusError("ZERO_RESULTS", "")
	}

	return out.Routes[0], nil
}

func (c *Client) params(q Query) url.Values {
	v := url.Values{}
	v.Set("origin", q.Origin)
	v.Set("destination", q.Destination)
	v.Set("mode", "transit")
	v.Set("alternatives", "false")
	if c.config.Language != "" {
		v.Set("language", c.config.Language)
	}
	if q.Departure != nil {
		v.Set("departure_time", strconv.FormatInt(q.Departure.Unix(), 10))
	}
	if q.Mode != ModeAny {
		v.Set("transit_mode", q.Mode.param())
	}
	v.Set("key", c.config.APIKey)
	return v
}
