package voice

import (
	"errors"
	"log/slog"
	"time"

	"github.com/teslashibe/go-silverlink/pkg/transit"
)

// Config holds the tunable parameters of the orchestrator.
type Config struct {
	// MinAudioBytes rejects recordings smaller than this as too short.
	MinAudioBytes int

	// FailureResetDelay keeps a failed lookup's status visible before the
	// turn returns to idle.
	FailureResetDelay time.Duration

	// Location is used for the classifier's notion of "now".
	Location *time.Location

	// Now replaces time.Now in tests.
	Now func() time.Time

	Logger  *slog.Logger
	Metrics *MetricsCollector
}

// Option is a functional option for configuring the orchestrator.
type Option func(*Config)

// WithMinAudioBytes sets the minimum recording size.
func WithMinAudioBytes(n int) Option {
	return func(c *Config) {
		c.MinAudioBytes = n
	}
}

// WithFailureResetDelay sets how long a failed lookup stays on screen.
func WithFailureResetDelay(d time.Duration) Option {
	return func(c *Config) {
		c.FailureResetDelay = d
	}
}

// WithLocation sets the user's time zone.
func WithLocation(loc *time.Location) Option {
	return func(c *Config) {
		c.Location = loc
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics shares a metrics collector, e.g. with the dashboard.
func WithMetrics(m *MetricsCollector) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MinAudioBytes:     500,
		FailureResetDelay: 3 * time.Second,
		Location:          transit.Taipei(),
		Now:               time.Now,
		Logger:            slog.Default(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MinAudioBytes < 0 {
		return errors.New("voice: MinAudioBytes must not be negative")
	}
	if c.FailureResetDelay < 0 {
		return errors.New("voice: FailureResetDelay must not be negative")
	}
	return nil
}
