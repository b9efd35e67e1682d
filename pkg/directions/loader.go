package directions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-silverlink/pkg/transit"
)

// RouteFinder is a directions client bound to one credential.
type RouteFinder interface {
	Route(ctx context.Context, q Query) (transit.Route, error)
}

// Factory builds a RouteFinder for a key.
type Factory func(key string) (RouteFinder, error)

// ClientFactory returns a Factory that builds Clients with opts plus the key.
func ClientFactory(opts ...Option) Factory {
	return func(key string) (RouteFinder, error) {
		return NewClient(append(opts, WithAPIKey(key))...)
	}
}

// AuthFailure reports that the service rejected the configured key.
type AuthFailure struct {
	Message string
	At      time.Time
}

// Loader lazily creates the client for the current key. Concurrent callers
// with the same key share one build; a different key discards the cached client.
type Loader struct {
	factory Factory
	logger  *slog.Logger

	mu      sync.Mutex
	key     string
	current *pending

	failures chan AuthFailure
}

type pending struct {
	once   sync.Once
	finder RouteFinder
	err    error
}

// NewLoader creates a Loader. A nil logger uses slog.Default.
func NewLoader(factory Factory, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		factory:  factory,
		logger:   logger.With("component", "directions.loader"),
		failures: make(chan AuthFailure, 1),
	}
}

// AuthFailures delivers credential rejections. At most one undelivered
// failure is buffered; later ones are dropped until it is read.
func (l *Loader) AuthFailures() <-chan AuthFailure {
	return l.failures
}

// Route implements Service.
func (l *Loader) Route(ctx context.Context, q Query, key string) (transit.Route, error) {
	if key == "" {
		return transit.Route{}, ErrNoAPIKey
	}

	finder, err := l.load(key)
	if err != nil {
		return transit.Route{}, err
	}

	route, err := finder.Route(ctx, q)
	if errors.Is(err, ErrPermissionDenied) {
		l.invalidate(key)
		l.publish(AuthFailure{Message: err.Error(), At: time.Now()})
	}
	return route, err
}

func (l *Loader) load(key string) (RouteFinder, error) {
	l.mu.Lock()
	if l.current == nil || l.key != key {
		if l.current != nil {
			l.logger.Info("maps key changed, discarding client")
		}
		l.key = key
		l.current = &pending{}
	}
	p := l.current
	l.mu.Unlock()

	p.once.Do(func() {
		p.finder, p.err = l.factory(key)
	})

	if p.err != nil {
		l.mu.Lock()
		if l.current == p {
			l.current = nil
		}
		l.mu.Unlock()
		return nil, p.err
	}
	return p.finder, nil
}

func (l *Loader) invalidate(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.key == key {
		l.current = nil
	}
}

func (l *Loader) publish(f AuthFailure) {
	select {
	case l.failures <- f:
		l.logger.Warn("maps key rejected", "error", f.Message)
	default:
	}
}

var _ Service = (*Loader)(nil)
var _ RouteFinder = (*Client)(nil)
