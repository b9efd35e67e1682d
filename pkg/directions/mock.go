package directions

import (
	"context"
	"sync"

	"github.com/teslashibe/go-silverlink/pkg/transit"
)

// Mock implements Service for testing.
type Mock struct {
	// RouteFunc is called when Route is invoked.
	// If nil, returns ErrNoRoute.
	RouteFunc func(ctx context.Context, q Query, key string) (transit.Route, error)

	mu      sync.Mutex
	queries []Query
}

// Route calls RouteFunc and records the query.
func (m *Mock) Route(ctx context.Context, q Query, key string) (transit.Route, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if m.RouteFunc != nil {
		return m.RouteFunc(ctx, q, key)
	}
	return transit.Route{}, statusError("ZERO_RESULTS", "")
}

// Queries returns all recorded queries.
func (m *Mock) Queries() []Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Query, len(m.queries))
	copy(out, m.queries)
	return out
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		RouteFunc: func(ctx context.Context, q Query, key string) (transit.Route, error) {
			return transit.Route{}, err
		},
	}
}

var _ Service = (*Mock)(nil)
