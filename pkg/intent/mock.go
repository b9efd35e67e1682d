package intent

import (
	"context"
	"sync"
	"time"
)

// Mock implements Classifier for testing.
type Mock struct {
	// ClassifyFunc is called when Classify is invoked.
	// If nil, echoes the transcript back as a chat reply.
	ClassifyFunc func(ctx context.Context, transcript string, now time.Time, key string) (Result, error)

	mu          sync.Mutex
	transcripts []string
}

// NewMock returns a mock that always classifies to r.
func NewMock(r Result) *Mock {
	return &Mock{
		ClassifyFunc: func(ctx context.Context, transcript string, now time.Time, key string) (Result, error) {
			return r, nil
		},
	}
}

// Classify calls ClassifyFunc and records the transcript.
func (m *Mock) Classify(ctx context.Context, transcript string, now time.Time, key string) (Result, error) {
	m.mu.Lock()
	m.transcripts = append(m.transcripts, transcript)
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, transcript, now, key)
	}
	return Result{Intent: KindChat, Reply: transcript}, nil
}

// Transcripts returns every transcript classified so far.
func (m *Mock) Transcripts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.transcripts))
	copy(out, m.transcripts)
	return out
}

var _ Classifier = (*Mock)(nil)
