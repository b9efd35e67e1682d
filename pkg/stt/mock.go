package stt

import (
	"context"
	"sync"
)

// Mock implements Transcriber for testing.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, returns an empty transcript.
	TranscribeFunc func(ctx context.Context, audio []byte, key string) (string, error)

	mu    sync.Mutex
	calls int
}

// NewMock returns a mock that always transcribes to text.
func NewMock(text string) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, audio []byte, key string) (string, error) {
			return text, nil
		},
	}
}

// Transcribe calls TranscribeFunc and counts the call.
func (m *Mock) Transcribe(ctx context.Context, audio []byte, key string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, key)
	}
	return "", nil
}

// CallCount returns how many times Transcribe ran.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Transcriber = (*Mock)(nil)
