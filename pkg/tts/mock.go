package tts

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"
)

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// TranslateFunc is called when Translate is invoked.
	// If nil, returns the text unchanged.
	TranslateFunc func(ctx context.Context, text, key string) (string, error)

	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns an error.
	SynthesizeFunc func(ctx context.Context, text, key string) (*SpeechResult, error)

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// NewMock creates a mock whose synthesis returns audioURL.
func NewMock(audioURL string) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text, key string) (*SpeechResult, error) {
			return &SpeechResult{
				AudioURL:  audioURL,
				Text:      text,
				CharCount: utf8.RuneCountInString(text),
				LatencyMs: 10,
			}, nil
		},
	}
}

// Translate calls TranslateFunc and records the call.
func (m *Mock) Translate(ctx context.Context, text, key string) (string, error) {
	m.recordCall("Translate", text)
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, key)
	}
	return text, nil
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *Mock) Synthesize(ctx context.Context, text, key string) (*SpeechResult, error) {
	m.recordCall("Synthesize", text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, key)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

func (m *Mock) recordCall(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Text:   text,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock whose every call fails with err.
func WithError(err error) *Mock {
	return &Mock{
		TranslateFunc: func(ctx context.Context, text, key string) (string, error) {
			return "", err
		},
		SynthesizeFunc: func(ctx context.Context, text, key string) (*SpeechResult, error) {
			return nil, err
		},
	}
}

// WithLatency wraps a mock to add artificial latency to synthesis.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	original := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text, key string) (*SpeechResult, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if original != nil {
			return original(ctx, text, key)
		}
		return nil, WrapError("mock", ErrProviderUnavailable)
	}
	return m
}

var _ Provider = (*Mock)(nil)
