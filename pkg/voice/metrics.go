package voice

import (
	"encoding/json"
	"sync"
	"time"
)

// Metrics tracks latency at each stage of one turn.
// All durations are measured from the moment recording stops.
type Metrics struct {
	TurnID string

	// Timestamps for key events
	SpeechEndTime  time.Time // When the button was released
	TranscriptTime time.Time // When Whisper returned
	IntentTime     time.Time // When the classifier returned
	RoutedTime     time.Time // When the action finished
	SpeechTime     time.Time // When the Taigi audio URL was ready
	DoneTime       time.Time // When the turn returned to idle

	// Per-stage latencies
	TranscribeLatency time.Duration
	ClassifyLatency   time.Duration
	RouteLatency      time.Duration
	FeedbackLatency   time.Duration
	TotalLatency      time.Duration

	// AudioBytes is the size of the recording.
	AudioBytes int
}

// MarshalJSON renders the latencies in milliseconds.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TurnID     string `json:"turnId,omitempty"`
		Transcribe int64  `json:"transcribeMs"`
		Classify   int64  `json:"classifyMs"`
		Route      int64  `json:"routeMs"`
		Feedback   int64  `json:"feedbackMs"`
		Total      int64  `json:"totalMs"`
		AudioBytes int    `json:"audioBytes"`
	}{
		TurnID:     m.TurnID,
		Transcribe: m.TranscribeLatency.Milliseconds(),
		Classify:   m.ClassifyLatency.Milliseconds(),
		Route:      m.RouteLatency.Milliseconds(),
		Feedback:   m.FeedbackLatency.Milliseconds(),
		Total:      m.TotalLatency.Milliseconds(),
		AudioBytes: m.AudioBytes,
	})
}

// MetricsCollector collects latency metrics during a turn.
// It is goroutine-safe.
type MetricsCollector struct {
	mu      sync.Mutex
	now     func() time.Time
	current Metrics
	history []Metrics // Recent turns for averaging

	onUpdate func(Metrics)
}

const metricsHistory = 100

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		now:     time.Now,
		history: make([]Metrics, 0, metricsHistory),
	}
}

// OnUpdate sets a callback that fires whenever metrics are updated.
func (m *MetricsCollector) OnUpdate(fn func(Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// MarkSpeechEnd starts a new turn's measurements.
func (m *MetricsCollector) MarkSpeechEnd(turnID string, audioBytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Metrics{
		TurnID:        turnID,
		SpeechEndTime: m.now(),
		AudioBytes:    audioBytes,
	}
}

// MarkTranscribed records when transcription completed.
func (m *MetricsCollector) MarkTranscribed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.TranscriptTime = m.now()
	m.current.TranscribeLatency = since(m.current.SpeechEndTime, m.current.TranscriptTime)
	m.notify()
}

// MarkClassified records when the intent was known.
func (m *MetricsCollector) MarkClassified() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.IntentTime = m.now()
	m.current.ClassifyLatency = since(m.current.TranscriptTime, m.current.IntentTime)
	m.notify()
}

// MarkRouted records when the routed action finished.
func (m *MetricsCollector) MarkRouted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.RoutedTime = m.now()
	m.current.RouteLatency = since(m.current.IntentTime, m.current.RoutedTime)
	m.notify()
}

// MarkSpeechReady records when the spoken reply was synthesized.
func (m *MetricsCollector) MarkSpeechReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.SpeechTime = m.now()
	m.current.FeedbackLatency = since(m.current.RoutedTime, m.current.SpeechTime)
	m.notify()
}

// MarkDone closes the turn and archives it. Turns that never got past
// recording are not archived.
func (m *MetricsCollector) MarkDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.SpeechEndTime.IsZero() {
		return
	}
	m.current.DoneTime = m.now()
	m.current.TotalLatency = since(m.current.SpeechEndTime, m.current.DoneTime)

	m.history = append(m.history, m.current)
	if len(m.history) > metricsHistory {
		m.history = m.history[1:]
	}
	m.notify()
	m.current = Metrics{}
}

// Current returns the current metrics snapshot.
func (m *MetricsCollector) Current() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Last returns the most recently completed turn.
func (m *MetricsCollector) Last() (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return Metrics{}, false
	}
	return m.history[len(m.history)-1], true
}

// Turns returns how many completed turns are in the history.
func (m *MetricsCollector) Turns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// Average returns average metrics over recent turns.
func (m *MetricsCollector) Average() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return Metrics{}
	}

	var avg Metrics
	for _, h := range m.history {
		avg.TranscribeLatency += h.TranscribeLatency
		avg.ClassifyLatency += h.ClassifyLatency
		avg.RouteLatency += h.RouteLatency
		avg.FeedbackLatency += h.FeedbackLatency
		avg.TotalLatency += h.TotalLatency
		avg.AudioBytes += h.AudioBytes
	}

	n := time.Duration(len(m.history))
	avg.TranscribeLatency /= n
	avg.ClassifyLatency /= n
	avg.RouteLatency /= n
	avg.FeedbackLatency /= n
	avg.TotalLatency /= n
	avg.AudioBytes /= len(m.history)

	return avg
}

// notify calls the update callback if set.
// Must be called with mutex held.
func (m *MetricsCollector) notify() {
	if m.onUpdate != nil {
		metrics := m.current
		go m.onUpdate(metrics)
	}
}

func since(from, to time.Time) time.Duration {
	if from.IsZero() {
		return 0
	}
	return to.Sub(from)
}

// FormatLatency returns a formatted string of the latencies.
func (m *Metrics) FormatLatency() string {
	return formatDuration(m.TranscribeLatency) + " STT | " +
		formatDuration(m.ClassifyLatency) + " GPT | " +
		formatDuration(m.RouteLatency) + " ROUTE | " +
		formatDuration(m.FeedbackLatency) + " TTS | " +
		formatDuration(m.TotalLatency) + " TOTAL"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
