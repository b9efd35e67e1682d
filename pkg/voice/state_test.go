package voice

import (
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/pkg/assistant"
	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/transit"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]State{
		{StateIdle, StateRecording},
		{StateRecording, StateTranscribing},
		{StateTranscribing, StateThinking},
		{StateThinking, StateTranslating},
		{StateTranslating, StateSpeaking},
		{StateRecording, StateIdle},
		{StateTranscribing, StateIdle},
		{StateThinking, StateIdle},
		{StateTranslating, StateIdle},
		{StateSpeaking, StateIdle},
	}
	for _, p := range allowed {
		if !CanTransition(p[0], p[1]) {
			t.Errorf("%s → %s should be allowed", p[0], p[1])
		}
	}

	rejected := [][2]State{
		{StateIdle, StateIdle},
		{StateIdle, StateSpeaking},
		{StateRecording, StateThinking},
		{StateThinking, StateSpeaking},
		{StateSpeaking, StateRecording},
		{State("bogus"), StateIdle},
	}
	for _, p := range rejected {
		if CanTransition(p[0], p[1]) {
			t.Errorf("%s → %s should be rejected", p[0], p[1])
		}
	}
}

func TestReduce(t *testing.T) {
	s := Initial(nil, HintReady)

	s, err := Reduce(s, Transition(StateRecording).WithStatus(StatusRecording))
	if err != nil {
		t.Fatal(err)
	}
	if s.State != StateRecording || s.Status != StatusRecording {
		t.Errorf("state = %+v", s)
	}

	before := s
	s, err = Reduce(s, Transition(StateSpeaking).WithStatus("x"))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
	if s.Status != before.Status || s.State != before.State {
		t.Error("rejected event must not change state")
	}

	// Same state is a no-op on the state field only.
	s, err = Reduce(s, Transition(StateRecording).WithStatus("again"))
	if err != nil || s.State != StateRecording || s.Status != "again" {
		t.Errorf("state = %+v, err = %v", s, err)
	}

	tr := &transit.Result{Destination: "高雄"}
	s, _ = Reduce(s, Event{View: assistant.ViewTraffic, Transit: tr})
	if s.View != assistant.ViewTraffic || s.Transit != tr || s.Status != "again" {
		t.Errorf("state = %+v", s)
	}

	s, _ = Reduce(s, Event{}.WithNeedsSetup(true))
	if !s.NeedsSetup {
		t.Error("NeedsSetup not set")
	}
	s, _ = Reduce(s, Event{})
	if !s.NeedsSetup || s.View != assistant.ViewTraffic {
		t.Error("empty event changed state")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := AppState{
		State:   StateSpeaking,
		Memos:   []memo.Memo{{ID: 1, Content: "a"}},
		Transit: &transit.Result{Steps: []transit.Step{{Instructions: "走"}}},
	}
	snap := s.Snapshot()
	s.Memos[0].Content = "changed"
	s.Transit.Steps[0].Instructions = "changed"

	if snap.Memos[0].Content != "a" || snap.Transit.Steps[0].Instructions != "走" {
		t.Errorf("snapshot shares memory: %+v", snap)
	}
	if snap.Prompt != "正在說..." {
		t.Errorf("Prompt = %q", snap.Prompt)
	}
}

func TestSnapshotShowsHint(t *testing.T) {
	s := Initial(nil, HintFor(config.Keys{OpenAI: "sk"}))
	if got := s.Snapshot().Status; got != HintNeedKeys {
		t.Errorf("Status = %q", got)
	}
	s.Status = "聽到：「你好」"
	if got := s.Snapshot().Status; got != "聽到：「你好」" {
		t.Errorf("Status = %q", got)
	}
	if HintFor(config.Keys{OpenAI: "sk", Taigi: "tg"}) != HintReady {
		t.Error("hint should be ready with both speech keys")
	}
}

func TestPrompts(t *testing.T) {
	want := map[State]string{
		StateIdle:         "按此說話",
		StateRecording:    "停止錄音",
		StateTranscribing: "正在聽...",
		StateThinking:     "正在想...",
		StateTranslating:  "生成台語...",
		StateSpeaking:     "正在說...",
	}
	for s, p := range want {
		if s.Prompt() != p {
			t.Errorf("%s.Prompt() = %q, want %q", s, s.Prompt(), p)
		}
	}
}

func TestMetricsCollector(t *testing.T) {
	m := NewMetricsCollector()
	base := time.Date(2025, 1, 2, 13, 0, 0, 0, time.UTC)
	step := 0
	m.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * 100 * time.Millisecond)
	}

	m.MarkDone()
	if m.Turns() != 0 {
		t.Fatal("a turn without speech end should not be archived")
	}

	m.MarkSpeechEnd("turn-1", 2048)
	m.MarkTranscribed()
	m.MarkClassified()
	m.MarkRouted()
	m.MarkSpeechReady()
	m.MarkDone()

	last, ok := m.Last()
	if !ok || last.TurnID != "turn-1" {
		t.Fatalf("last = %+v", last)
	}
	if last.TranscribeLatency != 100*time.Millisecond || last.FeedbackLatency != 100*time.Millisecond {
		t.Errorf("stage latencies = %+v", last)
	}
	if last.TotalLatency != 500*time.Millisecond {
		t.Errorf("total = %v", last.TotalLatency)
	}

	avg := m.Average()
	if avg.TotalLatency != 500*time.Millisecond || avg.AudioBytes != 2048 {
		t.Errorf("average = %+v", avg)
	}
	if got := avg.FormatLatency(); got != "100ms STT | 100ms GPT | 100ms ROUTE | 100ms TTS | 500ms TOTAL" {
		t.Errorf("FormatLatency = %q", got)
	}
}
