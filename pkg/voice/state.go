package voice

import (
	"fmt"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/pkg/assistant"
	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/transit"
)

// State is the pipeline processing state.
type State string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateThinking     State = "thinking"
	StateTranslating  State = "translating"
	StateSpeaking     State = "speaking"
)

// Status texts shown to the user.
const (
	StatusNeedOpenAIKey  = "請先在設定中輸入 OpenAI API Key"
	StatusMicUnavailable = "無法開啟麥克風，請確認權限"
	StatusRecording      = "請說話..."
	StatusListening      = "正在聽..."
	StatusCancelled      = "已取消錄音"
	StatusNoAudio        = "沒有錄到聲音"
	StatusTooShort       = "錄音太短，請再試一次"
	StatusPlaybackFailed = "無法播放語音"
	StatusMapsKeyInvalid = "Map Key 無效，請重新設定"

	HintNeedKeys = "請點擊右上角設定 Key"
	HintReady    = "準備好了，請按下方按鈕"
)

// next lists the states reachable from each state. Any state may also
// return to idle.
var next = map[State][]State{
	StateIdle:         {StateRecording},
	StateRecording:    {StateTranscribing},
	StateTranscribing: {StateThinking},
	StateThinking:     {StateTranslating},
	StateTranslating:  {StateSpeaking},
	StateSpeaking:     {},
}

// CanTransition reports whether from → to is a legal single step.
func CanTransition(from, to State) bool {
	if _, ok := next[from]; !ok {
		return false
	}
	if to == StateIdle {
		return from != StateIdle
	}
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Prompt is the push-to-talk button label for s.
func (s State) Prompt() string {
	switch s {
	case StateRecording:
		return "停止錄音"
	case StateTranscribing:
		return "正在聽..."
	case StateThinking:
		return "正在想..."
	case StateTranslating:
		return "生成台語..."
	case StateSpeaking:
		return "正在說..."
	default:
		return "按此說話"
	}
}

// AppState is the single application state record.
type AppState struct {
	State      State
	View       assistant.View
	Status     string
	Hint       string
	Transit    *transit.Result
	Memos      []memo.Memo
	NeedsSetup bool
	TurnID     string
}

// Initial returns the state at boot.
func Initial(memos []memo.Memo, hint string) AppState {
	return AppState{
		State: StateIdle,
		View:  assistant.ViewHome,
		Hint:  hint,
		Memos: memos,
	}
}

// Event describes one change to the state. Zero-valued fields leave the
// corresponding part of the state unchanged.
type Event struct {
	To         State
	Status     *string
	Hint       *string
	View       assistant.View
	Transit    *transit.Result
	Memos      []memo.Memo
	NeedsSetup *bool
	TurnID     string
}

// Transition returns an event moving to s.
func Transition(s State) Event {
	return Event{To: s}
}

// SetStatus returns an event that only replaces the status text.
func SetStatus(text string) Event {
	return Event{}.WithStatus(text)
}

// WithStatus returns e that also replaces the status text.
func (e Event) WithStatus(text string) Event {
	e.Status = &text
	return e
}

// WithNeedsSetup returns e that also sets the setup flag.
func (e Event) WithNeedsSetup(v bool) Event {
	e.NeedsSetup = &v
	return e
}

// Reduce applies e to s. A move to a state that is not adjacent returns s
// unchanged and ErrInvalidTransition; moving to the current state is a no-op
// for the state field.
func Reduce(s AppState, e Event) (AppState, error) {
	if e.To != "" && e.To != s.State {
		if !CanTransition(s.State, e.To) {
			return s, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, s.State, e.To)
		}
		s.State = e.To
	}
	if e.Status != nil {
		s.Status = *e.Status
	}
	if e.Hint != nil {
		s.Hint = *e.Hint
	}
	if e.View != "" {
		s.View = e.View
	}
	if e.Transit != nil {
		s.Transit = e.Transit
	}
	if e.Memos != nil {
		s.Memos = e.Memos
	}
	if e.NeedsSetup != nil {
		s.NeedsSetup = *e.NeedsSetup
	}
	if e.TurnID != "" {
		s.TurnID = e.TurnID
	}
	return s, nil
}

// Snapshot is an immutable copy of the state handed to observers.
type Snapshot struct {
	State      State           `json:"state"`
	View       assistant.View  `json:"view"`
	Status     string          `json:"status"`
	Prompt     string          `json:"prompt"`
	Transit    *transit.Result `json:"transit,omitempty"`
	Memos      []memo.Memo     `json:"memos"`
	NeedsSetup bool            `json:"needsSetup"`
	TurnID     string          `json:"turnId,omitempty"`
	Latency    *Metrics        `json:"latency,omitempty"`
}

// Snapshot copies s. An empty status shows the setup hint.
func (s AppState) Snapshot() Snapshot {
	status := s.Status
	if status == "" {
		status = s.Hint
	}

	memos := make([]memo.Memo, len(s.Memos))
	copy(memos, s.Memos)

	var tr *transit.Result
	if s.Transit != nil {
		c := *s.Transit
		c.Steps = append([]transit.Step(nil), s.Transit.Steps...)
		tr = &c
	}

	return Snapshot{
		State:      s.State,
		View:       s.View,
		Status:     status,
		Prompt:     s.State.Prompt(),
		Transit:    tr,
		Memos:      memos,
		NeedsSetup: s.NeedsSetup,
		TurnID:     s.TurnID,
	}
}

// HintFor returns the idle hint for keys: speech needs both the OpenAI and
// the Taigi key.
func HintFor(keys config.Keys) string {
	if keys.OpenAI == "" || keys.Taigi == "" {
		return HintNeedKeys
	}
	return HintReady
}

// Observer receives every published snapshot. It is called with the
// orchestrator lock held and must not call back into the orchestrator.
type Observer interface {
	OnSnapshot(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

// OnSnapshot calls f(s).
func (f ObserverFunc) OnSnapshot(s Snapshot) { f(s) }
