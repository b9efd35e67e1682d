package voice

import (
	"context"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/pkg/assistant"
	"github.com/teslashibe/go-silverlink/pkg/audio"
	"github.com/teslashibe/go-silverlink/pkg/intent"
	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/stt"
)

// AudioCapture opens the microphone.
type AudioCapture interface {
	Start(ctx context.Context) (audio.Session, error)
}

// Player plays the synthesized reply.
type Player interface {
	Unlock()
	Play(ctx context.Context, url string, onEnded func()) error
	Stop()
}

// KeyStore supplies and persists the user's service keys.
type KeyStore interface {
	Keys() config.Keys
	Update(config.Keys) error
}

// Router runs the action for a classified intent.
type Router interface {
	Handle(ctx context.Context, r intent.Result, keys config.Keys, progress assistant.ProgressFunc) assistant.Outcome
}

// Speaker turns a reply into a playable Taigi audio URL.
type Speaker interface {
	Generate(ctx context.Context, reply, key string) (Speech, error)
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Keys        KeyStore
	Capture     AudioCapture
	Player      Player
	Transcriber stt.Transcriber
	Classifier  intent.Classifier
	Router      Router
	Feedback    Speaker
	Memos       memo.Store
}

var (
	_ AudioCapture = (*audio.FFmpegCapture)(nil)
	_ Player       = (*audio.Player)(nil)
	_ KeyStore     = (*config.KeyStore)(nil)
	_ Router       = (*assistant.Router)(nil)
	_ Speaker      = (*Feedback)(nil)
)
