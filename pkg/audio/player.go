package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

var (
	// ErrLocked is returned by Play before Unlock.
	ErrLocked = errors.New("audio: playback channel locked")

	// ErrEmptySource is returned when Play is given no URL.
	ErrEmptySource = errors.New("audio: empty source")
)

// Playback is a started playback.
type Playback interface {
	// Wait blocks until playback finishes.
	Wait() error
}

// Backend starts playback of a URL. Cancelling ctx stops it.
type Backend interface {
	Start(ctx context.Context, url string) (Playback, error)
}

// Player is a single persistent playback channel. Each Play replaces the
// current source; completion callbacks from a replaced source are dropped.
type Player struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	unlocked bool
	gen      uint64
	cancel   context.CancelFunc
}

// NewPlayer creates a player on backend.
func NewPlayer(backend Backend, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		backend: backend,
		logger:  logger.With("component", "audio.player"),
	}
}

// Unlock arms the channel for playback. Call it synchronously from the user
// action that starts a turn.
func (p *Player) Unlock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.unlocked {
		p.unlocked = true
		p.logger.Debug("playback channel unlocked")
	}
}

// Play replaces the current source with url. onEnded runs once when this
// source finishes, unless another Play or Stop superseded it first.
func (p *Player) Play(ctx context.Context, url string, onEnded func()) error {
	if url == "" {
		return ErrEmptySource
	}

	p.mu.Lock()
	if !p.unlocked {
		p.mu.Unlock()
		return ErrLocked
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	playCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	pb, err := p.backend.Start(playCtx, url)
	if err != nil {
		cancel()
		return fmt.Errorf("audio: start playback: %w", err)
	}

	go func() {
		if err := pb.Wait(); err != nil && playCtx.Err() == nil {
			p.logger.Warn("playback ended with error", "error", err)
		}
		cancel()

		p.mu.Lock()
		current := p.gen == gen
		if current {
			p.cancel = nil
		}
		p.mu.Unlock()

		if current && onEnded != nil {
			onEnded()
		}
	}()

	return nil
}

// Stop halts the current source without firing its callback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// FFplay plays URLs with ffplay.
type FFplay struct {
	Command string
}

// Start launches ffplay without a window; it exits when the audio ends.
func (f FFplay) Start(ctx context.Context, url string) (Playback, error) {
	command := f.Command
	if command == "" {
		command = "ffplay"
	}
	cmd := exec.CommandContext(ctx, command, "-nodisp", "-autoexit", "-loglevel", "error", url)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

var _ Backend = FFplay{}
