package memo

import (
	"context"
	"log/slog"
)

// Mirror receives the full memo list after each change.
type Mirror interface {
	Sync(ctx context.Context, memos []Memo) error
}

// Syncer pushes memo lists to a Mirror from a single background goroutine.
// Only the latest pending list is kept, so a burst of changes costs one sync.
type Syncer struct {
	mirror  Mirror
	pending chan []Memo
	logger  *slog.Logger
}

// NewSyncer creates a syncer for mirror.
func NewSyncer(mirror Mirror, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		mirror:  mirror,
		pending: make(chan []Memo, 1),
		logger:  logger.With("component", "memo.syncer"),
	}
}

// Notify queues memos for syncing, replacing any list not yet synced.
// It never blocks; use it as a JSONStore OnChange hook.
func (s *Syncer) Notify(memos []Memo) {
	for {
		select {
		case s.pending <- memos:
			return
		default:
		}
		select {
		case <-s.pending:
		default:
		}
	}
}

// Run syncs queued lists until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case memos := <-s.pending:
			if err := s.mirror.Sync(ctx, memos); err != nil {
				s.logger.Warn("memo mirror sync failed", "error", err)
			}
		}
	}
}
