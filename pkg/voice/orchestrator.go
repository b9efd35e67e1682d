package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/pkg/assistant"
	"github.com/teslashibe/go-silverlink/pkg/audio"
	"github.com/teslashibe/go-silverlink/pkg/directions"
	"github.com/teslashibe/go-silverlink/pkg/memo"
)

// Orchestrator sequences push-to-talk turns and owns the application state.
type Orchestrator struct {
	cfg     *Config
	deps    Deps
	logger  *slog.Logger
	metrics *MetricsCollector

	// ctx lives as long as the orchestrator; turns and playback derive from it.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     AppState
	turn      *turn
	starting  bool
	observers []Observer
}

// turn is one push-to-talk interaction.
type turn struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	session audio.Session
	stopped bool
	reset   *time.Timer
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator in the idle state.
func NewOrchestrator(deps Deps, opts ...Option) (*Orchestrator, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Keys == nil || deps.Capture == nil || deps.Player == nil ||
		deps.Transcriber == nil || deps.Classifier == nil || deps.Router == nil ||
		deps.Feedback == nil || deps.Memos == nil {
		return nil, errors.New("voice: all dependencies are required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetricsCollector()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		logger:  cfg.Logger.With("component", "voice.orchestrator"),
		metrics: cfg.Metrics,
		ctx:     ctx,
		cancel:  cancel,
		state:   Initial(nonNil(deps.Memos.List()), HintFor(deps.Keys.Keys())),
	}, nil
}

// Context returns the orchestrator's lifetime context. Callers outside a
// request, such as HTTP handlers, start turns with it.
func (o *Orchestrator) Context() context.Context {
	return o.ctx
}

// Close interrupts any running turn and stops playback.
func (o *Orchestrator) Close() {
	o.cancel()
	o.mu.Lock()
	t := o.turn
	o.turn = nil
	o.mu.Unlock()
	if t != nil {
		t.end()
	}
	o.deps.Player.Stop()
}

// Run consumes directions auth failures until ctx is done.
func (o *Orchestrator) Run(ctx context.Context, failures <-chan directions.AuthFailure) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.ctx.Done():
			return
		case f, ok := <-failures:
			if !ok {
				return
			}
			o.authFailed(f)
		}
	}
}

// Subscribe registers obs and immediately sends it the current snapshot.
func (o *Orchestrator) Subscribe(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
	obs.OnSnapshot(o.snapshot())
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

// Metrics returns the latency collector.
func (o *Orchestrator) Metrics() *MetricsCollector {
	return o.metrics
}

// Start begins recording.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.state.State != StateIdle || o.starting {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.deps.Keys.Keys().OpenAI == "" {
		o.apply(SetStatus(StatusNeedOpenAIKey).WithNeedsSetup(true))
		o.mu.Unlock()
		return &TurnError{Kind: ErrMissingCredential, Err: errors.New(StatusNeedOpenAIKey)}
	}
	o.starting = true
	o.mu.Unlock()

	o.deps.Player.Unlock()

	id := uuid.NewString()
	tctx, cancel := context.WithCancel(o.ctx)
	t := &turn{
		id:     id,
		ctx:    tctx,
		cancel: cancel,
		logger: o.logger.With("turn", id),
	}

	session, err := o.deps.Capture.Start(tctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.starting = false

	if err != nil {
		cancel()
		t.logger.Error("microphone unavailable", "error", err)
		o.apply(SetStatus(StatusMicUnavailable))
		return &TurnError{Kind: ErrCaptureFailure, Err: err}
	}
	if ctx.Err() != nil || o.ctx.Err() != nil {
		cancel()
		session.Stop()
		return &TurnError{Kind: ErrInterrupted, Err: context.Cause(ctx)}
	}

	t.session = session
	o.turn = t
	e := Transition(StateRecording).WithStatus(StatusRecording)
	e.TurnID = id
	o.apply(e)
	t.logger.Info("recording started")

	go o.watch(t)
	return nil
}

// watch ends the recording when the capture session stops by itself.
func (o *Orchestrator) watch(t *turn) {
	select {
	case <-t.session.Done():
	case <-t.ctx.Done():
		return
	}
	if !o.claim(t) {
		return
	}
	t.logger.Info("capture ended on its own")
	o.process(t)
}

// Stop ends recording and runs the rest of the turn. It returns once the
// turn is speaking or back at idle. Outside recording it does nothing.
// Cancelling ctx aborts the turn; a ctx that is already done discards the
// recording without transcribing it.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	t := o.turn
	o.mu.Unlock()
	if t == nil || !o.claim(t) {
		return nil
	}
	if ctx.Err() != nil {
		t.cancel()
	}
	release := context.AfterFunc(ctx, t.cancel)
	defer release()
	return o.process(t)
}

// claim marks the recording of t as stopped. Only the first caller wins.
func (o *Orchestrator) claim(t *turn) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.turn != t || t.stopped || o.state.State != StateRecording {
		return false
	}
	t.stopped = true
	return true
}

// Cancel discards an in-progress recording.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	t := o.turn
	if t == nil || t.stopped || o.state.State != StateRecording {
		o.mu.Unlock()
		return nil
	}
	t.stopped = true
	o.turn = nil
	o.apply(Transition(StateIdle).WithStatus(StatusCancelled))
	o.mu.Unlock()

	if _, err := t.session.Stop(); err != nil {
		t.logger.Warn("capture stop failed", "error", err)
	}
	t.end()
	t.logger.Info("recording cancelled")
	return nil
}

// process runs a stopped turn from transcription to playback.
func (o *Orchestrator) process(t *turn) error {
	wav, err := t.session.Stop()
	if !o.update(t, Transition(StateTranscribing).WithStatus(StatusListening)) {
		return ErrInterrupted
	}
	if err != nil {
		t.logger.Warn("capture stop failed", "error", err)
	}

	switch {
	case len(wav) == 0:
		o.finish(t, SetStatus(StatusNoAudio))
		return ErrEmptyInput
	case len(wav) < o.cfg.MinAudioBytes:
		o.finish(t, SetStatus(StatusTooShort))
		return ErrTooShort
	}

	if err := t.ctx.Err(); err != nil {
		o.finish(t, SetStatus(StatusCancelled))
		return &TurnError{Kind: ErrInterrupted, Err: err}
	}

	o.metrics.MarkSpeechEnd(t.id, len(wav))
	keys := o.deps.Keys.Keys()

	transcript, err := o.deps.Transcriber.Transcribe(t.ctx, wav, keys.OpenAI)
	if err != nil {
		return o.fail(t, "transcription failed", upstream(err))
	}
	o.metrics.MarkTranscribed()
	t.logger.Info("transcribed", "text", transcript, "bytes", len(wav))

	if !o.update(t, Transition(StateThinking).WithStatus(fmt.Sprintf("聽到：「%s」", transcript))) {
		return ErrInterrupted
	}

	now := o.cfg.Now().In(o.cfg.Location)
	result, err := o.deps.Classifier.Classify(t.ctx, transcript, now, keys.OpenAI)
	if err != nil {
		return o.fail(t, "classification failed", upstream(err))
	}
	o.metrics.MarkClassified()
	t.logger.Info("intent classified", "intent", result.Intent)

	outcome := o.deps.Router.Handle(t.ctx, result, keys, func(status string) {
		o.update(t, SetStatus(status))
	})
	o.metrics.MarkRouted()

	if !o.update(t, o.outcomeEvent(outcome)) {
		return ErrInterrupted
	}

	if outcome.Reply == "" {
		o.finish(t, Event{})
		if outcome.NeedsSetup {
			return &TurnError{Kind: ErrMissingCredential, Err: errors.New(outcome.Status)}
		}
		return nil
	}

	if !o.update(t, Transition(StateTranslating)) {
		return ErrInterrupted
	}

	speech, err := o.deps.Feedback.Generate(t.ctx, outcome.Reply, keys.Taigi)
	switch {
	case errors.Is(err, ErrFeedbackUnavailable):
		e := Event{}
		if !outcome.Failed {
			e = SetStatus(outcome.Reply)
		}
		o.finish(t, e)
		return nil
	case err != nil:
		return o.fail(t, "speech feedback failed", err)
	}
	o.metrics.MarkSpeechReady()

	e := Transition(StateSpeaking)
	if !outcome.Failed {
		e = e.WithStatus(outcome.Reply)
	}
	if !o.update(t, e) {
		return ErrInterrupted
	}

	onEnded := func() { o.finish(t, Event{}) }
	if outcome.Failed {
		onEnded = func() {}
		o.mu.Lock()
		if o.turn == t {
			t.reset = time.AfterFunc(o.cfg.FailureResetDelay, func() { o.finish(t, Event{}) })
		}
		o.mu.Unlock()
	}

	if err := o.deps.Player.Play(o.ctx, speech.AudioURL, onEnded); err != nil {
		t.logger.Warn("playback failed", "error", err)
		o.finish(t, SetStatus(StatusPlaybackFailed))
		return &TurnError{Kind: ErrPlaybackFailed, Err: err}
	}
	t.logger.Info("speaking", "text", speech.Translated)
	return nil
}

func (o *Orchestrator) outcomeEvent(out assistant.Outcome) Event {
	e := Event{View: out.View, Transit: out.Transit}
	if out.Status != "" {
		e = e.WithStatus(out.Status)
	}
	if out.NeedsSetup {
		e = e.WithNeedsSetup(true)
	}
	if out.Memo != nil {
		e.Memos = nonNil(o.deps.Memos.List())
	}
	return e
}

// fail ends t with the error shown in the status line.
func (o *Orchestrator) fail(t *turn, msg string, err error) error {
	if errors.Is(err, context.Canceled) {
		o.finish(t, Event{})
		return &TurnError{Kind: ErrInterrupted, Err: err}
	}
	t.logger.Error(msg, "error", err)
	o.finish(t, SetStatus("錯誤："+err.Error()))
	return err
}

// update applies e if t is still the current turn.
func (o *Orchestrator) update(t *turn, e Event) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.turn != t {
		return false
	}
	o.apply(e)
	return true
}

// finish applies e, returns to idle and retires t.
func (o *Orchestrator) finish(t *turn, e Event) {
	o.mu.Lock()
	if o.turn != t {
		o.mu.Unlock()
		return
	}
	o.turn = nil
	e.To = StateIdle
	o.apply(e)
	o.mu.Unlock()

	t.end()
	o.metrics.MarkDone()
	t.logger.Debug("turn finished")
}

func (t *turn) end() {
	if t.reset != nil {
		t.reset.Stop()
	}
	t.cancel()
}

// authFailed interrupts a recording turn and asks for a new maps key. A turn
// past recording is the one whose lookup was rejected; the router reports
// that in-band, so only the setup flag is raised here.
func (o *Orchestrator) authFailed(f directions.AuthFailure) {
	o.logger.Warn("maps key rejected", "message", f.Message)

	o.mu.Lock()
	t := o.turn
	switch {
	case t != nil && t.stopped:
		o.apply(Event{}.WithNeedsSetup(true))
		o.mu.Unlock()
		return
	case t == nil && o.state.NeedsSetup:
		o.mu.Unlock()
		return
	}
	o.turn = nil
	o.apply(Transition(StateIdle).WithStatus(StatusMapsKeyInvalid).WithNeedsSetup(true))
	o.mu.Unlock()

	if t != nil {
		if t.session != nil && !t.stopped {
			t.session.Stop()
		}
		t.end()
	}
	o.deps.Player.Stop()
}

// SetView switches the dashboard screen.
func (o *Orchestrator) SetView(v assistant.View) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.apply(Event{View: v})
}

// Memos returns the current memo list.
func (o *Orchestrator) Memos() []memo.Memo {
	return o.Snapshot().Memos
}

// DeleteMemo removes a memo and publishes the new list.
func (o *Orchestrator) DeleteMemo(id int64) error {
	if err := o.deps.Memos.Delete(id); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.apply(Event{Memos: nonNil(o.deps.Memos.List())})
	return nil
}

// UpdateKeys persists new keys. A new maps key clears the setup prompt.
func (o *Orchestrator) UpdateKeys(k config.Keys) error {
	if err := o.deps.Keys.Update(k); err != nil {
		return err
	}
	keys := o.deps.Keys.Keys()
	hint := HintFor(keys)

	o.mu.Lock()
	defer o.mu.Unlock()
	e := Event{Hint: &hint}
	if keys.Complete() {
		e = e.WithNeedsSetup(false)
		switch o.state.Status {
		case StatusMapsKeyInvalid, StatusNeedOpenAIKey,
			assistant.StatusNeedMapsKey, assistant.StatusMapsKeyRejected:
			e = e.WithStatus("")
		}
	}
	o.apply(e)
	o.logger.Info("keys updated", "complete", keys.Complete())
	return nil
}

// apply reduces e into the state and publishes a snapshot.
// Must be called with mu held.
func (o *Orchestrator) apply(e Event) {
	next, err := Reduce(o.state, e)
	if err != nil {
		o.logger.Warn("state event rejected", "error", err)
		return
	}
	o.state = next

	snap := o.snapshot()
	for _, obs := range o.observers {
		obs.OnSnapshot(snap)
	}
}

// snapshot must be called with mu held.
func (o *Orchestrator) snapshot() Snapshot {
	snap := o.state.Snapshot()
	if m, ok := o.metrics.Last(); ok {
		snap.Latency = &m
	}
	return snap
}

func nonNil(memos []memo.Memo) []memo.Memo {
	if memos == nil {
		return []memo.Memo{}
	}
	return memos
}
