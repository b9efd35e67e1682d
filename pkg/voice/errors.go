package voice

import (
	"errors"

	"github.com/teslashibe/go-silverlink/pkg/intent"
	"github.com/teslashibe/go-silverlink/pkg/transit"
)

// Error kinds, matched with errors.Is.
var (
	// ErrBusy is returned by Start outside idle.
	ErrBusy = errors.New("voice: a turn is already in progress")

	// ErrMissingCredential is returned when the key a stage needs is absent.
	ErrMissingCredential = errors.New("voice: missing credential")

	// ErrCaptureFailure is returned when the microphone cannot be opened.
	ErrCaptureFailure = errors.New("voice: capture failure")

	// ErrEmptyInput means the recording held no audio.
	ErrEmptyInput = errors.New("voice: no audio recorded")

	// ErrTooShort means the recording was below the minimum size.
	ErrTooShort = errors.New("voice: recording too short")

	// ErrUpstreamRejected wraps failures reported by a remote service.
	ErrUpstreamRejected = errors.New("voice: upstream rejected request")

	// ErrMalformedResponse wraps responses that could not be understood.
	ErrMalformedResponse = errors.New("voice: malformed response")

	// ErrFeedbackUnavailable means there is no translation credential, so the
	// reply is shown but not spoken.
	ErrFeedbackUnavailable = errors.New("voice: speech feedback unavailable")

	// ErrSpeechFailed means synthesis failed.
	ErrSpeechFailed = errors.New("voice: speech synthesis failed")

	// ErrPlaybackFailed means the audio could not be started.
	ErrPlaybackFailed = errors.New("voice: playback failed")

	// ErrInvalidTransition is returned by Reduce for a non-adjacent move.
	ErrInvalidTransition = errors.New("voice: invalid state transition")

	// ErrInterrupted means the turn was cancelled from outside.
	ErrInterrupted = errors.New("voice: turn interrupted")
)

// TurnError is a turn failure. Its message is the underlying error's, which
// is what the status line shows; Kind classifies it.
type TurnError struct {
	Kind error
	Err  error
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *TurnError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// upstream classifies a service error.
func upstream(err error) error {
	var te *TurnError
	if errors.As(err, &te) {
		return err
	}
	kind := ErrUpstreamRejected
	if errors.Is(err, intent.ErrMalformedResponse) || errors.Is(err, transit.ErrMalformedRoute) {
		kind = ErrMalformedResponse
	}
	return &TurnError{Kind: kind, Err: err}
}
