package voice

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-silverlink/pkg/tts"
)

// Speech is a reply ready to play.
type Speech struct {
	AudioURL   string
	Text       string // the Mandarin reply
	Translated string // the Taigi text that was synthesized
}

// Feedback translates a reply to Taigi and synthesizes it.
type Feedback struct {
	translator tts.Translator
	synth      tts.Synthesizer
	logger     *slog.Logger
}

// NewFeedback creates a Feedback. A nil translator speaks the reply as is.
func NewFeedback(translator tts.Translator, synth tts.Synthesizer, logger *slog.Logger) *Feedback {
	if translator == nil {
		translator = tts.Passthrough{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feedback{
		translator: translator,
		synth:      synth,
		logger:     logger.With("component", "voice.feedback"),
	}
}

// Generate returns the audio URL for reply. Without a key it returns
// ErrFeedbackUnavailable. A failed translation falls back to the original
// text; a failed synthesis is an ErrSpeechFailed TurnError.
func (f *Feedback) Generate(ctx context.Context, reply, key string) (Speech, error) {
	if key == "" {
		return Speech{}, ErrFeedbackUnavailable
	}

	speech := Speech{Text: reply, Translated: reply}

	translated, err := f.translator.Translate(ctx, reply, key)
	switch {
	case err != nil:
		f.logger.Warn("translation failed, speaking original text", "error", err)
	case strings.TrimSpace(translated) == "":
		f.logger.Warn("translation returned empty text, speaking original text")
	default:
		speech.Translated = translated
	}

	res, err := f.synth.Synthesize(ctx, speech.Translated, key)
	if err != nil {
		return Speech{}, &TurnError{Kind: ErrSpeechFailed, Err: err}
	}

	f.logger.Debug("speech ready",
		"chars", res.CharCount,
		"latency_ms", res.LatencyMs,
	)
	speech.AudioURL = res.AudioURL
	return speech, nil
}
