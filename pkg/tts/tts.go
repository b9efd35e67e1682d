// Package tts turns assistant replies into spoken Taiwanese Hokkien (Taigi).
//
// Speech is produced in two steps: a Translator converts Traditional Chinese
// text into Taigi, then a Synthesizer renders the Taigi text and returns a URL
// the audio can be played from. Taigi implements both against the hosted
// Taigi translation and synthesis services.
//
// Example usage:
//
//	taigi, _ := tts.NewTaigi(tts.WithVoice("normal_f2"))
//	text, _ := taigi.Translate(ctx, "好的，幫您查去高雄的路線。", key)
//	speech, _ := taigi.Synthesize(ctx, text, key)
//	// speech.AudioURL can be handed to the player
package tts

import "context"

// Translator converts zh-TW text into the spoken language.
type Translator interface {
	Translate(ctx context.Context, text, key string) (string, error)
}

// Synthesizer renders text to audio and returns where to fetch it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, key string) (*SpeechResult, error)
}

// Provider is a service offering both steps.
type Provider interface {
	Translator
	Synthesizer
}

// SpeechResult is a completed synthesis.
type SpeechResult struct {
	// AudioURL is the playable audio location returned by the service.
	AudioURL string

	// Text is the text that was synthesized.
	Text string

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the request round trip in milliseconds.
	LatencyMs int64
}

// Passthrough is a Translator that returns its input unchanged. It is the
// last resort in a TranslatorChain so the original text is spoken when every
// real translator fails.
type Passthrough struct{}

// Translate returns text unchanged.
func (Passthrough) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

var _ Translator = Passthrough{}
