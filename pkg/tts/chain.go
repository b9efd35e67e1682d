package tts

import (
	"context"
	"fmt"
	"log/slog"
)

// Chain implements Translator by trying multiple translators in order.
// The first successful translator wins; if all fail, returns an aggregate error.
// End a chain with Passthrough to speak the original text instead of failing.
type Chain struct {
	translators []Translator
	logger      *slog.Logger
}

// NewChain creates a translator chain that tries translators in order.
// At least one translator is required.
func NewChain(translators ...Translator) (*Chain, error) {
	if len(translators) == 0 {
		return nil, ErrProviderUnavailable
	}

	return &Chain{
		translators: translators,
		logger:      slog.Default().With("component", "tts.chain"),
	}, nil
}

// NewChainWithLogger creates a translator chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, translators ...Translator) (*Chain, error) {
	chain, err := NewChain(translators...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "tts.chain")
	return chain, nil
}

// Translate tries each translator until one succeeds.
func (c *Chain) Translate(ctx context.Context, text, key string) (string, error) {
	var errors []error

	for i, t := range c.translators {
		out, err := t.Translate(ctx, text, key)
		if err == nil {
			if i > 0 {
				c.logger.Warn("translation fell back",
					"translator_index", i,
					"chars", len(text),
				)
			}
			return out, nil
		}

		errors = append(errors, err)
		c.logger.Warn("translator failed, trying next",
			"translator_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", &ChainError{Errors: errors}
}

// Translators returns the translators in the chain.
func (c *Chain) Translators() []Translator {
	return c.translators
}

// ChainError aggregates errors from all translators in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "tts chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("tts chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("tts chain: all %d translators failed, last error: %v", len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

var _ Translator = (*Chain)(nil)
