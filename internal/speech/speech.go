// Package speech holds the speech-to-text and text-to-speech capability
// interfaces and their providers. Both are pluggable; the orchestrator and
// telephony builder only see the interfaces.
package speech

import (
	"context"
	"errors"
)

// ErrUnrecognized reports that audio was received but no intelligible speech
// could be extracted from it.
var ErrUnrecognized = errors.New("speech not recognized")

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// Synthesizer converts agent text to playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
