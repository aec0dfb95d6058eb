package speech

import (
	"context"
	"strings"
)

// MockProvider is a local fallback provider used when ElevenLabs is not
// configured. Synthesis returns the text bytes themselves so the play path
// stays exercised end to end.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Synthesize(_ context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrUnrecognized
	}
	return []byte(text), nil
}

func (p *MockProvider) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	if len(audio) == 0 {
		return "", ErrUnrecognized
	}
	return "simulated voice input", nil
}
