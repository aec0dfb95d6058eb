// Package llm abstracts the chat-completion backend shared by intent
// classification and response generation.
package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Options tune a single completion request.
type Options struct {
	Temperature float64
	MaxTokens   int
	// JSONMode asks the backend for a structured JSON response. Not every
	// model honors it, which is why callers retry without it.
	JSONMode bool
}

// Client is the single capability this service needs from a language model.
// Any conforming implementation may be substituted.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}
