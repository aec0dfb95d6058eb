// Package respond generates the agent's Syrian Arabic replies. Dialogue
// context is an explicit per-call value owned by the caller; the generator
// itself keeps no cross-call state.
package respond

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/saif-ashraf99/syrian-voice-agent/internal/intent"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/llm"
)

// Fallback phrases spoken when the model cannot produce a usable reply. A live
// phone call must always hear something.
const (
	fallbackUnclear = "عذراً، ما وصلني رد واضح. ممكن تعيد؟"
	fallbackFailed  = "عذراً، لم أفهم طلبك. ممكن تعيد؟"
)

// Exchange is one remembered customer/agent turn pair.
type Exchange struct {
	Customer string
	Agent    string
}

// Context is the rolling dialogue history for one call. It is not safe for
// concurrent use; the orchestrator serializes turns per call.
type Context struct {
	pairs           []Exchange
	instructionSent bool
}

func NewContext() *Context { return &Context{} }

// Reset clears the history and the instruction-sent flag, so the persona
// instruction is resent on the next generation.
func (c *Context) Reset() {
	c.pairs = nil
	c.instructionSent = false
}

// Len reports the number of remembered turn pairs.
func (c *Context) Len() int { return len(c.pairs) }

type Generator struct {
	client     llm.Client
	maxContext int
}

// NewGenerator builds a generator that includes at most maxContext turn pairs
// per request.
func NewGenerator(client llm.Client, maxContext int) *Generator {
	if maxContext <= 0 {
		maxContext = 6
	}
	return &Generator{client: client, maxContext: maxContext}
}

// Generate produces the agent's reply for the classified customer turn. On
// success the exchange is appended to dlg; on any failure a fixed fallback
// phrase is returned and the history is left untouched, so failed exchanges
// are not remembered. The return value is never empty.
func (g *Generator) Generate(ctx context.Context, dlg *Context, data intent.Data, customerText string) string {
	messages := g.buildMessages(dlg, data, customerText)

	content, err := g.client.Chat(ctx, messages, llm.Options{Temperature: 0.7, MaxTokens: 150})
	if err != nil {
		log.Printf("respond: generation failed: %v", err)
		return fallbackFailed
	}
	reply := strings.TrimSpace(content)
	if reply == "" {
		log.Printf("respond: empty response content from model")
		return fallbackUnclear
	}

	dlg.pairs = append(dlg.pairs, Exchange{Customer: customerText, Agent: reply})
	return reply
}

func (g *Generator) buildMessages(dlg *Context, data intent.Data, customerText string) []llm.Message {
	messages := make([]llm.Message, 0, 2*g.maxContext+2)

	// The persona instruction goes out once per context lifetime. The flag
	// deliberately survives truncation: once sent it is never repeated
	// mid-conversation, even after the early turns scroll out of the window.
	if !dlg.instructionSent {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: personaInstruction})
		dlg.instructionSent = true
	}

	pairs := dlg.pairs
	if len(pairs) > g.maxContext {
		pairs = pairs[len(pairs)-g.maxContext:]
	}
	for _, p := range pairs {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: p.Customer},
			llm.Message{Role: llm.RoleAssistant, Content: p.Agent},
		)
	}

	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Customer intent: %s, said: %s", data.Intent, customerText),
	})
	return messages
}

// personaInstruction is sent with the user role because the free Gemma tier
// rejects system messages.
const personaInstruction = "You are a friendly Syrian Arabic voice agent for Charco Chicken restaurant. " +
	"You must respond ONLY in Syrian Arabic dialect. " +
	"Be helpful, polite, and focused on taking orders and answering questions about food. " +
	"Keep responses short and conversational, suitable for phone calls. " +
	"If customers want to order, ask for details. " +
	"If they have complaints, be empathetic and offer solutions. " +
	"Always maintain a warm, welcoming tone typical of Syrian hospitality."
