// Package intent classifies customer utterances into a fixed set of intents
// and extracts order entities. Classification never fails: every path resolves
// to a usable Data value.
package intent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/saif-ashraf99/syrian-voice-agent/internal/llm"
)

type Classifier struct {
	client llm.Client
}

func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{client: client}
}

// Detect classifies the customer's text. It first asks for a structured JSON
// response; models that reject JSON mode get a plain retry. Any failure along
// the way degrades to the keyword heuristic or the default result, never to an
// error.
func (c *Classifier) Detect(ctx context.Context, text string) (Data, Source) {
	messages := []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(text)}}

	content, err := c.client.Chat(ctx, messages, llm.Options{Temperature: 0.1, JSONMode: true})
	if err != nil {
		log.Printf("intent: structured request failed, retrying plain: %v", err)
		content, err = c.client.Chat(ctx, messages, llm.Options{Temperature: 0.1, MaxTokens: 200})
	}
	if err != nil {
		log.Printf("intent: all detection attempts failed: %v", err)
		return Default(), SourceDefault
	}
	if strings.TrimSpace(content) == "" {
		log.Printf("intent: empty response content from model")
		return Default(), SourceDefault
	}

	data, source := Parse(content)
	log.Printf("intent: detected %q (confidence %.2f, source %s)", data.Intent, data.Confidence, source)
	return data, source
}

func buildPrompt(text string) string {
	return fmt.Sprintf(
		"You are an intent detection system for a Syrian Arabic restaurant voice agent. "+
			"Analyze the customer's message and classify it into one of these intents:\n"+
			"- order\n- complaint\n- question\n- greeting\n- goodbye\n"+
			"Also extract any food items, quantities, or other entities.\n\n"+
			"Respond in JSON format:\n"+
			"{\n"+
			"  \"intent\": \"order|complaint|question|greeting|goodbye\",\n"+
			"  \"entities\": { \"food_items\": [], \"quantities\": [], \"other\": [] },\n"+
			"  \"confidence\": 0.0\n"+
			"}\n\n"+
			"Customer said: %s", text)
}
