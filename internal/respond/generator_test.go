package respond

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/saif-ashraf99/syrian-voice-agent/internal/intent"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/llm"
)

type fakeLLM struct {
	reply    string
	err      error
	requests [][]llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
	copied := make([]llm.Message, len(messages))
	copy(copied, messages)
	f.requests = append(f.requests, copied)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func orderIntent() intent.Data {
	return intent.Data{Intent: "order", Entities: intent.DefaultEntities(), Confidence: 0.9}
}

func TestGenerateAppendsExchangeAndSendsInstructionOnce(t *testing.T) {
	fake := &fakeLLM{reply: "أكيد! شو حابب تطلب؟"}
	g := NewGenerator(fake, 6)
	dlg := NewContext()

	reply := g.Generate(context.Background(), dlg, orderIntent(), "بدي أطلب")
	if reply != "أكيد! شو حابب تطلب؟" {
		t.Fatalf("reply = %q", reply)
	}
	if dlg.Len() != 1 {
		t.Fatalf("context pairs = %d, want 1", dlg.Len())
	}

	first := fake.requests[0]
	if first[0].Role != llm.RoleUser || first[0].Content == "" {
		t.Fatalf("first request should open with the persona instruction")
	}

	g.Generate(context.Background(), dlg, orderIntent(), "شاورما دجاج")
	second := fake.requests[1]
	for _, m := range second {
		if m.Content == personaInstruction {
			t.Fatalf("persona instruction repeated in second request")
		}
	}
	// One remembered pair plus the current turn message.
	if len(second) != 3 {
		t.Fatalf("second request length = %d, want 3", len(second))
	}
}

func TestGenerateFailureReturnsFallbackWithoutUpdatingContext(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection refused")}
	g := NewGenerator(fake, 6)
	dlg := NewContext()

	reply := g.Generate(context.Background(), dlg, orderIntent(), "بدي أطلب")
	if reply != fallbackFailed {
		t.Fatalf("reply = %q, want transport fallback", reply)
	}
	if dlg.Len() != 0 {
		t.Fatalf("context pairs = %d, want 0 after failure", dlg.Len())
	}
}

func TestGenerateEmptyContentReturnsFallbackWithoutUpdatingContext(t *testing.T) {
	fake := &fakeLLM{reply: "   \n"}
	g := NewGenerator(fake, 6)
	dlg := NewContext()

	reply := g.Generate(context.Background(), dlg, orderIntent(), "بدي أطلب")
	if reply != fallbackUnclear {
		t.Fatalf("reply = %q, want empty-content fallback", reply)
	}
	if dlg.Len() != 0 {
		t.Fatalf("context pairs = %d, want 0 after empty reply", dlg.Len())
	}
}

func TestGenerateTruncatesToMostRecentPairs(t *testing.T) {
	fake := &fakeLLM{reply: "تمام"}
	g := NewGenerator(fake, 6)
	dlg := NewContext()

	for i := 0; i < 7; i++ {
		g.Generate(context.Background(), dlg, orderIntent(), fmt.Sprintf("turn-%d", i))
	}

	// Eighth request: seven accumulated pairs, only the most recent six sent.
	g.Generate(context.Background(), dlg, orderIntent(), "turn-7")
	last := fake.requests[len(fake.requests)-1]
	// 6 pairs * 2 messages + the current turn message; instruction already sent.
	if len(last) != 13 {
		t.Fatalf("request length = %d, want 13", len(last))
	}
	if last[0].Content != "turn-1" {
		t.Fatalf("oldest included turn = %q, want turn-1 (turn-0 dropped)", last[0].Content)
	}
}

func TestResetClearsContextAndResendsInstruction(t *testing.T) {
	fake := &fakeLLM{reply: "تمام"}
	g := NewGenerator(fake, 6)
	dlg := NewContext()

	g.Generate(context.Background(), dlg, orderIntent(), "بدي أطلب")
	dlg.Reset()
	if dlg.Len() != 0 {
		t.Fatalf("context pairs after reset = %d, want 0", dlg.Len())
	}

	g.Generate(context.Background(), dlg, orderIntent(), "مرحبا")
	req := fake.requests[len(fake.requests)-1]
	if req[0].Content != personaInstruction {
		t.Fatalf("instruction not resent after reset")
	}
	instructions := 0
	for _, m := range req {
		if m.Content == personaInstruction {
			instructions++
		}
	}
	if instructions != 1 {
		t.Fatalf("instruction count = %d, want exactly 1", instructions)
	}
	// Zero prior pairs: instruction + current turn only.
	if len(req) != 2 {
		t.Fatalf("request length after reset = %d, want 2", len(req))
	}
}
