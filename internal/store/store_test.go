package store

import (
	"sync"
	"testing"

	"github.com/saif-ashraf99/syrian-voice-agent/internal/intent"
)

func TestLogEntryAppendsToCallAndGlobalLog(t *testing.T) {
	s := New()
	s.StartCall("CA1", "+963111", "+963999")

	s.LogEntry(Entry{CallSID: "CA1", CustomerText: "مرحبا", Intent: "greeting"})
	s.LogEntry(Entry{CallSID: "CA1", CustomerText: "بدي شاورما", Intent: "order"})

	call, ok := s.GetCall("CA1")
	if !ok {
		t.Fatalf("GetCall(CA1) not found")
	}
	if len(call.Conversation) != 2 {
		t.Fatalf("call conversation length = %d, want 2", len(call.Conversation))
	}

	sum := s.Summary()
	if sum.TotalConversations != 2 {
		t.Fatalf("TotalConversations = %d, want 2", sum.TotalConversations)
	}
	for i := range sum.Logs {
		if sum.Logs[i].CustomerText != call.Conversation[i].CustomerText {
			t.Fatalf("log order mismatch at %d: %q vs %q", i, sum.Logs[i].CustomerText, call.Conversation[i].CustomerText)
		}
	}
}

func TestLogEntryForInactiveCallOnlyHitsGlobalLog(t *testing.T) {
	s := New()
	s.LogEntry(Entry{CallSID: "test", CustomerText: "hi", Intent: "greeting", TestMode: true})

	sum := s.Summary()
	if sum.TotalConversations != 1 {
		t.Fatalf("TotalConversations = %d, want 1", sum.TotalConversations)
	}
	if sum.ActiveCalls != 0 {
		t.Fatalf("ActiveCalls = %d, want 0", sum.ActiveCalls)
	}
	if _, ok := s.GetCall("test"); ok {
		t.Fatalf("GetCall(test) should not find an active call")
	}
}

func TestEndCallOnUnknownSIDIsNoOp(t *testing.T) {
	s := New()
	if _, ok := s.EndCall("nope"); ok {
		t.Fatalf("EndCall(nope) ok = true, want false")
	}
}

func TestEndCallKeepsHistoricalLog(t *testing.T) {
	s := New()
	s.StartCall("CA1", "+963111", "+963999")
	s.LogEntry(Entry{CallSID: "CA1", CustomerText: "مرحبا"})

	call, ok := s.EndCall("CA1")
	if !ok {
		t.Fatalf("EndCall(CA1) ok = false, want true")
	}
	if len(call.Conversation) != 1 {
		t.Fatalf("ended call conversation length = %d, want 1", len(call.Conversation))
	}

	// Ending the call never removes entries from the global log.
	if got := s.Summary().TotalConversations; got != 1 {
		t.Fatalf("TotalConversations after end = %d, want 1", got)
	}
	if got := s.ActiveCount(); got != 0 {
		t.Fatalf("ActiveCount after end = %d, want 0", got)
	}
}

func TestStartCallOverwritesPriorCall(t *testing.T) {
	s := New()
	s.StartCall("CA1", "+963111", "+963999")
	s.LogEntry(Entry{CallSID: "CA1", CustomerText: "first"})

	s.StartCall("CA1", "+963222", "+963999")
	call, ok := s.GetCall("CA1")
	if !ok {
		t.Fatalf("GetCall(CA1) not found after restart")
	}
	if call.FromNumber != "+963222" {
		t.Fatalf("FromNumber = %q, want %q", call.FromNumber, "+963222")
	}
	if len(call.Conversation) != 0 {
		t.Fatalf("restarted call conversation length = %d, want 0 (no merge)", len(call.Conversation))
	}
}

func TestReturnedEntriesAreCopies(t *testing.T) {
	s := New()
	s.StartCall("CA1", "+963111", "+963999")
	s.LogEntry(Entry{
		CallSID:  "CA1",
		Intent:   "order",
		Entities: intent.Entities{"food_items": {"شاورما"}},
	})

	sum := s.Summary()
	sum.Logs[0].Entities["food_items"][0] = "corrupted"
	sum.Logs[0].AgentResponse = "corrupted"

	again := s.Summary()
	if again.Logs[0].Entities["food_items"][0] != "شاورما" {
		t.Fatalf("store entities mutated through Summary() result")
	}
	if again.Logs[0].AgentResponse != "" {
		t.Fatalf("store entry mutated through Summary() result")
	}
}

func TestConcurrentLogging(t *testing.T) {
	s := New()
	s.StartCall("CA1", "+963111", "+963999")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.LogEntry(Entry{CallSID: "CA1", CustomerText: "turn"})
			}
		}()
	}
	wg.Wait()

	if got := s.Summary().TotalConversations; got != 400 {
		t.Fatalf("TotalConversations = %d, want 400", got)
	}
	call, _ := s.GetCall("CA1")
	if len(call.Conversation) != 400 {
		t.Fatalf("call conversation length = %d, want 400", len(call.Conversation))
	}
}
