package store

import (
	"sync"
	"time"

	"github.com/saif-ashraf99/syrian-voice-agent/internal/intent"
)

// Entry is one customer/agent exchange. Entries are append-only and never
// mutated after logging.
type Entry struct {
	CallSID       string          `json:"call_sid"`
	Timestamp     time.Time       `json:"timestamp"`
	CustomerText  string          `json:"customer_text"`
	Intent        string          `json:"intent"`
	Entities      intent.Entities `json:"entities"`
	AgentResponse string          `json:"agent_response"`
	Confidence    float64         `json:"confidence"`
	TestMode      bool            `json:"test_mode"`
}

// ActiveCall is a phone call in progress. The call SID stays a valid lookup
// key into the historical log after the call ends.
type ActiveCall struct {
	CallSID      string    `json:"call_sid"`
	FromNumber   string    `json:"from_number"`
	ToNumber     string    `json:"to_number"`
	StartTime    time.Time `json:"start_time"`
	Conversation []Entry   `json:"conversation"`
}

// Summary reports the full conversation log alongside headline counts.
type Summary struct {
	Logs               []Entry `json:"logs"`
	TotalConversations int     `json:"total_conversations"`
	ActiveCalls        int     `json:"active_calls"`
}

// CallSummary is the per-call view used by the dashboard.
type CallSummary struct {
	From              string    `json:"from"`
	To                string    `json:"to"`
	StartTime         time.Time `json:"start_time"`
	ConversationCount int       `json:"conversation_count"`
}

// ActiveCallsSummary lists calls currently in progress.
type ActiveCallsSummary struct {
	ActiveCalls map[string]CallSummary `json:"active_calls"`
	Count       int                    `json:"count"`
}

// Store is the process-wide conversation ledger: the full ordered log of
// exchanges plus the set of active calls. All methods are safe for concurrent
// use; none performs I/O.
type Store struct {
	mu          sync.RWMutex
	logs        []Entry
	activeCalls map[string]*ActiveCall
}

func New() *Store {
	return &Store{activeCalls: make(map[string]*ActiveCall)}
}

// StartCall begins tracking a call, replacing any prior call with the same SID.
func (s *Store) StartCall(callSID, from, to string) ActiveCall {
	call := &ActiveCall{
		CallSID:    callSID,
		FromNumber: from,
		ToNumber:   to,
		StartTime:  time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCalls[callSID] = call
	return cloneCall(call)
}

// EndCall removes the call from the active set and returns it. Ending an
// unknown or already-ended call reports ok=false; it is not an error.
func (s *Store) EndCall(callSID string) (ActiveCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.activeCalls[callSID]
	if !ok {
		return ActiveCall{}, false
	}
	delete(s.activeCalls, callSID)
	return cloneCall(call), true
}

// GetCall returns the active call with the given SID, if any.
func (s *Store) GetCall(callSID string) (ActiveCall, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	call, ok := s.activeCalls[callSID]
	if !ok {
		return ActiveCall{}, false
	}
	return cloneCall(call), true
}

// LogEntry appends the entry to the global log and, when the entry's call is
// still active, to that call's own conversation in the same order.
func (s *Store) LogEntry(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Entities = entry.Entities.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if call, ok := s.activeCalls[entry.CallSID]; ok {
		call.Conversation = append(call.Conversation, entry)
	}
}

// Summary returns a copy of the full log with entry and active-call counts.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := make([]Entry, len(s.logs))
	for i, e := range s.logs {
		logs[i] = cloneEntry(e)
	}
	return Summary{
		Logs:               logs,
		TotalConversations: len(s.logs),
		ActiveCalls:        len(s.activeCalls),
	}
}

// ActiveCallsSummary returns a dashboard view of calls in progress.
func (s *Store) ActiveCallsSummary() ActiveCallsSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	calls := make(map[string]CallSummary, len(s.activeCalls))
	for sid, call := range s.activeCalls {
		calls[sid] = CallSummary{
			From:              call.FromNumber,
			To:                call.ToNumber,
			StartTime:         call.StartTime,
			ConversationCount: len(call.Conversation),
		}
	}
	return ActiveCallsSummary{ActiveCalls: calls, Count: len(calls)}
}

// ActiveCount reports the number of calls currently in progress.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activeCalls)
}

func cloneEntry(e Entry) Entry {
	e.Entities = e.Entities.Clone()
	return e
}

func cloneCall(c *ActiveCall) ActiveCall {
	out := *c
	out.Conversation = make([]Entry, len(c.Conversation))
	for i, e := range c.Conversation {
		out.Conversation[i] = cloneEntry(e)
	}
	return out
}
