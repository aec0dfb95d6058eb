// Package agent hosts the call orchestrator: it sequences classification,
// response generation, speech synthesis, telephony scripting, and conversation
// logging for every inbound event.
package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/saif-ashraf99/syrian-voice-agent/internal/intent"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/observability"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/respond"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/speech"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/store"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/twilio"
)

// ErrEmptyText rejects turns with no usable input. It is the only error a
// turn can produce; everything past validation degrades instead of failing.
var ErrEmptyText = errors.New("text is required")

// TurnResult is the structured outcome of one conversation turn.
type TurnResult struct {
	TranscribedInput string          `json:"transcribed_input"`
	DetectedIntent   string          `json:"detected_intent"`
	Entities         intent.Entities `json:"entities"`
	Confidence       float64         `json:"confidence"`
	AgentResponse    string          `json:"agent_response"`
	AudioBase64      string          `json:"audio_base64"`
}

// RecordingFetcher downloads call recordings from the telephony carrier.
type RecordingFetcher interface {
	FetchRecording(ctx context.Context, recordingURL string) ([]byte, error)
}

// Agent coordinates all sub-services per call. Dialogue context is tracked per
// call SID so concurrent calls never interleave histories; the context map is
// the only state the agent guards itself, and no lock is held across a
// classifier, generator, or speech call.
type Agent struct {
	store      *store.Store
	classifier *intent.Classifier
	generator  *respond.Generator
	transcribe speech.Transcriber
	synth      speech.Synthesizer
	builder    *twilio.Builder
	carrier    RecordingFetcher
	metrics    *observability.Metrics
	language   string

	mu       sync.Mutex
	contexts map[string]*respond.Context
}

func New(
	st *store.Store,
	classifier *intent.Classifier,
	generator *respond.Generator,
	transcriber speech.Transcriber,
	synth speech.Synthesizer,
	builder *twilio.Builder,
	carrier RecordingFetcher,
	metrics *observability.Metrics,
	language string,
) *Agent {
	if strings.TrimSpace(language) == "" {
		language = "ar"
	}
	return &Agent{
		store:      st,
		classifier: classifier,
		generator:  generator,
		transcribe: transcriber,
		synth:      synth,
		builder:    builder,
		carrier:    carrier,
		metrics:    metrics,
		language:   language,
		contexts:   make(map[string]*respond.Context),
	}
}

// HandleTurn runs one conversation turn: classify, generate, synthesize (test
// mode only), then log. Stage failures are absorbed into a degraded but valid
// result; exactly one entry is logged per non-rejected invocation.
func (a *Agent) HandleTurn(ctx context.Context, callSID, text string, testMode bool) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyText
	}
	started := time.Now()

	data, source := a.classifier.Detect(ctx, text)
	if source == intent.SourceDefault {
		a.metrics.ProviderErrors.WithLabelValues("llm", "classify").Inc()
	}

	reply := a.generator.Generate(ctx, a.dialogue(callSID), data, text)

	var audioBase64 string
	if testMode {
		audio, err := a.synth.Synthesize(ctx, reply)
		if err != nil {
			log.Printf("agent: test synthesis failed: %v", err)
			a.metrics.ProviderErrors.WithLabelValues("tts", "synthesize").Inc()
		} else {
			audioBase64 = base64.StdEncoding.EncodeToString(audio)
		}
	}

	a.store.LogEntry(store.Entry{
		CallSID:       callSID,
		CustomerText:  text,
		Intent:        data.Intent,
		Entities:      data.Entities,
		AgentResponse: reply,
		Confidence:    data.Confidence,
		TestMode:      testMode,
	})

	mode := "call"
	if testMode {
		mode = "test"
	}
	a.metrics.Turns.WithLabelValues(data.Intent, mode).Inc()
	a.metrics.ObserveTurnLatency(time.Since(started))

	return TurnResult{
		TranscribedInput: text,
		DetectedIntent:   data.Intent,
		Entities:         data.Entities,
		Confidence:       data.Confidence,
		AgentResponse:    reply,
		AudioBase64:      audioBase64,
	}, nil
}

// HandleCallStart registers the call and returns the greeting control script.
func (a *Agent) HandleCallStart(ctx context.Context, callSID, from, to string) string {
	a.store.StartCall(callSID, from, to)
	a.metrics.CallEvents.WithLabelValues("started").Inc()
	a.metrics.ActiveCalls.Set(float64(a.store.ActiveCount()))
	log.Printf("agent: started tracking call %s from %s", callSID, from)
	return a.builder.Greeting(ctx)
}

// HandleSpeech turns a speech-recognition result into the next control
// script. A goodbye intent ends the call after the reply is spoken.
func (a *Agent) HandleSpeech(ctx context.Context, callSID, speechText string) string {
	result, err := a.HandleTurn(ctx, callSID, speechText, false)
	if err != nil {
		return a.builder.Error(twilio.ErrorTranscription)
	}

	continueCall := result.DetectedIntent != "goodbye"
	script := a.builder.Reply(ctx, result.AgentResponse, continueCall)
	if !continueCall {
		a.EndCall(callSID)
	}
	return script
}

// HandleRecording fetches and transcribes a carrier recording, then processes
// it like any other speech result.
func (a *Agent) HandleRecording(ctx context.Context, callSID, recordingURL string) string {
	if a.carrier == nil {
		log.Printf("agent: no carrier client, cannot fetch recording for %s", callSID)
		return a.builder.Error(twilio.ErrorRecording)
	}
	audio, err := a.carrier.FetchRecording(ctx, recordingURL)
	if err != nil {
		log.Printf("agent: recording fetch failed for %s: %v", callSID, err)
		a.metrics.ProviderErrors.WithLabelValues("twilio", "fetch_recording").Inc()
		return a.builder.Error(twilio.ErrorRecording)
	}

	text, err := a.transcribe.Transcribe(ctx, audio, a.language)
	if err != nil {
		log.Printf("agent: transcription failed for %s: %v", callSID, err)
		a.metrics.ProviderErrors.WithLabelValues("stt", "transcribe").Inc()
		return a.builder.Error(twilio.ErrorTranscription)
	}

	return a.HandleSpeech(ctx, callSID, text)
}

// EndCall stops tracking the call and drops its dialogue context. Ending an
// unknown call is a no-op.
func (a *Agent) EndCall(callSID string) (store.ActiveCall, bool) {
	call, ok := a.store.EndCall(callSID)
	if ok {
		a.metrics.CallEvents.WithLabelValues("ended").Inc()
		a.metrics.ActiveCalls.Set(float64(a.store.ActiveCount()))
		log.Printf("agent: ended call %s after %d exchanges", callSID, len(call.Conversation))
	}

	a.mu.Lock()
	delete(a.contexts, callSID)
	a.mu.Unlock()
	return call, ok
}

// ResetContexts clears every dialogue context, including the test call's.
func (a *Agent) ResetContexts() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.contexts = make(map[string]*respond.Context)
}

func (a *Agent) dialogue(callSID string) *respond.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	dlg, ok := a.contexts[callSID]
	if !ok {
		dlg = respond.NewContext()
		a.contexts[callSID] = dlg
	}
	return dlg
}
