package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saif-ashraf99/syrian-voice-agent/internal/agent"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/config"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/observability"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/speech"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/store"
)

// Orchestrator is the call-handling surface the HTTP layer drives.
type Orchestrator interface {
	HandleTurn(ctx context.Context, callSID, text string, testMode bool) (agent.TurnResult, error)
	HandleCallStart(ctx context.Context, callSID, from, to string) string
	HandleSpeech(ctx context.Context, callSID, speechText string) string
	HandleRecording(ctx context.Context, callSID, recordingURL string) string
	EndCall(callSID string) (store.ActiveCall, bool)
	ResetContexts()
}

// CallCreator places outbound calls through the carrier.
type CallCreator interface {
	CreateCall(ctx context.Context, to, from, webhookURL string) (string, error)
}

type Server struct {
	cfg          config.Config
	store        *store.Store
	orchestrator Orchestrator
	caller       CallCreator
	audioCache   *speech.Cache
	metrics      *observability.Metrics
}

func New(cfg config.Config, st *store.Store, orchestrator Orchestrator, caller CallCreator, audioCache *speech.Cache, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		store:        st,
		orchestrator: orchestrator,
		caller:       caller,
		audioCache:   audioCache,
		metrics:      metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	// Twilio hits the voice webhook with POST by default but GET is allowed.
	r.Post("/webhook/voice", s.handleVoiceWebhook)
	r.Get("/webhook/voice", s.handleVoiceWebhook)
	r.Post("/webhook/status", s.handleStatusCallback)
	r.Post("/process_speech", s.handleProcessSpeech)
	r.Post("/process_recording", s.handleProcessRecording)
	r.Get("/tts/{id}.mp3", s.handleTTSAudio)

	r.Post("/test_voice", s.handleTestVoice)
	r.Get("/conversation_logs", s.handleConversationLogs)
	r.Get("/active_calls", s.handleActiveCalls)
	r.Post("/reset_context", s.handleResetContext)
	r.Post("/outbound_call", s.handleOutboundCall)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"services": map[string]string{
			"intent_detection":    "ok",
			"response_generation": "ok",
			"speech":              "ok",
			"telephony":           "ok",
		},
	})
}

func (s *Server) handleVoiceWebhook(w http.ResponseWriter, r *http.Request) {
	callSID, ok := s.requireFormField(w, r, "CallSid")
	if !ok {
		return
	}
	from := r.Form.Get("From")
	to := r.Form.Get("To")
	log.Printf("httpapi: incoming call %s from %s", callSID, from)

	script := s.orchestrator.HandleCallStart(r.Context(), callSID, from, to)
	respondTwiML(w, script)
}

func (s *Server) handleStatusCallback(w http.ResponseWriter, r *http.Request) {
	callSID, ok := s.requireFormField(w, r, "CallSid")
	if !ok {
		return
	}
	status := r.Form.Get("CallStatus")
	switch status {
	case "completed", "busy", "failed", "no-answer", "canceled":
		s.orchestrator.EndCall(callSID)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleProcessSpeech(w http.ResponseWriter, r *http.Request) {
	callSID, ok := s.requireFormField(w, r, "CallSid")
	if !ok {
		return
	}
	speechText := r.Form.Get("SpeechResult")
	script := s.orchestrator.HandleSpeech(r.Context(), callSID, speechText)
	respondTwiML(w, script)
}

func (s *Server) handleProcessRecording(w http.ResponseWriter, r *http.Request) {
	callSID, ok := s.requireFormField(w, r, "CallSid")
	if !ok {
		return
	}
	recordingURL, ok := s.requireFormField(w, r, "RecordingUrl")
	if !ok {
		return
	}
	script := s.orchestrator.HandleRecording(r.Context(), callSID, recordingURL)
	respondTwiML(w, script)
}

func (s *Server) handleTTSAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	audio, ok := s.audioCache.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "audio_not_found", "no cached audio for id")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleTestVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.orchestrator.HandleTurn(r.Context(), "test", req.Text, true)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleConversationLogs(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Summary())
}

func (s *Server) handleActiveCalls(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.store.ActiveCallsSummary())
}

func (s *Server) handleResetContext(w http.ResponseWriter, _ *http.Request) {
	s.orchestrator.ResetContexts()
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Context reset",
	})
}

func (s *Server) handleOutboundCall(w http.ResponseWriter, r *http.Request) {
	if s.caller == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "carrier client not configured")
		return
	}
	var req struct {
		To         string `json:"to"`
		From       string `json:"from"`
		WebhookURL string `json:"webhook_url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sid, err := s.caller.CreateCall(r.Context(), req.To, req.From, req.WebhookURL)
	if err != nil {
		log.Printf("httpapi: outbound call failed: %v", err)
		respondError(w, http.StatusBadGateway, "call_failed", "could not create outbound call")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"call_sid": sid})
}

// requireFormField parses the request form and rejects the request when the
// field is missing. Validation failures have no side effects.
func (s *Server) requireFormField(w http.ResponseWriter, r *http.Request, field string) (string, bool) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return "", false
	}
	v := strings.TrimSpace(r.Form.Get(field))
	if v == "" {
		respondError(w, http.StatusBadRequest, "missing_field", field+" is required")
		return "", false
	}
	return v, true
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondTwiML(w http.ResponseWriter, script string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(script))
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
