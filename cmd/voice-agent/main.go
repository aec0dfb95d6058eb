package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/saif-ashraf99/syrian-voice-agent/internal/agent"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/config"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/httpapi"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/intent"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/llm"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/observability"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/respond"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/speech"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/store"
	"github.com/saif-ashraf99/syrian-voice-agent/internal/twilio"
)

func main() {
	// Local development convenience; the file is optional in production.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	conversations := store.New()

	llmClient, err := llm.NewOpenRouterClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.LLMTimeout)
	if err != nil {
		log.Fatalf("llm client init failed: %v", err)
	}
	classifier := intent.NewClassifier(llmClient)
	generator := respond.NewGenerator(llmClient, cfg.MaxConversationContext)

	var (
		transcriber speech.Transcriber
		synth       speech.Synthesizer
		resolved    string
	)

	tryElevenLabs := func() bool {
		if strings.TrimSpace(cfg.ElevenLabsAPIKey) == "" {
			return false
		}
		p := speech.NewElevenLabsProvider(speech.ElevenLabsConfig{
			APIKey:       cfg.ElevenLabsAPIKey,
			APIBaseURL:   cfg.ElevenLabsAPIBaseURL,
			WSBaseURL:    cfg.ElevenLabsWSBaseURL,
			VoiceID:      cfg.ElevenLabsVoiceID,
			ModelID:      cfg.ElevenLabsTTSModel,
			STTModelID:   cfg.ElevenLabsSTTModel,
			OutputFormat: cfg.ElevenLabsOutputFormat,
			Timeout:      cfg.TTSTimeout,
		})
		transcriber = p
		synth = p
		resolved = "elevenlabs"
		log.Printf("speech provider: elevenlabs")
		return true
	}

	useMock := func() {
		p := speech.NewMockProvider()
		transcriber = p
		synth = p
		resolved = "mock"
	}

	switch strings.ToLower(strings.TrimSpace(cfg.SpeechProvider)) {
	case "elevenlabs":
		if !tryElevenLabs() {
			log.Fatalf("SPEECH_PROVIDER=elevenlabs but ELEVENLABS_API_KEY is not set")
		}
	case "mock":
		useMock()
		log.Printf("speech provider: mock")
	case "auto", "":
		if !tryElevenLabs() {
			useMock()
			log.Printf("speech provider: mock (no elevenlabs key)")
		}
	default:
		log.Fatalf("invalid SPEECH_PROVIDER: %q (expected auto|elevenlabs|mock)", cfg.SpeechProvider)
	}
	cfg.SpeechProvider = resolved

	audioCache := speech.NewCache(cfg.AudioCacheTTL)
	scriptBuilder := twilio.NewBuilder(synth, audioCache, twilio.BuilderConfig{
		SpeechTimeoutSeconds: cfg.SpeechTimeoutSeconds,
	})

	var (
		fetcher agent.RecordingFetcher
		caller  httpapi.CallCreator
	)
	if strings.TrimSpace(cfg.TwilioAccountSID) != "" {
		carrier := twilio.NewClient(twilio.ClientConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
		})
		fetcher = carrier
		caller = carrier
	} else {
		log.Printf("twilio credentials not set, recording fetch and outbound calls disabled")
	}

	orchestrator := agent.New(
		conversations,
		classifier,
		generator,
		transcriber,
		synth,
		scriptBuilder,
		fetcher,
		metrics,
		"ar",
	)
	api := httpapi.New(cfg, conversations, orchestrator, caller, audioCache, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	audioCache.StartJanitor(runCtx, time.Minute)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
