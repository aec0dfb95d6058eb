package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config contains all runtime settings for the restaurant voice agent.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	// Chat-completion backend (OpenRouter or any OpenAI-compatible API),
	// shared by intent classification and response generation.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	LLMTimeout    time.Duration

	SpeechProvider string

	ElevenLabsAPIKey       string
	ElevenLabsAPIBaseURL   string
	ElevenLabsWSBaseURL    string
	ElevenLabsVoiceID      string
	ElevenLabsTTSModel     string
	ElevenLabsSTTModel     string
	ElevenLabsOutputFormat string
	TTSTimeout             time.Duration

	TwilioAccountSID string
	TwilioAuthToken  string

	MaxConversationContext int
	MaxRecordingLength     int
	SpeechTimeoutSeconds   int
	AudioCacheTTL          time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "voiceagent"),
		OpenAIAPIKey:     trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:    envOrDefault("OPENAI_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "google/gemma-3n-e2b-it:free"),
		SpeechProvider:   envOrDefault("SPEECH_PROVIDER", "auto"),
		ElevenLabsAPIKey: trimmedEnv("ELEVENLABS_API_KEY"),
		// REST endpoints (speech-to-text) and the streaming TTS websocket live on
		// different schemes of the same host.
		ElevenLabsAPIBaseURL: envOrDefault("ELEVENLABS_API_BASE_URL", "https://api.elevenlabs.io"),
		ElevenLabsWSBaseURL:  envOrDefault("ELEVENLABS_WS_BASE_URL", "wss://api.elevenlabs.io"),
		ElevenLabsVoiceID:    envOrDefault("ELEVENLABS_VOICE_ID", "drMurExmkWVIH5nW8snR"),
		ElevenLabsTTSModel:   envOrDefault("ELEVENLABS_TTS_MODEL_ID", "eleven_multilingual_v2"),
		ElevenLabsSTTModel:   envOrDefault("ELEVENLABS_STT_MODEL_ID", "scribe_v1"),
		// MP3 plays directly through Twilio <Play>.
		ElevenLabsOutputFormat: envOrDefault("ELEVENLABS_TTS_OUTPUT_FORMAT", "mp3_44100_128"),
		TwilioAccountSID:       trimmedEnv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:        trimmedEnv("TWILIO_AUTH_TOKEN"),
		ShutdownTimeout:        15 * time.Second,
		LLMTimeout:             30 * time.Second,
		TTSTimeout:             10 * time.Second,
		MaxConversationContext: 6,
		MaxRecordingLength:     30,
		SpeechTimeoutSeconds:   5,
		AudioCacheTTL:          10 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TTSTimeout, err = durationFromEnv("TTS_TIMEOUT", cfg.TTSTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AudioCacheTTL, err = durationFromEnv("AUDIO_CACHE_TTL", cfg.AudioCacheTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxConversationContext, err = intFromEnv("MAX_CONVERSATION_CONTEXT", cfg.MaxConversationContext)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxRecordingLength, err = intFromEnv("MAX_RECORDING_LENGTH", cfg.MaxRecordingLength)
	if err != nil {
		return Config{}, err
	}
	cfg.SpeechTimeoutSeconds, err = intFromEnv("SPEECH_TIMEOUT_SECONDS", cfg.SpeechTimeoutSeconds)
	if err != nil {
		return Config{}, err
	}

	if cfg.MaxConversationContext <= 0 {
		return Config{}, fmt.Errorf("MAX_CONVERSATION_CONTEXT must be positive")
	}
	if cfg.MaxRecordingLength <= 0 {
		return Config{}, fmt.Errorf("MAX_RECORDING_LENGTH must be positive")
	}
	if cfg.SpeechTimeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("SPEECH_TIMEOUT_SECONDS must be positive")
	}
	if cfg.LLMTimeout < time.Second {
		return Config{}, fmt.Errorf("LLM_TIMEOUT must be at least 1s")
	}
	if cfg.TTSTimeout < time.Second {
		return Config{}, fmt.Errorf("TTS_TIMEOUT must be at least 1s")
	}
	if cfg.AudioCacheTTL < time.Minute {
		return Config{}, fmt.Errorf("AUDIO_CACHE_TTL must be at least 1m")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := trimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
