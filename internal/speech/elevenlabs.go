package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type ElevenLabsConfig struct {
	APIKey       string
	APIBaseURL   string
	WSBaseURL    string
	VoiceID      string
	ModelID      string
	STTModelID   string
	OutputFormat string
	Timeout      time.Duration
}

// ElevenLabsProvider implements both speech capabilities: synthesis over the
// streaming TTS websocket and transcription over the REST speech-to-text
// endpoint.
type ElevenLabsProvider struct {
	cfg  ElevenLabsConfig
	http *http.Client
}

func NewElevenLabsProvider(cfg ElevenLabsConfig) *ElevenLabsProvider {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = "https://api.elevenlabs.io"
	}
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = "wss://api.elevenlabs.io"
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	if strings.TrimSpace(cfg.STTModelID) == "" {
		cfg.STTModelID = "scribe_v1"
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = "mp3_44100_128"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ElevenLabsProvider{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Synthesize streams the text through the stream-input websocket and collects
// the audio chunks into a single payload.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required")
	}
	if strings.TrimSpace(p.cfg.VoiceID) == "" {
		return nil, fmt.Errorf("voice_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(strings.TrimRight(p.cfg.WSBaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(p.cfg.VoiceID) + "/stream-input")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("model_id", p.cfg.ModelID)
	q.Set("output_format", p.cfg.OutputFormat)
	q.Set("auto_mode", "true")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("xi-api-key", p.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("dial tts websocket: %w", err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	// Prime the stream as documented for TTS websocket flows, then send the
	// whole phrase and close input.
	if err := conn.WriteJSON(map[string]any{
		"text": " ",
		"voice_settings": map[string]any{
			"stability":         0.75,
			"similarity_boost":  0.85,
			"style":             0.5,
			"use_speaker_boost": true,
		},
	}); err != nil {
		return nil, fmt.Errorf("prime tts stream: %w", err)
	}
	if err := conn.WriteJSON(map[string]any{"text": text + " ", "try_trigger_generation": true}); err != nil {
		return nil, fmt.Errorf("send tts text: %w", err)
	}
	if err := conn.WriteJSON(map[string]any{"text": ""}); err != nil {
		return nil, fmt.Errorf("close tts input: %w", err)
	}

	var buf bytes.Buffer
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if buf.Len() > 0 {
				// The server closes the socket after the final chunk.
				return buf.Bytes(), nil
			}
			return nil, fmt.Errorf("read tts stream: %w", err)
		}
		var raw struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}
		if raw.Error != "" {
			return nil, fmt.Errorf("tts stream error: %s", raw.Error)
		}
		if raw.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(raw.Audio)
			if err != nil {
				return nil, fmt.Errorf("decode tts audio: %w", err)
			}
			buf.Write(chunk)
		}
		if raw.IsFinal {
			break
		}
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("tts stream produced no audio")
	}
	return buf.Bytes(), nil
}

// Transcribe posts the recording to the speech-to-text endpoint.
func (p *ElevenLabsProvider) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio is required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("model_id", p.cfg.STTModelID); err != nil {
		return "", err
	}
	if language != "" {
		if err := form.WriteField("language_code", language); err != nil {
			return "", err
		}
	}
	part, err := form.CreateFormFile("file", "recording.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.cfg.APIBaseURL, "/")+"/v1/speech-to-text", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", p.cfg.APIKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	res, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech-to-text request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("speech-to-text status %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode speech-to-text response: %w", err)
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return "", ErrUnrecognized
	}
	return text, nil
}
