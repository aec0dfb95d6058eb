package twilio

import (
	"context"
	"log"
	"strings"

	"github.com/saif-ashraf99/syrian-voice-agent/internal/speech"
)

// Spoken phrases for the call state machine.
const (
	GreetingPhrase = "أهلاً وسهلاً بك في مطعم شاركو تشيكن. كيف ممكن ساعدك اليوم؟"
	noInputPhrase  = "ما سمعت شي منك. خلينا نجرب مرة تانية."
)

// ErrorKind selects the fixed error phrase spoken before hanging up.
type ErrorKind string

const (
	ErrorGeneral       ErrorKind = "general"
	ErrorRecording     ErrorKind = "recording"
	ErrorTranscription ErrorKind = "transcription"
)

var errorPhrases = map[ErrorKind]string{
	ErrorGeneral:       "عذراً، حدث خطأ. يرجى المحاولة مرة أخرى.",
	ErrorRecording:     "عذراً، حدث خطأ في معالجة التسجيل.",
	ErrorTranscription: "عذراً، لم أتمكن من فهم ما قلته. ممكن تعيد؟",
}

type BuilderConfig struct {
	VoiceWebhookPath     string
	ProcessSpeechPath    string
	AudioPathPrefix      string
	SpeechTimeoutSeconds int
}

// Builder produces the TwiML control script for each call turn. Synthesis
// failure never aborts a turn: every path degrades to a spoken <Say> using the
// secondary built-in voice.
type Builder struct {
	synth speech.Synthesizer
	cache *speech.Cache
	cfg   BuilderConfig
}

func NewBuilder(synth speech.Synthesizer, cache *speech.Cache, cfg BuilderConfig) *Builder {
	if strings.TrimSpace(cfg.VoiceWebhookPath) == "" {
		cfg.VoiceWebhookPath = "/webhook/voice"
	}
	if strings.TrimSpace(cfg.ProcessSpeechPath) == "" {
		cfg.ProcessSpeechPath = "/process_speech"
	}
	if strings.TrimSpace(cfg.AudioPathPrefix) == "" {
		cfg.AudioPathPrefix = "/tts/"
	}
	if cfg.SpeechTimeoutSeconds <= 0 {
		cfg.SpeechTimeoutSeconds = 5
	}
	return &Builder{synth: synth, cache: cache, cfg: cfg}
}

// Greeting is the entry script for a new call: welcome the caller, listen for
// speech, and loop back to the greeting when nothing is heard.
func (b *Builder) Greeting(ctx context.Context) string {
	resp := &Response{}
	resp.Append(b.speakOrPlay(ctx, GreetingPhrase)...)
	resp.Append(b.listen())
	resp.Append(
		Say{Voice: VoiceAlice, Language: LanguageArabic, Text: noInputPhrase},
		Redirect{Method: "POST", URL: b.cfg.VoiceWebhookPath},
	)
	return resp.String()
}

// Reply speaks the agent's answer and either keeps listening or ends the call.
func (b *Builder) Reply(ctx context.Context, text string, continueCall bool) string {
	resp := &Response{}
	resp.Append(b.speakOrPlay(ctx, text)...)
	if continueCall {
		resp.Append(b.listen())
		resp.Append(
			Say{Voice: VoiceAlice, Language: LanguageArabic, Text: noInputPhrase},
			Redirect{Method: "POST", URL: b.cfg.VoiceWebhookPath},
		)
	} else {
		resp.Append(Hangup{})
	}
	return resp.String()
}

// Error speaks the fixed phrase for the error category and terminates. The
// error path never depends on synthesis.
func (b *Builder) Error(kind ErrorKind) string {
	phrase, ok := errorPhrases[kind]
	if !ok {
		phrase = errorPhrases[ErrorGeneral]
	}
	resp := &Response{}
	resp.Append(
		Say{Voice: VoiceAlice, Language: LanguageArabic, Text: phrase},
		Hangup{},
	)
	return resp.String()
}

func (b *Builder) listen() Gather {
	return Gather{
		Input:    "speech",
		Action:   b.cfg.ProcessSpeechPath,
		Method:   "POST",
		Timeout:  b.cfg.SpeechTimeoutSeconds,
		Language: LanguageArabic,
	}
}

// speakOrPlay synthesizes the phrase and plays the cached audio, falling back
// to the secondary built-in voice when synthesis fails.
func (b *Builder) speakOrPlay(ctx context.Context, text string) []any {
	audio, err := b.synth.Synthesize(ctx, text)
	if err != nil {
		log.Printf("twilio: synthesis failed, using spoken fallback: %v", err)
		return []any{Say{Voice: VoiceWoman, Language: LanguageArabic, Text: text}}
	}
	id := b.cache.Put(audio)
	return []any{Play{URL: b.cfg.AudioPathPrefix + id + ".mp3"}}
}
