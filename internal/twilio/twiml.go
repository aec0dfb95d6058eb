// Package twilio turns agent text into TwiML control scripts and talks to the
// Twilio REST API for recordings and outbound calls.
package twilio

import (
	"bytes"
	"encoding/xml"
)

// Built-in Twilio voices. Alice is the primary spoken voice; Woman is the
// secondary fallback used when synthesis fails.
const (
	VoiceAlice = "alice"
	VoiceWoman = "woman"
)

// LanguageArabic is the say/gather language tag for the restaurant's callers.
const LanguageArabic = "ar"

type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type Play struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

type Gather struct {
	XMLName  xml.Name `xml:"Gather"`
	Input    string   `xml:"input,attr,omitempty"`
	Action   string   `xml:"action,attr,omitempty"`
	Method   string   `xml:"method,attr,omitempty"`
	Timeout  int      `xml:"timeout,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
}

type Record struct {
	XMLName            xml.Name `xml:"Record"`
	Action             string   `xml:"action,attr,omitempty"`
	Method             string   `xml:"method,attr,omitempty"`
	MaxLength          int      `xml:"maxLength,attr,omitempty"`
	FinishOnKey        string   `xml:"finishOnKey,attr,omitempty"`
	Transcribe         bool     `xml:"transcribe,attr,omitempty"`
	TranscribeCallback string   `xml:"transcribeCallback,attr,omitempty"`
}

type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Response is an ordered TwiML verb sequence.
type Response struct {
	verbs []any
}

func (r *Response) Append(verbs ...any) {
	r.verbs = append(r.verbs, verbs...)
}

// String renders the response document. A broken script is the one
// unacceptable output, so marshalling trouble falls back to a minimal spoken
// hangup rather than propagating an error into the call.
func (r *Response) String() string {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	start := xml.StartElement{Name: xml.Name{Local: "Response"}}
	if err := enc.EncodeToken(start); err != nil {
		return brokenScriptFallback
	}
	for _, verb := range r.verbs {
		if err := enc.Encode(verb); err != nil {
			return brokenScriptFallback
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return brokenScriptFallback
	}
	if err := enc.Flush(); err != nil {
		return brokenScriptFallback
	}
	return buf.String()
}

const brokenScriptFallback = xml.Header +
	`<Response><Say voice="alice" language="ar">` +
	"عذراً، حدث خطأ. يرجى المحاولة مرة أخرى." +
	`</Say><Hangup></Hangup></Response>`
