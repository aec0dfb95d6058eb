package intent

import (
	"encoding/json"
	"strings"
)

// Source tags which stage of the parsing pipeline produced a result, so the
// strict, heuristic, and fallback paths can be exercised independently.
type Source string

const (
	SourceStructured Source = "structured"
	SourceHeuristic  Source = "heuristic"
	SourceDefault    Source = "default"
)

// Parse interprets raw model output permissively: strip code fences, locate
// the first balanced JSON object, decode it; otherwise fall back to keyword
// matching. An empty payload yields the default result.
func Parse(content string) (Data, Source) {
	content = stripFences(strings.TrimSpace(content))
	if content == "" {
		return Default(), SourceDefault
	}

	if span, ok := jsonSpan(content); ok {
		var payload struct {
			Intent     string   `json:"intent"`
			Entities   Entities `json:"entities"`
			Confidence float64  `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(span), &payload); err == nil && strings.TrimSpace(payload.Intent) != "" {
			d := Data{
				Intent:     strings.TrimSpace(payload.Intent),
				Entities:   payload.Entities,
				Confidence: clamp01(payload.Confidence),
			}
			if d.Entities == nil {
				d.Entities = DefaultEntities()
			}
			return d, SourceStructured
		}
	}

	return matchKeywords(content), SourceHeuristic
}

func stripFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

// jsonSpan returns the first balanced {...} span, tracking string literals so
// braces inside values do not throw off the count.
func jsonSpan(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
