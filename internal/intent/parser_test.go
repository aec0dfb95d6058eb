package intent

import "testing"

func TestParseStructuredJSON(t *testing.T) {
	content := `{"intent": "order", "entities": {"food_items": ["شاورما دجاج", "حمص"], "quantities": [2], "other": []}, "confidence": 0.95}`

	data, source := Parse(content)
	if source != SourceStructured {
		t.Fatalf("source = %q, want %q", source, SourceStructured)
	}
	if data.Intent != "order" {
		t.Fatalf("intent = %q, want %q", data.Intent, "order")
	}
	if data.Confidence != 0.95 {
		t.Fatalf("confidence = %v, want 0.95", data.Confidence)
	}
	if len(data.Entities["food_items"]) != 2 {
		t.Fatalf("food_items = %v, want 2 items", data.Entities["food_items"])
	}
}

func TestParseStripsCodeFences(t *testing.T) {
	content := "```json\n{\"intent\": \"greeting\", \"entities\": {}, \"confidence\": 0.9}\n```"

	data, source := Parse(content)
	if source != SourceStructured {
		t.Fatalf("source = %q, want %q", source, SourceStructured)
	}
	if data.Intent != "greeting" {
		t.Fatalf("intent = %q, want %q", data.Intent, "greeting")
	}
}

func TestParseFindsJSONSpanInsideProse(t *testing.T) {
	content := `Sure! Here is the classification: {"intent": "question", "entities": {"food_items": [], "quantities": [], "other": ["hours"]}, "confidence": 0.8} hope that helps.`

	data, source := Parse(content)
	if source != SourceStructured {
		t.Fatalf("source = %q, want %q", source, SourceStructured)
	}
	if data.Intent != "question" {
		t.Fatalf("intent = %q, want %q", data.Intent, "question")
	}
}

func TestParseClampsConfidence(t *testing.T) {
	data, _ := Parse(`{"intent": "order", "entities": {}, "confidence": 7.5}`)
	if data.Confidence != 1 {
		t.Fatalf("confidence = %v, want clamped to 1", data.Confidence)
	}
}

func TestParseKeywordHeuristic(t *testing.T) {
	data, source := Parse("بدي أطلب أكل")
	if source != SourceHeuristic || data.Intent != "order" {
		t.Fatalf("got (%q, %q), want (order, heuristic)", data.Intent, source)
	}
	if data.Confidence != 0.5 {
		t.Fatalf("heuristic confidence = %v, want 0.5", data.Confidence)
	}

	data, source = Parse("عندي شكوى على الطلب")
	// "طلب" appears as a substring too, and the order rule is checked first.
	if source != SourceHeuristic || data.Intent != "order" {
		t.Fatalf("got (%q, %q), want first satisfied rule (order, heuristic)", data.Intent, source)
	}

	data, source = Parse("مع السلامة")
	if source != SourceHeuristic || data.Intent != "goodbye" {
		t.Fatalf("got (%q, %q), want (goodbye, heuristic)", data.Intent, source)
	}
}

func TestParseNoCueYieldsUnknownAtHeuristicConfidence(t *testing.T) {
	data, source := Parse("xyzzy plugh")
	if source != SourceHeuristic {
		t.Fatalf("source = %q, want %q", source, SourceHeuristic)
	}
	if data.Intent != "unknown" {
		t.Fatalf("intent = %q, want %q", data.Intent, "unknown")
	}
	if data.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", data.Confidence)
	}
}

func TestParseEmptyContentYieldsDefault(t *testing.T) {
	data, source := Parse("   ")
	if source != SourceDefault {
		t.Fatalf("source = %q, want %q", source, SourceDefault)
	}
	if data.Intent != "unknown" || data.Confidence != 0 {
		t.Fatalf("data = %+v, want default", data)
	}
}

func TestParseMalformedJSONFallsBackToHeuristic(t *testing.T) {
	data, source := Parse(`{"intent": "order", "entities":`)
	if source != SourceHeuristic {
		t.Fatalf("source = %q, want %q", source, SourceHeuristic)
	}
	// The broken payload still contains the literal cue "order".
	if data.Intent != "order" {
		t.Fatalf("intent = %q, want %q", data.Intent, "order")
	}
}
