package intent

import "strings"

// heuristicConfidence is the fixed score for keyword-based matches; it is
// deliberately lower than anything a well-formed model response would carry.
const heuristicConfidence = 0.5

// keywordRules is the fixed intent vocabulary with Syrian Arabic and English
// cues. Rule order matters: the first satisfied rule wins.
var keywordRules = []struct {
	intent string
	cues   []string
}{
	{"order", []string{"order", "طلب", "بدي", "أريد", "عايز"}},
	{"complaint", []string{"complaint", "شكوى", "مشكلة", "سيء"}},
	{"question", []string{"question", "سؤال", "شو", "كيف", "وين"}},
	{"greeting", []string{"greeting", "أهلا", "مرحبا", "السلام"}},
	{"goodbye", []string{"goodbye", "وداع", "شكرا", "مع السلامة"}},
}

// matchKeywords classifies free text against the fixed vocabulary. Text with
// no recognizable cue comes back as "unknown", still at heuristic confidence.
func matchKeywords(content string) Data {
	lower := strings.ToLower(content)
	for _, rule := range keywordRules {
		for _, cue := range rule.cues {
			if strings.Contains(lower, cue) {
				return Data{
					Intent:     rule.intent,
					Entities:   DefaultEntities(),
					Confidence: heuristicConfidence,
				}
			}
		}
	}
	return Data{
		Intent:     "unknown",
		Entities:   DefaultEntities(),
		Confidence: heuristicConfidence,
	}
}
