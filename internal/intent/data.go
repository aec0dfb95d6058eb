package intent

// Entities maps an entity category to the ordered values extracted from the
// customer's text. Quantities are numbers; everything else is a string.
type Entities map[string][]any

// Clone returns an independent copy safe to hand to callers.
func (e Entities) Clone() Entities {
	if e == nil {
		return nil
	}
	out := make(Entities, len(e))
	for k, v := range e {
		vals := make([]any, len(v))
		copy(vals, v)
		out[k] = vals
	}
	return out
}

// DefaultEntities returns the empty entity categories the classifier always
// populates.
func DefaultEntities() Entities {
	return Entities{
		"food_items": {},
		"quantities": {},
		"other":      {},
	}
}

// Data is the result of classifying one customer utterance.
type Data struct {
	Intent     string   `json:"intent"`
	Entities   Entities `json:"entities"`
	Confidence float64  `json:"confidence"`
}

// Default is the well-defined fallback returned whenever classification cannot
// produce a valid result. It is a value, never an error.
func Default() Data {
	return Data{
		Intent:     "unknown",
		Entities:   DefaultEntities(),
		Confidence: 0,
	}
}
