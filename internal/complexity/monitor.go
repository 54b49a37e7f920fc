// Package complexity scores query text against a working-memory model.
//
// The monitor extracts three signals from the text (distinct concept tokens,
// relationship markers, abstraction markers), combines them with fixed weights,
// and applies an exponential penalty once the weighted sum exceeds the 7-unit
// working-memory bound. The resulting score drives the overload gate in front
// of the circuit breaker.
package complexity

import (
	"math"
	"strings"
	"unicode"
)

// Category is the qualitative band a score falls into.
type Category string

const (
	CategorySimple   Category = "simple"
	CategoryModerate Category = "moderate"
	CategoryComplex  Category = "complex"
	CategoryOverload Category = "overload"
)

// Signal weights. Relationships and abstractions cost more than plain
// concepts because they force the reader to hold multiple items at once.
const (
	ConceptWeight      = 1.0
	RelationshipWeight = 1.2
	AbstractionWeight  = 1.5
)

const (
	// WorkingMemoryLimit is the 7-item bound past which the penalty applies.
	WorkingMemoryLimit = 7.0

	// PenaltyRate controls how sharply cost grows past the limit:
	// total = base * exp((base - limit) * PenaltyRate).
	PenaltyRate = 0.2

	// minTokenLength filters out articles, pronouns and similar filler.
	minTokenLength = 4
)

// Assessment is the result of scoring one piece of content. It is ephemeral
// and never persisted.
type Assessment struct {
	TotalComplexity   float64  `json:"total_complexity"`
	ConceptCount      int      `json:"concept_count"`
	RelationshipCount int      `json:"relationship_count"`
	AbstractionLevel  int      `json:"abstraction_level"`
	Category          Category `json:"category"`
}

// Overloaded reports whether the score landed in the overload band.
func (a Assessment) Overloaded() bool {
	return a.Category == CategoryOverload
}

// relationshipPhrases are multi-word markers matched as substrings of the
// normalized text, once per occurrence.
var relationshipPhrases = []string{
	"depends on",
	"relates to",
	"related to",
	"leads to",
	"caused by",
	"results in",
	"compared to",
	"linked to",
	"interacts with",
	"derived from",
}

// relationshipTokens are single-word connectives matched as whole tokens so
// that substrings of longer words do not count.
var relationshipTokens = map[string]struct{}{
	"because":   {},
	"therefore": {},
	"however":   {},
	"thus":      {},
	"hence":     {},
	"implies":   {},
	"versus":    {},
}

// abstractionTokens mark abstract rather than concrete subject matter.
var abstractionTokens = map[string]struct{}{
	"abstract":     {},
	"abstraction":  {},
	"concept":      {},
	"conceptual":   {},
	"theory":       {},
	"theoretical":  {},
	"principle":    {},
	"paradigm":     {},
	"framework":    {},
	"philosophy":   {},
	"hypothesis":   {},
	"metaphor":     {},
	"ideology":     {},
	"ontology":     {},
	"epistemology": {},
}

// stopTokens are long enough to pass the length filter but carry no concept
// load of their own.
var stopTokens = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {},
	"will": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"their": {}, "there": {}, "about": {}, "than": {}, "then": {},
	"them": {}, "they": {}, "your": {}, "would": {}, "could": {},
	"should": {}, "been": {}, "being": {}, "does": {}, "only": {},
	"also": {}, "just": {}, "over": {}, "some": {}, "such": {},
	"very": {}, "each": {}, "into": {}, "between": {}, "through": {},
	"please": {}, "tell": {}, "explain": {}, "describe": {},
}

// phraseTokens is every word appearing in a relationship phrase. Tokens in
// this set never count as concepts, so "depends on" contributes to the
// relationship signal only.
var phraseTokens = buildPhraseTokens()

func buildPhraseTokens() map[string]struct{} {
	set := make(map[string]struct{})
	for _, phrase := range relationshipPhrases {
		for _, word := range strings.Fields(phrase) {
			set[word] = struct{}{}
		}
	}
	return set
}

// Monitor computes load scores. It is stateless and safe for concurrent use.
type Monitor struct{}

// NewMonitor returns a Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Assess scores content. It never fails; empty content yields the minimum
// score. Scores outside the explicit bands, including the gaps between them,
// categorize as overload.
func (m *Monitor) Assess(content string) Assessment {
	concepts, relationships, abstractions := extractSignals(strings.ToLower(content))

	base := float64(concepts)*ConceptWeight +
		float64(relationships)*RelationshipWeight +
		float64(abstractions)*AbstractionWeight

	total := base
	if base > WorkingMemoryLimit {
		total = base * math.Exp((base-WorkingMemoryLimit)*PenaltyRate)
	}

	return Assessment{
		TotalComplexity:   total,
		ConceptCount:      concepts,
		RelationshipCount: relationships,
		AbstractionLevel:  abstractions,
		Category:          categorize(total),
	}
}

// extractSignals derives the three raw signals from normalized text. Concepts
// are distinct tokens; relationship and abstraction markers count once per
// occurrence. A token feeds exactly one signal, so a marker never doubles as
// a concept.
func extractSignals(normalized string) (concepts, relationships, abstractions int) {
	for _, phrase := range relationshipPhrases {
		relationships += strings.Count(normalized, phrase)
	}

	seen := make(map[string]struct{})
	for _, token := range strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, ok := relationshipTokens[token]; ok {
			relationships++
			continue
		}
		if _, ok := abstractionTokens[token]; ok {
			abstractions++
			continue
		}
		if len(token) < minTokenLength || !containsLetter(token) {
			continue
		}
		if _, ok := phraseTokens[token]; ok {
			continue
		}
		if _, ok := stopTokens[token]; ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		concepts++
	}
	return concepts, relationships, abstractions
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// categorize maps a score to its band: simple [1,2], moderate [3,5],
// complex [6,7], overload (7,inf). Anything else falls through to overload.
func categorize(total float64) Category {
	switch {
	case total >= 1 && total <= 2:
		return CategorySimple
	case total >= 3 && total <= 5:
		return CategoryModerate
	case total >= 6 && total <= 7:
		return CategoryComplex
	default:
		return CategoryOverload
	}
}
