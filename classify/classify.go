// Package classify decides which completion backend answers a user message.
// Classification is a pluggable strategy so the heuristic can evolve without
// touching callers.
package classify

import (
	"regexp"
	"strings"
)

// Tier selects a completion backend.
type Tier string

const (
	// TierFast routes to the low-latency backend for trivially simple intents.
	TierFast Tier = "fast"
	// TierDeep routes to the higher-quality reasoning backend.
	TierDeep Tier = "deep"
)

// Classifier picks a backend tier for a user message. Implementations must be
// deterministic and side-effect free; they never return an error.
type Classifier interface {
	// Classify returns the tier for text. When forceDeep is set the result
	// is always TierDeep regardless of text.
	Classify(text string, forceDeep bool) Tier
}

// PatternClassifier matches text against a curated set of trivially simple
// intent patterns: greetings, acknowledgements, and single-toggle settings
// phrases, in English and Arabic. Any match returns TierFast; no match
// returns TierDeep.
//
// Accepted failure mode: a complex message that happens to match a simple
// pattern is answered by the fast backend, which only degrades answer
// quality. It never breaks correctness, so the pattern set errs toward
// matching.
type PatternClassifier struct {
	patterns []*regexp.Regexp
}

var simplePatterns = []*regexp.Regexp{
	// Greetings and acknowledgements.
	regexp.MustCompile(`(?i)^(hi|hello|hey|good (morning|afternoon|evening))[!. ]*$`),
	regexp.MustCompile(`(?i)^(thanks|thank you|ok(ay)?|got it|great|perfect)[!. ]*$`),
	regexp.MustCompile(`^(مرحبا|اهلا|أهلا|السلام عليكم)`),
	regexp.MustCompile(`^(شكرا|شكراً|تمام|ممتاز|حسنا|حسناً)`),
	// Single-toggle settings phrases.
	regexp.MustCompile(`(?i)^(turn|switch) (on|off) .{0,40}$`),
	regexp.MustCompile(`(?i)^(enable|disable) [\p{L} ]{1,40}$`),
	regexp.MustCompile(`(?i)^(change|set) .{0,20}(colou?r|theme|لون).{0,30}$`),
	regexp.MustCompile(`^(غير|غيّر|فعل|فعّل|عطل|عطّل) .{0,50}$`),
}

// NewPatternClassifier creates a PatternClassifier with the built-in pattern
// set.
func NewPatternClassifier() *PatternClassifier {
	return &PatternClassifier{patterns: simplePatterns}
}

func (c *PatternClassifier) Classify(text string, forceDeep bool) Tier {
	if forceDeep {
		return TierDeep
	}

	trimmed := strings.TrimSpace(text)
	for _, p := range c.patterns {
		if p.MatchString(trimmed) {
			return TierFast
		}
	}
	return TierDeep
}
