package respond

import (
	"strings"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/brain"
)

// FallbackIntent is returned when no intent scores above zero. A corpus
// may define its own intent under this name to shape fallback replies.
const FallbackIntent = "fallback"

// Trigger phrases indicate an intent much more strongly than keywords.
const (
	triggerWeight       = 5
	keywordWeight       = 2
	globalKeywordWeight = 1
)

// DetectIntent scores every intent against the lower-cased prompt and
// returns the best-scoring name with its score. Intents are visited in
// sorted name order, so ties resolve to the lexicographically first
// intent on every call.
func DetectIntent(b *brain.Brain, prompt string) (string, int) {
	lower := strings.ToLower(prompt)

	// The global keyword signal is independent of any single intent; it
	// contributes the same amount to every score.
	globalScore := 0
	for _, kw := range b.AllGlobalKeywords() {
		if containsPhrase(lower, kw) {
			globalScore += globalKeywordWeight
		}
	}

	best := FallbackIntent
	bestScore := 0
	for _, name := range b.IntentNames() {
		intent := b.Intents[name]
		score := globalScore
		for _, trig := range intent.Triggers {
			if containsPhrase(lower, trig) {
				score += triggerWeight
			}
		}
		for _, kw := range intent.Keywords {
			if containsPhrase(lower, kw) {
				score += keywordWeight
			}
		}
		if score > bestScore {
			best = name
			bestScore = score
		}
	}
	return best, bestScore
}

func containsPhrase(lowerPrompt, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(lowerPrompt, strings.ToLower(phrase))
}
