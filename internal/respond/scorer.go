package respond

import (
	"math/rand"
	"strings"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/brain"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/markov"
)

// Scoring weights. Jitter stays strictly below the novelty weight so it
// can only break ties between substantively equal candidates, never let
// a prompt echo outrank a novel reply.
const (
	overlapWeight = 2.0
	lengthWeight  = 1.5
	noveltyWeight = 1.0
	jitterBound   = 0.2
)

// scoreCandidates fills in each candidate's score and returns the index
// of the winner. Candidates arrive in generator priority order and a later
// candidate must strictly beat the incumbent, so exact ties keep the
// higher-priority generator.
func scoreCandidates(b *brain.Brain, intent, prompt string, cands []Candidate, rng *rand.Rand) int {
	keywords := b.MergedKeywords(intent)
	trimmed := strings.TrimSpace(prompt)

	best := 0
	for i := range cands {
		cands[i].Score = scoreText(cands[i].Text, keywords, trimmed, rng)
		if cands[i].Score > cands[best].Score {
			best = i
		}
	}
	return best
}

func scoreText(text string, keywords []string, trimmedPrompt string, rng *rand.Rand) float64 {
	words := markov.Tokenize(text)

	tokens := make(map[string]struct{}, len(words))
	for _, w := range words {
		tokens[strings.ToLower(w)] = struct{}{}
	}
	overlap := 0
	for _, kw := range keywords {
		if _, ok := tokens[strings.ToLower(kw)]; ok {
			overlap++
		}
	}

	length := clamp((float64(len(words))-6)/20, 0, 1)

	novelty := 0.0
	if !strings.Contains(text, trimmedPrompt) {
		novelty = 1.0
	}

	return overlapWeight*float64(overlap) +
		lengthWeight*length +
		noveltyWeight*novelty +
		rng.Float64()*jitterBound
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
