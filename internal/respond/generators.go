package respond

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/brain"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/markov"
)

// Candidate labels, in generator priority order.
const (
	LabelMarkov   = "markov"
	LabelTemplate = "template"
	LabelExample  = "example+continuation"
	LabelSummary  = "summary"
	LabelFiller   = "filler"
)

// continuationTokens bounds the short walk appended to an example.
const continuationTokens = 12

// summaryKeywords caps how many keywords the summary sentence lists.
const summaryKeywords = 5

// markovCandidate walks the chain seeded from the prompt's trailing
// tokens, falling back inside Continue to a random sentence start.
func markovCandidate(m *markov.Model, prompt string, maxTokens int, rng *rand.Rand) string {
	return markov.JoinTokens(m.Continue(markov.Tokenize(prompt), maxTokens, rng))
}

// templateCandidate assembles two or three short sentences from the
// intent's keywords merged with the global ones, in fixed placement
// order. Empty when the merged set is empty.
func templateCandidate(b *brain.Brain, intent string) string {
	words := b.MergedKeywords(intent)
	if len(words) == 0 {
		return ""
	}

	sentences := []string{fmt.Sprintf("Let's talk about %s.", words[0])}
	switch {
	case len(words) >= 3:
		sentences = append(sentences, fmt.Sprintf("It often comes down to %s and %s.", words[1], words[2]))
	case len(words) == 2:
		sentences = append(sentences, fmt.Sprintf("It often comes down to %s.", words[1]))
	default:
		sentences = append(sentences, "Ask me anything about it.")
	}
	if len(words) >= 4 {
		sentences = append(sentences, fmt.Sprintf("People also bring up %s.", words[3]))
	}
	return strings.Join(sentences, " ")
}

// exampleCandidate picks one of the intent's example utterances and
// appends a short continuation seeded from the example plus the prompt.
// Empty when the intent has no examples.
func exampleCandidate(b *brain.Brain, m *markov.Model, intent, prompt string, rng *rand.Rand) string {
	it, ok := b.Intents[intent]
	if !ok || len(it.Examples) == 0 {
		return ""
	}
	example := it.Examples[rng.Intn(len(it.Examples))]

	seed := markov.Tokenize(example + " " + prompt)
	if cont := m.Continue(seed, continuationTokens, rng); len(cont) > 0 {
		return example + "\n" + markov.JoinTokens(cont)
	}
	return example
}

// summaryCandidate renders the intent's top keywords as a fixed
// sentence. Empty when the intent has no keywords of its own.
func summaryCandidate(b *brain.Brain, intent string) string {
	it, ok := b.Intents[intent]
	if !ok || len(it.Keywords) == 0 {
		return ""
	}
	top := it.Keywords
	if len(top) > summaryKeywords {
		top = top[:summaryKeywords]
	}
	return "Key points: " + strings.Join(top, ", ") + "."
}

// fillerVariant derives alternate prompts for topping the candidate set
// up to four entries with extra markov walks.
func fillerVariant(prompt, intent string, attempt int) string {
	switch attempt % 4 {
	case 0:
		return prompt
	case 1:
		return intent + " " + prompt
	case 2:
		return "tell me about " + prompt
	default:
		return ""
	}
}
