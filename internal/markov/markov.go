// Package markov builds and walks the order-2 transition model trained
// from corpus examples.
package markov

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/brain"
)

const (
	// Order is the fixed context window length.
	Order = 2

	// Sep joins context tokens into a transition key. The unit separator
	// byte cannot appear inside whitespace-split tokens, so joined keys
	// never collide with natural text.
	Sep = "\x1f"

	// Start and End bound every training sequence.
	Start = "^START"
	End   = "^END"
)

// Model is the transition table: a context key of Order tokens maps to
// the tokens observed to follow it. Duplicates are retained so that a
// uniform pick is frequency weighted. Models are immutable once built;
// reloads build a fresh one.
type Model struct {
	Order       int
	Transitions map[string][]string
}

// Tokenize splits text on runs of whitespace, dropping empties. Case is
// preserved.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// Key joins context tokens into a transition-map key.
func Key(tokens []string) string {
	return strings.Join(tokens, Sep)
}

// Build compiles a Brain into a fresh Model. Every intent's examples
// train the model; responses train only for intents with no examples.
// Sequences too short to produce a transition are skipped silently.
func Build(b *brain.Brain) *Model {
	m := &Model{
		Order:       Order,
		Transitions: make(map[string][]string),
	}
	if b == nil {
		return m
	}
	for _, name := range b.IntentNames() {
		intent := b.Intents[name]
		texts := intent.Examples
		if len(texts) == 0 {
			texts = intent.Responses
		}
		for _, text := range texts {
			m.train(Tokenize(text))
		}
	}
	return m
}

func (m *Model) train(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	seq := make([]string, 0, len(tokens)+2)
	seq = append(seq, Start)
	seq = append(seq, tokens...)
	seq = append(seq, End)

	for i := 0; i+m.Order < len(seq); i++ {
		key := Key(seq[i : i+m.Order])
		m.Transitions[key] = append(m.Transitions[key], seq[i+m.Order])
	}
}

// Empty reports whether the model has no transitions at all.
func (m *Model) Empty() bool {
	return m == nil || len(m.Transitions) == 0
}

// StartKeys returns all context keys whose first token is the Start
// sentinel, sorted for deterministic iteration.
func (m *Model) StartKeys() []string {
	if m == nil {
		return nil
	}
	prefix := Start + Sep
	var keys []string
	for key := range m.Transitions {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Continue walks the chain from the given seed and returns the emitted
// tokens. If the seed's last Order tokens form a known context it is
// used as-is; otherwise the walk starts from a random Start-prefixed
// context. The walk stops on the End sentinel or once maxTokens have
// been emitted. Returns nil when the model is empty.
func (m *Model) Continue(seed []string, maxTokens int, rng *rand.Rand) []string {
	if m.Empty() || maxTokens <= 0 {
		return nil
	}

	var window []string
	if len(seed) >= m.Order {
		tail := seed[len(seed)-m.Order:]
		if _, ok := m.Transitions[Key(tail)]; ok {
			window = append(window, tail...)
		}
	}
	if window == nil {
		starts := m.StartKeys()
		if len(starts) == 0 {
			return nil
		}
		window = strings.Split(starts[rng.Intn(len(starts))], Sep)
	}

	out := make([]string, 0, maxTokens)
	for len(out) < maxTokens {
		nexts := m.Transitions[Key(window)]
		if len(nexts) == 0 {
			break
		}
		next := nexts[rng.Intn(len(nexts))]
		if next == End {
			break
		}
		out = append(out, next)
		window = append(window[1:], next)
	}
	return out
}

// JoinTokens renders generated tokens as a sentence, collapsing the
// space the tokenizer left before trailing punctuation.
func JoinTokens(tokens []string) string {
	s := strings.Join(tokens, " ")
	for _, p := range []string{".", ",", "!", "?", ";", ":"} {
		s = strings.ReplaceAll(s, " "+p, p)
	}
	return strings.TrimSpace(s)
}
