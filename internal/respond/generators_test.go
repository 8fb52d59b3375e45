package respond

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/brain"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/markov"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroSource makes rand deterministic: Intn always picks the first
// element and Float64 always returns 0.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func zeroRand() *rand.Rand {
	return rand.New(zeroSource{})
}

func TestMarkovCandidate(t *testing.T) {
	b := testBrain(t)
	m := markov.Build(b)

	// Unknown context falls back to the first sorted start key.
	got := markovCandidate(m, "hello", 40, zeroRand())
	assert.Equal(t, "there friend", got)

	// A known two-token context is continued in place.
	got = markovCandidate(m, "hello there", 40, zeroRand())
	assert.Equal(t, "friend", got)

	// The budget caps emitted tokens.
	got = markovCandidate(m, "hello", 1, zeroRand())
	assert.Equal(t, "there", got)
}

func TestTemplateCandidate(t *testing.T) {
	b := testBrain(t)

	got := templateCandidate(b, "solving")
	assert.Equal(t, "Let's talk about solve. It often comes down to cube and algorithm. People also bring up rubik.", got)

	// Unknown intents still draw on the global keywords.
	got = templateCandidate(b, "nonexistent")
	assert.Equal(t, "Let's talk about rubik. It often comes down to puzzle.", got)
}

func TestTemplateCandidateNoKeywords(t *testing.T) {
	b, err := brain.Parse([]byte(`{"intents": {"bare": {"examples": ["just words"]}}}`))
	require.NoError(t, err)

	assert.Empty(t, templateCandidate(b, "bare"))
}

func TestExampleCandidate(t *testing.T) {
	b := testBrain(t)
	m := markov.Build(b)

	// The example's own tail is a known context that leads straight to
	// the end sentinel, so no continuation is appended.
	got := exampleCandidate(b, m, "greeting", "", zeroRand())
	assert.Equal(t, "hello there friend", got)

	// A prompt suffix breaks the known context; the walk restarts from a
	// sentence start and the continuation lands on its own line.
	got = exampleCandidate(b, m, "greeting", "hi", zeroRand())
	assert.Equal(t, "hello there friend\nthere friend", got)

	assert.Empty(t, exampleCandidate(b, m, "fallback", "hi", zeroRand()))
}

func TestExampleCandidatePicksFromExamples(t *testing.T) {
	b := testBrain(t)
	m := markov.Build(b)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 30; i++ {
		got := exampleCandidate(b, m, "solving", "stuck on the last layer", rng)
		require.NotEmpty(t, got)
		first := strings.SplitN(got, "\n", 2)[0]
		assert.Contains(t, b.Intents["solving"].Examples, first)
	}
}

func TestSummaryCandidate(t *testing.T) {
	b := testBrain(t)

	assert.Equal(t, "Key points: solve, cube, algorithm.", summaryCandidate(b, "solving"))
	assert.Empty(t, summaryCandidate(b, "nonexistent"))
}

func TestSummaryCandidateCapsKeywords(t *testing.T) {
	b, err := brain.Parse([]byte(`{"intents": {"big": {"keywords": ["a", "b", "c", "d", "e", "f", "g"]}}}`))
	require.NoError(t, err)

	assert.Equal(t, "Key points: a, b, c, d, e.", summaryCandidate(b, "big"))
}

func TestFillerVariant(t *testing.T) {
	assert.Equal(t, "hi", fillerVariant("hi", "greeting", 0))
	assert.Equal(t, "greeting hi", fillerVariant("hi", "greeting", 1))
	assert.Equal(t, "tell me about hi", fillerVariant("hi", "greeting", 2))
	assert.Empty(t, fillerVariant("hi", "greeting", 3))
	assert.Equal(t, "hi", fillerVariant("hi", "greeting", 4))
}
