package respond

import (
	"testing"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/brain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCorpus = `{
	"intents": {
		"greeting": {
			"triggers": ["hello", "good morning"],
			"keywords": ["hi", "hey"],
			"examples": ["hello there friend"]
		},
		"solving": {
			"triggers": ["how do i solve"],
			"keywords": ["solve", "cube", "algorithm"],
			"examples": ["start with the white cross", "learn the algorithms step by step"]
		}
	},
	"keywords_global": {"general": ["rubik", "puzzle"]}
}`

func testBrain(t *testing.T) *brain.Brain {
	t.Helper()
	b, err := brain.Parse([]byte(testCorpus))
	require.NoError(t, err)
	return b
}

func TestDetectIntentTriggers(t *testing.T) {
	b := testBrain(t)

	name, score := DetectIntent(b, "Hello, anyone around?")
	assert.Equal(t, "greeting", name)
	assert.Equal(t, 5, score)

	// A trigger outweighs two keyword hits (5 > 4).
	name, _ = DetectIntent(b, "how do i solve this thing")
	assert.Equal(t, "solving", name)
}

func TestDetectIntentKeywords(t *testing.T) {
	b := testBrain(t)

	name, score := DetectIntent(b, "my cube needs a new algorithm")
	assert.Equal(t, "solving", name)
	assert.Equal(t, 4, score)
}

func TestDetectIntentGlobalKeywords(t *testing.T) {
	b := testBrain(t)

	// Global keywords contribute the same score to every intent, so the
	// lexicographically first intent wins the tie.
	name, score := DetectIntent(b, "rubik stuff")
	assert.Equal(t, "greeting", name)
	assert.Equal(t, 1, score)

	// They also stack on top of intent-specific matches.
	_, score = DetectIntent(b, "solve the rubik puzzle")
	assert.Equal(t, 2+1+1, score)
}

func TestDetectIntentFallback(t *testing.T) {
	b := testBrain(t)

	for i := 0; i < 20; i++ {
		name, score := DetectIntent(b, "completely unrelated words qqq")
		assert.Equal(t, FallbackIntent, name)
		assert.Equal(t, 0, score)
	}
}

func TestDetectIntentCaseInsensitive(t *testing.T) {
	b := testBrain(t)

	name, _ := DetectIntent(b, "GOOD MORNING")
	assert.Equal(t, "greeting", name)
}

func TestDetectIntentEmptyBrain(t *testing.T) {
	b, err := brain.Parse([]byte(`{}`))
	require.NoError(t, err)

	name, score := DetectIntent(b, "hello")
	assert.Equal(t, FallbackIntent, name)
	assert.Equal(t, 0, score)
}
