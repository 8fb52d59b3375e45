package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/brain"
)

func TestLintBrain(t *testing.T) {
	t.Run("clean corpus has no warnings", func(t *testing.T) {
		b, err := brain.Parse([]byte(`{
			"intents": {
				"greet": {
					"triggers": ["hello"],
					"keywords": ["hi"],
					"examples": ["hello there friend"]
				}
			}
		}`))
		require.NoError(t, err)

		assert.Empty(t, lintBrain(b))
	})

	t.Run("empty corpus", func(t *testing.T) {
		b, err := brain.Parse([]byte(`{}`))
		require.NoError(t, err)

		warnings := lintBrain(b)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "no intents")
	})

	t.Run("untrainable and unreachable intents", func(t *testing.T) {
		b, err := brain.Parse([]byte(`{
			"intents": {
				"hollow": {"triggers": ["x"]},
				"hidden": {"examples": ["some example text"]}
			}
		}`))
		require.NoError(t, err)

		warnings := lintBrain(b)
		require.Len(t, warnings, 2)
		assert.Contains(t, warnings[0], `"hidden" has no triggers or keywords`)
		assert.Contains(t, warnings[1], `"hollow" has no examples or responses`)
	})

	t.Run("empty trigger", func(t *testing.T) {
		b, err := brain.Parse([]byte(`{
			"intents": {
				"greet": {
					"triggers": ["hello", "  "],
					"keywords": ["hi"],
					"examples": ["hello there friend"]
				}
			}
		}`))
		require.NoError(t, err)

		warnings := lintBrain(b)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "empty trigger")
	})
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "short reply", firstLine("short reply"))
	assert.Equal(t, "first", firstLine("first\nsecond\nthird"))

	long := strings.Repeat("a", 100)
	got := firstLine(long)
	assert.Len(t, got, 80)
	assert.True(t, strings.HasSuffix(got, "..."))
}
