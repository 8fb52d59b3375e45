package brain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		data := []byte(`{
			"intents": {
				"greet": {
					"triggers": ["hello", "hi there"],
					"keywords": ["greeting"],
					"examples": ["hello there friend", "hello there world"],
					"responses": ["hi!"]
				}
			},
			"keywords_global": {"general": ["cube", "bot"]}
		}`)

		b, err := Parse(data)
		require.NoError(t, err)
		require.Len(t, b.Intents, 1)
		assert.Equal(t, []string{"hello", "hi there"}, b.Intents["greet"].Triggers)
		assert.Equal(t, []string{"cube", "bot"}, b.GlobalKeywords["general"])
	})

	t.Run("wrapped under brain key", func(t *testing.T) {
		data := []byte(`{"brain": {"intents": {"bye": {"examples": ["see you later"]}}}}`)

		b, err := Parse(data)
		require.NoError(t, err)
		require.Contains(t, b.Intents, "bye")
		assert.Equal(t, []string{"see you later"}, b.Intents["bye"].Examples)
	})

	t.Run("missing fields default to empty", func(t *testing.T) {
		b, err := Parse([]byte(`{}`))
		require.NoError(t, err)
		assert.NotNil(t, b.Intents)
		assert.NotNil(t, b.GlobalKeywords)
		assert.True(t, b.Empty())
	})

	t.Run("intent with no fields is valid", func(t *testing.T) {
		b, err := Parse([]byte(`{"intents": {"quiet": {}}}`))
		require.NoError(t, err)
		it := b.Intents["quiet"]
		assert.Empty(t, it.Triggers)
		assert.Empty(t, it.Examples)
		assert.False(t, b.Empty())
	})

	t.Run("unknown sibling keys ignored", func(t *testing.T) {
		b, err := Parse([]byte(`{"version": 3, "intents": {"a": {"keywords": ["x"]}}}`))
		require.NoError(t, err)
		assert.Contains(t, b.Intents, "a")
	})
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty input", ""},
		{"whitespace only", "   \n\t"},
		{"truncated object", `{"intents": {`},
		{"array document", `[1, 2, 3]`},
		{"string document", `"hello"`},
		{"null document", `null`},
		{"wrong intent shape", `{"intents": {"a": {"triggers": "not-a-list"}}}`},
		{"empty intent name", `{"intents": {"": {"keywords": ["x"]}}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Parse([]byte(tc.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "want ErrMalformed, got %v", err)
			assert.Nil(t, b)
		})
	}
}

func TestIntentNames(t *testing.T) {
	b := &Brain{Intents: map[string]Intent{
		"zeta":  {},
		"alpha": {},
		"mid":   {},
	}}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, b.IntentNames())
}

func TestMergedKeywords(t *testing.T) {
	b := &Brain{
		Intents: map[string]Intent{
			"topic": {Keywords: []string{"cube", "solve"}},
		},
		GlobalKeywords: map[string][]string{
			"b-cat": {"solve", "puzzle"},
			"a-cat": {"speed"},
		},
	}

	// Intent keywords first, then globals in sorted category order, deduped.
	assert.Equal(t, []string{"cube", "solve", "speed", "puzzle"}, b.MergedKeywords("topic"))

	// Unknown intent still yields the globals.
	assert.Equal(t, []string{"speed", "solve", "puzzle"}, b.MergedKeywords("nope"))
}
