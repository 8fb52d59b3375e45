package respond

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/metrics"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/store"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, corpus string) *store.Store {
	t.Helper()
	st := store.New()
	require.NoError(t, st.Reload([]byte(corpus)))
	return st
}

func seededRNG(seed int64) func() *rand.Rand {
	return func() *rand.Rand {
		return rand.New(rand.NewSource(seed))
	}
}

func TestGenerateChoosesFromCandidates(t *testing.T) {
	st := testStore(t, testCorpus)
	r := New(st, Config{}).WithRNG(seededRNG(42))

	res, err := r.Generate(context.Background(), "how do i solve the cube", 0)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "solving", res.Intent)
	require.Len(t, res.Candidates, candidateTarget)
	require.GreaterOrEqual(t, res.ChosenIndex, 0)
	require.Less(t, res.ChosenIndex, len(res.Candidates))
	assert.Equal(t, res.Candidates[res.ChosenIndex].Text, res.Chosen)

	var labels []string
	for _, c := range res.Candidates {
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{LabelMarkov, LabelTemplate, LabelExample, LabelSummary}, labels)
}

func TestGenerateEmptyCorpusReturnsNoData(t *testing.T) {
	r := New(store.New(), Config{})

	res, err := r.Generate(context.Background(), "anything at all", 0)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, FallbackIntent, res.Intent)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, -1, res.ChosenIndex)
	assert.Equal(t, NoDataReply, res.Chosen)
}

// A model whose every walk dies immediately and whose intents have no
// examples cannot produce a single candidate; the filler loop must give
// up and fall through to the no-data reply instead of spinning.
func TestGenerateDegenerateModelReturnsNoData(t *testing.T) {
	st := testStore(t, `{"intents": {"tiny": {"responses": ["ok"]}}}`)
	r := New(st, Config{}).WithRNG(seededRNG(1))

	res, err := r.Generate(context.Background(), "hi", 0)
	require.NoError(t, err)
	assert.Equal(t, FallbackIntent, res.Intent)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, NoDataReply, res.Chosen)
}

// Single-token examples produce empty walks, but the example generator
// still surfaces the utterance itself.
func TestGenerateBareExampleSurvives(t *testing.T) {
	st := testStore(t, `{"intents": {"tiny": {"keywords": ["hello"], "examples": ["hello"]}}}`)
	r := New(st, Config{}).WithRNG(seededRNG(1))

	res, err := r.Generate(context.Background(), "hello", 0)
	require.NoError(t, err)
	require.NotEmpty(t, res.Candidates)
	assert.Equal(t, res.Candidates[res.ChosenIndex].Text, res.Chosen)
	for _, c := range res.Candidates {
		assert.NotEqual(t, LabelMarkov, c.Label)
	}
}

func TestGenerateDeterministicWithSeededRNG(t *testing.T) {
	st := testStore(t, testCorpus)
	r := New(st, Config{}).WithRNG(seededRNG(7))

	first, err := r.Generate(context.Background(), "hello there", 0)
	require.NoError(t, err)
	second, err := r.Generate(context.Background(), "hello there", 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateUnknownPromptFallsBack(t *testing.T) {
	st := testStore(t, testCorpus)
	r := New(st, Config{}).WithRNG(seededRNG(11))

	for i := 0; i < 20; i++ {
		res, err := r.Generate(context.Background(), "qqq zzz", 0)
		require.NoError(t, err)
		assert.Equal(t, FallbackIntent, res.Intent)
		assert.NotEmpty(t, res.Candidates)
	}
}

func TestGenerateTokenBudget(t *testing.T) {
	st := testStore(t, testCorpus)
	r := New(st, Config{}).WithRNG(func() *rand.Rand { return zeroRand() })

	res, err := r.Generate(context.Background(), "hello", 1)
	require.NoError(t, err)

	require.Equal(t, LabelMarkov, res.Candidates[0].Label)
	assert.Len(t, strings.Fields(res.Candidates[0].Text), 1)
}

func TestGenerateRecordsMetricsAndHistory(t *testing.T) {
	collector := metrics.NewCollector()
	history, err := transcript.Open(filepath.Join(t.TempDir(), "transcript.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	st := testStore(t, testCorpus)
	r := New(st, Config{Metrics: collector, History: history}).WithRNG(seededRNG(5))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := r.Generate(ctx, "how do i solve the cube", 0)
		require.NoError(t, err)
	}

	snap := collector.Snapshot()
	require.NotNil(t, snap.Generate)
	assert.Equal(t, int64(3), snap.Generate.Count)

	var wins int64
	for _, n := range snap.GeneratorWins {
		wins += n
	}
	assert.Equal(t, int64(3), wins)

	stats, err := history.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)

	recent, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "how do i solve the cube", recent[0].Prompt)
	assert.Equal(t, "solving", recent[0].Intent)
}
