// Package respond implements the generation pipeline: intent detection,
// multi-candidate generation, and heuristic candidate scoring over the
// current model snapshot.
package respond

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/metrics"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/store"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/transcript"
)

// NoDataReply is served whenever the model has nothing to generate
// from. It is a fixed string, not an error condition.
const NoDataReply = "I don't have anything to work with yet. Load a corpus and ask me again."

// ErrGeneration indicates an unexpected internal fault during
// generation. Use errors.Is() to check for it in calling code.
var ErrGeneration = errors.New("generation failure")

const (
	// candidateTarget is how many candidates each request aims for.
	candidateTarget = 4
	// fillerAttempts bounds the top-up loop for degenerate models whose
	// walks keep coming back empty.
	fillerAttempts = 12
)

// Candidate is one generation attempt with its ranking score.
type Candidate struct {
	Label string  `json:"label"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Result is the full outcome of one generation request.
type Result struct {
	Intent      string      `json:"intent"`
	Candidates  []Candidate `json:"candidates"`
	ChosenIndex int         `json:"chosenIndex"`
	Chosen      string      `json:"chosen"`
}

// Config bundles the responder's tunables and optional collaborators.
type Config struct {
	// DefaultMaxTokens is used when a request passes no budget.
	DefaultMaxTokens int
	// TokenCap is the hard per-request budget ceiling.
	TokenCap int

	Metrics *metrics.Collector
	History *transcript.Store
	Logger  *slog.Logger
}

// Responder generates replies from the store's current snapshot.
type Responder struct {
	store  *store.Store
	cfg    Config
	newRNG func() *rand.Rand
}

// New creates a responder. Metrics and History may be nil.
func New(st *store.Store, cfg Config) *Responder {
	if cfg.DefaultMaxTokens <= 0 {
		cfg.DefaultMaxTokens = 40
	}
	if cfg.TokenCap <= 0 {
		cfg.TokenCap = 200
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Responder{
		store: st,
		cfg:   cfg,
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// WithRNG overrides the per-request randomness source. Tests use this
// to make generation deterministic.
func (r *Responder) WithRNG(fn func() *rand.Rand) *Responder {
	r.newRNG = fn
	return r
}

// Generate produces the best reply for a prompt. maxTokens <= 0 selects
// the configured default; requests above the cap are clamped. Internal
// faults surface as a wrapped ErrGeneration, never a panic.
func (r *Responder) Generate(ctx context.Context, prompt string, maxTokens int) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrGeneration, p)
		}
	}()

	start := time.Now()
	if maxTokens <= 0 {
		maxTokens = r.cfg.DefaultMaxTokens
	}
	if maxTokens > r.cfg.TokenCap {
		maxTokens = r.cfg.TokenCap
	}

	snap := r.store.Snapshot()
	rng := r.newRNG()

	intent, intentScore := DetectIntent(snap.Brain, prompt)

	cands := make([]Candidate, 0, candidateTarget)
	add := func(label, text string) {
		if strings.TrimSpace(text) != "" {
			cands = append(cands, Candidate{Label: label, Text: text})
		}
	}

	if !snap.Model.Empty() {
		add(LabelMarkov, markovCandidate(snap.Model, prompt, maxTokens, rng))
		add(LabelTemplate, templateCandidate(snap.Brain, intent))
		add(LabelExample, exampleCandidate(snap.Brain, snap.Model, intent, prompt, rng))
		add(LabelSummary, summaryCandidate(snap.Brain, intent))

		for attempt := 0; len(cands) < candidateTarget && attempt < fillerAttempts; attempt++ {
			add(LabelFiller, markovCandidate(snap.Model, fillerVariant(prompt, intent, attempt), maxTokens, rng))
		}
	}

	if len(cands) == 0 {
		res = &Result{
			Intent:      FallbackIntent,
			Candidates:  []Candidate{},
			ChosenIndex: -1,
			Chosen:      NoDataReply,
		}
		r.record(ctx, prompt, res, time.Since(start))
		return res, nil
	}

	chosen := scoreCandidates(snap.Brain, intent, prompt, cands, rng)
	res = &Result{
		Intent:      intent,
		Candidates:  cands,
		ChosenIndex: chosen,
		Chosen:      cands[chosen].Text,
	}

	duration := time.Since(start)
	r.record(ctx, prompt, res, duration)
	r.cfg.Logger.Debug("generated reply",
		"intent", intent,
		"intent_score", intentScore,
		"candidates", len(cands),
		"chosen", cands[chosen].Label,
		"duration_ms", duration.Milliseconds(),
	)
	return res, nil
}

// record updates metrics and the transcript log; both are best effort.
func (r *Responder) record(ctx context.Context, prompt string, res *Result, duration time.Duration) {
	label := "none"
	score := 0.0
	if res.ChosenIndex >= 0 {
		label = res.Candidates[res.ChosenIndex].Label
		score = res.Candidates[res.ChosenIndex].Score
	}

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.RecordTiming(metrics.OpGenerate, duration)
		if res.ChosenIndex >= 0 {
			r.cfg.Metrics.RecordWin(label)
		}
	}
	if r.cfg.History != nil {
		err := r.cfg.History.Record(ctx, transcript.Exchange{
			Prompt:     prompt,
			Intent:     res.Intent,
			Reply:      res.Chosen,
			Label:      label,
			Score:      score,
			DurationMs: duration.Milliseconds(),
		})
		if err != nil {
			r.cfg.Logger.Warn("failed to record exchange", "error", err)
		}
	}
}
