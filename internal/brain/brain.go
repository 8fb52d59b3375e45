// Package brain defines the corpus data model and loader.
package brain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformed indicates the corpus document could not be parsed.
// Use errors.Is() to check for it in calling code; a reload that hits
// this error must keep serving the previous snapshot.
var ErrMalformed = errors.New("malformed corpus")

// Intent is one conversational topic.
type Intent struct {
	// Triggers are substring phrases that strongly indicate this intent.
	Triggers []string `json:"triggers,omitempty"`
	// Keywords are topic words used for intent scoring and template generation.
	Keywords []string `json:"keywords,omitempty"`
	// Examples are full utterances used to train the model and seed generation.
	Examples []string `json:"examples,omitempty"`
	// Responses are canned utterances, used as training fallback when
	// Examples is empty.
	Responses []string `json:"responses,omitempty"`
}

// Brain is the parsed knowledge base.
type Brain struct {
	Intents        map[string]Intent   `json:"intents"`
	GlobalKeywords map[string][]string `json:"keywords_global,omitempty"`
}

// document is the accepted wire shape: either the brain fields at the top
// level, or the same object wrapped under a "brain" key.
type document struct {
	Brain          *Brain              `json:"brain,omitempty"`
	Intents        map[string]Intent   `json:"intents,omitempty"`
	GlobalKeywords map[string][]string `json:"keywords_global,omitempty"`
}

// Parse converts raw corpus bytes into a Brain. Missing maps and arrays
// default to empty; a structurally valid but empty document yields an
// empty Brain, not an error. Pure transform: no I/O.
func Parse(data []byte) (*Brain, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: document is not an object", ErrMalformed)
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	b := &Brain{
		Intents:        doc.Intents,
		GlobalKeywords: doc.GlobalKeywords,
	}
	if doc.Brain != nil {
		b = doc.Brain
	}

	if b.Intents == nil {
		b.Intents = map[string]Intent{}
	}
	if b.GlobalKeywords == nil {
		b.GlobalKeywords = map[string][]string{}
	}

	for name := range b.Intents {
		if name == "" {
			return nil, fmt.Errorf("%w: empty intent name", ErrMalformed)
		}
	}

	return b, nil
}

// Empty reports whether the brain has no intents at all.
func (b *Brain) Empty() bool {
	return b == nil || len(b.Intents) == 0
}

// IntentNames returns all intent names in sorted order. Iteration over
// the intents map must always go through this to keep scoring and
// training deterministic.
func (b *Brain) IntentNames() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.Intents))
	for name := range b.Intents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllGlobalKeywords flattens the global keyword categories in sorted
// category order, preserving each category's keyword order.
func (b *Brain) AllGlobalKeywords() []string {
	if b == nil || len(b.GlobalKeywords) == 0 {
		return nil
	}
	categories := make([]string, 0, len(b.GlobalKeywords))
	for cat := range b.GlobalKeywords {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var out []string
	for _, cat := range categories {
		out = append(out, b.GlobalKeywords[cat]...)
	}
	return out
}

// MergedKeywords returns the named intent's keywords followed by all
// global keywords, with duplicates removed while preserving order.
func (b *Brain) MergedKeywords(intent string) []string {
	if b == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	add := func(words []string) {
		for _, w := range words {
			if w == "" {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	if it, ok := b.Intents[intent]; ok {
		add(it.Keywords)
	}
	add(b.AllGlobalKeywords())
	return out
}
