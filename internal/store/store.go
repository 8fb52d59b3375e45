// Package store holds the live (Brain, Model) pair and exposes atomic
// reload semantics to concurrent readers.
package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/brain"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/markov"
)

// Snapshot is an immutable (Brain, Model) pair. Readers keep using the
// snapshot they obtained even if a reload publishes a newer one mid
// request.
type Snapshot struct {
	Brain *brain.Brain
	Model *markov.Model
}

// Info describes the store's reload history for the stats surface.
type Info struct {
	Reloads      int64     `json:"reloads"`
	Failures     int64     `json:"failures"`
	LastLoadedAt time.Time `json:"last_loaded_at"`
	LastError    string    `json:"last_error,omitempty"`
	Intents      int       `json:"intents"`
	Transitions  int       `json:"transitions"`
}

// Store publishes snapshots with a pointer swap, so Snapshot() never
// blocks and never observes a half-built model. Reloads serialize among
// themselves.
type Store struct {
	current atomic.Pointer[Snapshot]

	mu         sync.Mutex
	reloads    int64
	failures   int64
	lastLoaded time.Time
	lastErr    error
}

// New creates a store holding an empty snapshot, so readers always get
// a usable pair even before the first corpus load.
func New() *Store {
	s := &Store{}
	empty, _ := brain.Parse([]byte(`{}`))
	s.current.Store(&Snapshot{
		Brain: empty,
		Model: markov.Build(empty),
	})
	return s
}

// Snapshot returns the live pair without blocking.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Reload parses and builds off to the side, publishing the new snapshot
// only on success. On failure the previous snapshot stays live and the
// error is returned for the caller to log.
func (s *Store) Reload(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := brain.Parse(data)
	if err != nil {
		s.failures++
		s.lastErr = err
		return fmt.Errorf("reload corpus: %w", err)
	}

	s.current.Store(&Snapshot{
		Brain: b,
		Model: markov.Build(b),
	})
	s.reloads++
	s.lastLoaded = time.Now()
	s.lastErr = nil
	return nil
}

// Info returns reload counters plus the live snapshot's sizes.
func (s *Store) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.Snapshot()
	info := Info{
		Reloads:      s.reloads,
		Failures:     s.failures,
		LastLoadedAt: s.lastLoaded,
		Intents:      len(snap.Brain.Intents),
		Transitions:  len(snap.Model.Transitions),
	}
	if s.lastErr != nil {
		info.LastError = s.lastErr.Error()
	}
	return info
}
