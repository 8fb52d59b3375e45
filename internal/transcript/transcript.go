// Package transcript provides a SQLite log of generated exchanges.
// Generation never reads it back; it only feeds the stats surface and
// the history command.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Exchange is one prompt/reply pair as served.
type Exchange struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Prompt     string    `json:"prompt"`
	Intent     string    `json:"intent"`
	Reply      string    `json:"reply"`
	Label      string    `json:"label"`
	Score      float64   `json:"score"`
	DurationMs int64     `json:"duration_ms"`
}

// Stats summarizes the logged exchanges.
type Stats struct {
	Total         int64            `json:"total"`
	ByLabel       map[string]int64 `json:"by_label"`
	AvgDurationMs float64          `json:"avg_duration_ms"`
}

// Store writes exchanges to a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the transcript database at the given path.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id          TEXT PRIMARY KEY,
		created_at  TEXT NOT NULL,
		prompt      TEXT NOT NULL,
		intent      TEXT NOT NULL,
		reply       TEXT NOT NULL,
		label       TEXT NOT NULL,
		score       REAL NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_label ON exchanges(label);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one exchange. Missing ID and CreatedAt are filled in.
func (s *Store) Record(ctx context.Context, e Exchange) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, created_at, prompt, intent, reply, label, score, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.Format(time.RFC3339Nano), e.Prompt, e.Intent, e.Reply, e.Label, e.Score, e.DurationMs)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// Recent returns the newest exchanges, most recent first. Insertion
// order is the recency order; rowid avoids comparing formatted
// timestamps, which do not sort lexicographically at full precision.
func (s *Store) Recent(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, prompt, intent, reply, label, score, duration_ms
		 FROM exchanges ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanExchange(rows *sql.Rows) (Exchange, error) {
	var e Exchange
	var created string
	if err := rows.Scan(&e.ID, &created, &e.Prompt, &e.Intent, &e.Reply, &e.Label, &e.Score, &e.DurationMs); err != nil {
		return Exchange{}, fmt.Errorf("scan exchange: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Exchange{}, fmt.Errorf("parse created_at: %w", err)
	}
	e.CreatedAt = ts
	return e, nil
}

// Totals returns counts and the average duration across all exchanges.
func (s *Store) Totals(ctx context.Context) (Stats, error) {
	stats := Stats{ByLabel: make(map[string]int64)}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(duration_ms), 0) FROM exchanges`)
	if err := row.Scan(&stats.Total, &stats.AvgDurationMs); err != nil {
		return stats, fmt.Errorf("count exchanges: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT label, COUNT(*) FROM exchanges GROUP BY label`)
	if err != nil {
		return stats, fmt.Errorf("count by label: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return stats, fmt.Errorf("scan label count: %w", err)
		}
		stats.ByLabel[label] = n
	}
	return stats, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
