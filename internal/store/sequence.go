package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// sequence hands out one increasing number shared by every event table, so
// rows written together (a practice attempt, its concept attempts and the
// session end event) keep their relative order across tables.
//
// The counter lives in a single-row table. RETURNING makes each increment
// atomic in both SQLite and Postgres; the mutex keeps callers in this
// process from racing on the same row.
type sequence struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequence(ctx context.Context, db *sql.DB) (*sequence, error) {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS event_sequence (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			next_val BIGINT NOT NULL
		)`,
		`INSERT INTO event_sequence (id, next_val) VALUES (1, 1) ON CONFLICT (id) DO NOTHING`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("init event sequence: %w", err)
		}
	}
	return &sequence{db: db}, nil
}

// Next returns the next number.
func (s *sequence) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	row := s.db.QueryRowContext(ctx, `UPDATE event_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
