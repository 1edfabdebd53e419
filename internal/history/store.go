// SPDX-License-Identifier: MIT

// Package history keeps graded attempts in SQLite so learners can see
// their progress per word.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tonecoach/internal/engine"
	"tonecoach/internal/log"
	"tonecoach/internal/tone"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	// recordTimeout bounds writes made from ObserveAttempt.
	recordTimeout = 2 * time.Second
	// timeLayout has fixed width so timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Entry is one stored attempt.
type Entry struct {
	ID           int64
	AttemptID    string
	At           time.Time
	Target       string
	Expected     tone.Tone
	Detected     tone.Tone
	Confidence   float64
	Overall      int
	ToneAccuracy int
	Clarity      int
	Timing       int
	Feedback     []string
}

// TargetSummary aggregates all attempts at one target.
type TargetSummary struct {
	Target   string
	Attempts int
	Best     int
	Average  float64
	Last     time.Time
}

// Store wraps SQLite access for attempt history.
type Store struct {
	db *sql.DB
}

var _ engine.Observer = (*Store)(nil)

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			attempt_id TEXT NOT NULL UNIQUE,
			at TEXT NOT NULL,
			target TEXT NOT NULL,
			expected TEXT NOT NULL,
			detected TEXT NOT NULL,
			confidence REAL NOT NULL,
			overall INTEGER NOT NULL,
			tone_accuracy INTEGER NOT NULL,
			clarity INTEGER NOT NULL,
			timing INTEGER NOT NULL,
			feedback TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_target ON attempts(target);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_at ON attempts(at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record stores a graded attempt and returns its row id.
func (s *Store) Record(ctx context.Context, a engine.Attempt) (int64, error) {
	fb, err := json.Marshal(a.Score.Feedback)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (attempt_id, at, target, expected, detected, confidence, overall, tone_accuracy, clarity, timing, feedback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(),
		a.At.UTC().Format(timeLayout),
		a.Target,
		a.Expected.String(),
		a.Analysis.Tone.String(),
		a.Analysis.Confidence,
		a.Score.Overall,
		a.Score.ToneAccuracy,
		a.Score.Clarity,
		a.Score.Timing,
		string(fb),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ObserveAttempt records a, logging rather than returning failures.
func (s *Store) ObserveAttempt(a engine.Attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if _, err := s.Record(ctx, a); err != nil {
		log.Errorf("History: recording attempt %s: %v", a.ID, err)
	}
}

// Recent returns up to limit attempts, newest first. An empty target
// matches every attempt.
func (s *Store) Recent(ctx context.Context, target string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, attempt_id, at, target, expected, detected, confidence, overall, tone_accuracy, clarity, timing, feedback
		 FROM attempts
		 WHERE (? = '' OR target = ?)
		 ORDER BY at DESC, id DESC
		 LIMIT ?`, target, target, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var (
			e                  Entry
			at, exp, det, fbJS string
		)
		if err := rows.Scan(&e.ID, &e.AttemptID, &at, &e.Target, &exp, &det, &e.Confidence,
			&e.Overall, &e.ToneAccuracy, &e.Clarity, &e.Timing, &fbJS); err != nil {
			return nil, err
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("attempt %d: %w", e.ID, err)
		}
		if e.Expected, err = tone.Parse(exp); err != nil {
			return nil, fmt.Errorf("attempt %d: %w", e.ID, err)
		}
		if e.Detected, err = tone.Parse(det); err != nil {
			return nil, fmt.Errorf("attempt %d: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(fbJS), &e.Feedback); err != nil {
			return nil, fmt.Errorf("attempt %d: %w", e.ID, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Summaries aggregates attempts per target, most recently practised first.
func (s *Store) Summaries(ctx context.Context) ([]TargetSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT target, COUNT(*), MAX(overall), AVG(overall), MAX(at)
		 FROM attempts
		 GROUP BY target
		 ORDER BY MAX(at) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TargetSummary
	for rows.Next() {
		var (
			sum  TargetSummary
			last string
		)
		if err := rows.Scan(&sum.Target, &sum.Attempts, &sum.Best, &sum.Average, &last); err != nil {
			return nil, err
		}
		if sum.Last, err = time.Parse(timeLayout, last); err != nil {
			return nil, err
		}
		result = append(result, sum)
	}
	return result, rows.Err()
}
