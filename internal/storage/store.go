// Package storage archives completed match results in SQLite. Live room
// state is never persisted: a restart loses in-progress games, but the
// lifetime record book survives.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// MatchRecord is one completed match.
type MatchRecord struct {
	RoomID     string        `json:"roomId"`
	Winner     string        `json:"winner"` // "A" or "B"
	ScoreA     int           `json:"scoreA"`
	ScoreB     int           `json:"scoreB"`
	Deals      int           `json:"deals"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// Totals aggregates the archive for the stats query.
type Totals struct {
	Matches int `json:"matches"`
	WinsA   int `json:"winsA"`
	WinsB   int `json:"winsB"`
	Deals   int `json:"deals"`
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS match_results (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id      TEXT NOT NULL,
			winner       TEXT NOT NULL,
			score_a      INTEGER NOT NULL,
			score_b      INTEGER NOT NULL,
			deals        INTEGER NOT NULL,
			duration_sec INTEGER NOT NULL,
			finished_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// RecordMatch appends one completed match to the archive.
func (s *Store) RecordMatch(rec MatchRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO match_results (room_id, winner, score_a, score_b, deals, duration_sec)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.RoomID, rec.Winner, rec.ScoreA, rec.ScoreB, rec.Deals, int(rec.Duration.Seconds()))
	return err
}

// Totals returns lifetime aggregates across all recorded matches.
func (s *Store) Totals() (Totals, error) {
	var t Totals
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN winner = 'A' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN winner = 'B' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(deals), 0)
		FROM match_results
	`).Scan(&t.Matches, &t.WinsA, &t.WinsB, &t.Deals)
	return t, err
}

// RecentMatches returns the latest n results, newest first.
func (s *Store) RecentMatches(n int) ([]MatchRecord, error) {
	rows, err := s.db.Query(`
		SELECT room_id, winner, score_a, score_b, deals, duration_sec, finished_at
		FROM match_results ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		var secs int
		if err := rows.Scan(&rec.RoomID, &rec.Winner, &rec.ScoreA, &rec.ScoreB, &rec.Deals, &secs, &rec.FinishedAt); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(secs) * time.Second
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
