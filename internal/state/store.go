// Package state persists run state in SQLite: which videos have been
// summarized into a published report, the queue of collected videos
// awaiting processing, and the channel-scan cursor. Persistence keeps
// batch runs incremental across restarts.
package state

import (
	"database/sql"
	"fmt"
	"time"
)

// Store persists collection and processing state in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a state store, running migrations on first use.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate state: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS processed_videos (
			video_id     TEXT PRIMARY KEY,
			processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS video_queue (
			video_id    TEXT PRIMARY KEY,
			enqueued_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS cursors (
			name  TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// MarkProcessed records that a video's summaries made it into a report.
// Marking twice is a no-op.
func (s *Store) MarkProcessed(videoID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO processed_videos (video_id) VALUES (?)`,
		videoID,
	)
	return err
}

// IsProcessed reports whether the video was already reported on.
func (s *Store) IsProcessed(videoID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM processed_videos WHERE video_id = ?`,
		videoID,
	).Scan(&n)
	return n > 0, err
}

// Enqueue adds a collected video to the work queue. Duplicates are
// silently ignored.
func (s *Store) Enqueue(videoID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO video_queue (video_id) VALUES (?)`,
		videoID,
	)
	return err
}

// Queue returns queued video IDs in insertion order.
func (s *Store) Queue() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT video_id FROM video_queue ORDER BY enqueued_at ASC, video_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Dequeue removes a video from the queue. Unknown IDs are a no-op.
func (s *Store) Dequeue(videoID string) error {
	_, err := s.db.Exec(
		`DELETE FROM video_queue WHERE video_id = ?`,
		videoID,
	)
	return err
}

// LastCollected returns the channel-scan cursor, or ok=false when no
// collection has run yet.
func (s *Store) LastCollected() (time.Time, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM cursors WHERE name = 'last_collected'`,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("bad last_collected cursor %q: %w", value, err)
	}
	return t, true, nil
}

// SetLastCollected advances the channel-scan cursor.
func (s *Store) SetLastCollected(t time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO cursors (name, value) VALUES ('last_collected', ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		t.UTC().Format(time.RFC3339),
	)
	return err
}
