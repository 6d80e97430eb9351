package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/synheart/consciousness-bridge/internal/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	sequence      INTEGER NOT NULL,
	elapsed_s     REAL NOT NULL,
	mood_state    TEXT NOT NULL,
	state_json    TEXT NOT NULL,
	UNIQUE (run_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_samples_mood ON samples (mood_state);
`

// SQLiteWriter stores samples in a SQLite database, one row per sample
type SQLiteWriter struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewSQLiteWriter opens (or creates) the database at path and migrates it
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	stmt, err := db.Prepare(`INSERT INTO samples (run_id, sequence, elapsed_s, mood_state, state_json) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &SQLiteWriter{db: db, stmt: stmt}, nil
}

// Write inserts a sample row
func (w *SQLiteWriter) Write(sample models.Sample) error {
	stateJSON, err := json.Marshal(sample.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if _, err := w.stmt.Exec(sample.RunID, sample.Sequence, sample.Elapsed, sample.State.MoodState, string(stateJSON)); err != nil {
		return fmt.Errorf("insert sample %d: %w", sample.Sequence, err)
	}
	return nil
}

// Count returns the number of stored samples
func (w *SQLiteWriter) Count() (int, error) {
	var n int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

// MoodCounts returns how many samples were stored per mood label
func (w *SQLiteWriter) MoodCounts() (map[string]int, error) {
	rows, err := w.db.Query(`SELECT mood_state, COUNT(*) FROM samples GROUP BY mood_state`)
	if err != nil {
		return nil, fmt.Errorf("query moods: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var mood string
		var n int
		if err := rows.Scan(&mood, &n); err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		counts[mood] = n
	}
	return counts, rows.Err()
}

// Close closes the database
func (w *SQLiteWriter) Close() error {
	w.stmt.Close()
	return w.db.Close()
}
