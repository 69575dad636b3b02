package leaderboard

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	author_label TEXT NOT NULL,
	description  TEXT NOT NULL,
	archived_at  TEXT NOT NULL,
	entry_json   TEXT NOT NULL
);`

// Store archives leaderboard entries in a local sqlite database, giving a
// cross-submission view over everything evaluated on this machine.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the archive at path, creating the parent
// directory if needed.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save appends an entry and returns its archive id.
func (s *Store) Save(e *Entry) (int64, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal entry: %w", err)
	}
	res, err := s.db.Exec(
		"INSERT INTO entries (author_label, description, archived_at, entry_json) VALUES (?, ?, ?, ?)",
		e.AuthorLabel, e.Description, time.Now().UTC().Format(time.RFC3339), string(raw),
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry id: %w", err)
	}
	return id, nil
}

// Summary is one archive listing row.
type Summary struct {
	ID          int64
	AuthorLabel string
	Description string
	ArchivedAt  string
}

// List returns all archived entries, newest first.
func (s *Store) List() ([]Summary, error) {
	rows, err := s.db.Query(
		"SELECT id, author_label, description, archived_at FROM entries ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.AuthorLabel, &sum.Description, &sum.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

// Get loads one archived entry by id.
func (s *Store) Get(id int64) (*Entry, error) {
	var raw string
	err := s.db.QueryRow("SELECT entry_json FROM entries WHERE id = ?", id).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("load entry %d: %w", id, err)
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("decode entry %d: %w", id, err)
	}
	return &e, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
