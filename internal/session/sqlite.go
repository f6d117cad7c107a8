package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps flags in a local SQLite file so they survive a process restart
// within the same login session.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("session: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS session_flags (
		content_id TEXT NOT NULL,
		flag       TEXT NOT NULL,
		set_at     TEXT NOT NULL,
		PRIMARY KEY (content_id, flag)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(ctx context.Context, contentID string, flag Flag) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM session_flags WHERE content_id = ? AND flag = ?`, contentID, string(flag),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: select flag: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, contentID string, flag Flag) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_flags (content_id, flag, set_at) VALUES (?, ?, ?)`,
		contentID, string(flag), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("session: insert flag: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_flags`); err != nil {
		return fmt.Errorf("session: reset: %w", err)
	}
	return nil
}
