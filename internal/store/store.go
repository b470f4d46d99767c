// Package store provides the durable state shared across poll ticks.
//
// The watcher may be torn down and restarted between ticks, so everything
// it needs to compare the next sample against lives here: a flat set of
// named state slots plus a journal of scrobble submissions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists watcher state and the scrobble journal using SQLite
type Store struct {
	db *sql.DB
}

// JournalEntry represents one scrobble submission attempt
type JournalEntry struct {
	ID          int64
	Artist      string
	Title       string
	Label       string
	StartedAt   time.Time
	SubmittedAt time.Time
	Accepted    bool
}

// Open opens (creating if needed) the store at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps in-memory databases consistent and is
	// plenty for the single-mutator access pattern.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",    // Enforce foreign key constraints
		"PRAGMA busy_timeout = 10000", // Wait up to 10 seconds on lock
		"PRAGMA synchronous = NORMAL", // Balance between safety and performance
		"PRAGMA journal_mode = WAL",   // Write-Ahead Logging for concurrent access
		"PRAGMA temp_store = MEMORY",  // Use memory for temp tables
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS state (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS scrobbles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			artist TEXT NOT NULL,
			title TEXT NOT NULL,
			label TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			submitted_at INTEGER NOT NULL,
			accepted BOOLEAN NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_submitted_at ON scrobbles(submitted_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value of a named slot. A missing slot is not an error;
// it returns ok=false.
func (s *Store) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM state WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %q: %w", name, err)
	}
	return value, true, nil
}

// Set writes a named slot, replacing any previous value
func (s *Store) Set(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO state (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value",
		name, value)
	if err != nil {
		return fmt.Errorf("failed to write slot %q: %w", name, err)
	}
	return nil
}

// SetAll writes several slots in one transaction, so a crash between
// ticks never leaves the session half-updated
func (s *Store) SetAll(ctx context.Context, slots map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO state (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for name, value := range slots {
		if _, err := stmt.ExecContext(ctx, name, value); err != nil {
			return fmt.Errorf("failed to write slot %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete removes named slots. Missing slots are ignored.
func (s *Store) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM state WHERE name = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, name); err != nil {
			return fmt.Errorf("failed to delete slot %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Clear removes every state slot
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM state"); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}

// AddJournal records a scrobble submission attempt
func (s *Store) AddJournal(ctx context.Context, entry JournalEntry) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO scrobbles (artist, title, label, started_at, submitted_at, accepted)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Artist,
		entry.Title,
		entry.Label,
		entry.StartedAt.Unix(),
		entry.SubmittedAt.Unix(),
		entry.Accepted,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert journal entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// RecentJournal returns the most recent journal entries, newest first
func (s *Store) RecentJournal(ctx context.Context, limit int) ([]JournalEntry, error) {
	query := `
		SELECT id, artist, title, label, started_at, submitted_at, accepted
		FROM scrobbles
		ORDER BY submitted_at DESC, id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var startedAt, submittedAt int64

		if err := rows.Scan(&e.ID, &e.Artist, &e.Title, &e.Label, &startedAt, &submittedAt, &e.Accepted); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}

		e.StartedAt = time.Unix(startedAt, 0)
		e.SubmittedAt = time.Unix(submittedAt, 0)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal: %w", err)
	}

	return entries, nil
}

// CleanupJournal removes journal entries older than maxAge and returns
// how many were deleted
func (s *Store) CleanupJournal(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	result, err := s.db.ExecContext(ctx, "DELETE FROM scrobbles WHERE submitted_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup journal: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
