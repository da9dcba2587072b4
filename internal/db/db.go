// ABOUTME: SQLite cache of the last good sidebar session list
// ABOUTME: Lets the history projection start populated before the first backend refresh

package db

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harper/chatsync/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

const metaLastRefresh = "last_refresh"

type DB struct {
	conn *sql.DB
}

// Session is one cached sidebar row.
type Session struct {
	ID           string
	Title        string
	UpdatedAt    string
	MessageCount int
}

// Open opens or creates the cache at dbPath. ":memory:" is accepted.
func Open(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases coherent and writes serialized.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Debug("history cache opened at %s", dbPath)
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// SaveSessions replaces the cached list, preserving order.
func (db *DB) SaveSessions(sessions []Session) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO sessions (id, title, updated_at, message_count, position) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, s := range sessions {
		if s.ID == "" {
			continue
		}
		if _, err := stmt.Exec(s.ID, s.Title, s.UpdatedAt, s.MessageCount, i); err != nil {
			return fmt.Errorf("failed to cache session %s: %w", s.ID, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaLastRefresh, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to record refresh time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	return nil
}

// LoadSessions returns the cached list in saved order.
func (db *DB) LoadSessions() ([]Session, error) {
	rows, err := db.conn.Query(
		`SELECT id, title, updated_at, message_count FROM sessions ORDER BY position ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []Session
	for rows.Next() {
		var s Session
		var updated sql.NullString
		if err := rows.Scan(&s.ID, &s.Title, &updated, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.UpdatedAt = updated.String
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// LastRefresh reports when SaveSessions last succeeded.
func (db *DB) LastRefresh() (time.Time, bool, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaLastRefresh).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read refresh time: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse refresh time: %w", err)
	}
	return t, true, nil
}
