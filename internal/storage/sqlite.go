// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

// =============================================================================
// SCHEMA
// =============================================================================

// Schema is the SQLite schema of the log.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	guid       TEXT PRIMARY KEY,
	version    INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	guid       TEXT NOT NULL REFERENCES sessions(guid) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	type       TEXT NOT NULL,
	heading    TEXT NOT NULL,
	content    TEXT,
	kvps       TEXT,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (guid, seq)
);
`

const currentGuidKey = "current_guid"

// =============================================================================
// SQLITE LOG
// =============================================================================

// SQLite is a Log persisted in a SQLite database. The current session
// survives restarts.
type SQLite struct {
	mu     sync.Mutex
	db     *sql.DB
	guid   string
	closed bool
}

// OpenSQLite opens or creates the database at path. The special path
// ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.loadGuid(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// loadGuid reads the current session, creating one if the database is new.
func (s *SQLite) loadGuid(ctx context.Context) error {
	var guid string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", currentGuidKey).Scan(&guid)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		guid, err = s.newSession(ctx)
		if err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("failed to load session: %w", err)
	}
	s.guid = guid
	return nil
}

func (s *SQLite) newSession(ctx context.Context) (string, error) {
	guid := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (guid, version, created_at) VALUES (?, 0, ?)",
		guid, time.Now().Unix()); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		currentGuidKey, guid); err != nil {
		return "", fmt.Errorf("failed to set current session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit session: %w", err)
	}
	return guid, nil
}

// Append implements Log.
func (s *SQLite) Append(ctx context.Context, e model.LogEntry) (model.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.LogEntry{}, ErrClosed
	}

	kvps, err := json.Marshal(e.KVPs)
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("failed to encode kvps: %w", err)
	}
	content, err := json.Marshal(e.Content)
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("failed to encode content: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var last int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM entries WHERE guid = ?", s.guid).Scan(&last); err != nil {
		return model.LogEntry{}, fmt.Errorf("failed to read last sequence: %w", err)
	}
	e.Seq = last + 1

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO entries (guid, seq, type, heading, content, kvps, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.guid, e.Seq, e.Type, e.Heading, string(content), string(kvps), time.Now().Unix()); err != nil {
		return model.LogEntry{}, fmt.Errorf("failed to insert entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE sessions SET version = version + 1 WHERE guid = ?", s.guid); err != nil {
		return model.LogEntry{}, fmt.Errorf("failed to bump version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.LogEntry{}, fmt.Errorf("failed to commit entry: %w", err)
	}
	return e, nil
}

// Since implements Log.
func (s *SQLite) Since(ctx context.Context, from int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	snap := Snapshot{Guid: s.guid, Entries: make([]model.LogEntry, 0)}
	if err := tx.QueryRowContext(ctx,
		"SELECT version FROM sessions WHERE guid = ?", s.guid).Scan(&snap.Version); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read version: %w", err)
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM entries WHERE guid = ?", s.guid).Scan(&snap.LastSeq); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read last sequence: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT seq, type, heading, content, kvps FROM entries WHERE guid = ? AND seq > ? ORDER BY seq",
		s.guid, from)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e       model.LogEntry
			content sql.NullString
			kvps    sql.NullString
		)
		if err := rows.Scan(&e.Seq, &e.Type, &e.Heading, &content, &kvps); err != nil {
			return Snapshot{}, fmt.Errorf("failed to scan entry: %w", err)
		}
		if content.Valid {
			if err := json.Unmarshal([]byte(content.String), &e.Content); err != nil {
				return Snapshot{}, fmt.Errorf("failed to decode content of entry %d: %w", e.Seq, err)
			}
		}
		if kvps.Valid {
			if err := json.Unmarshal([]byte(kvps.String), &e.KVPs); err != nil {
				return Snapshot{}, fmt.Errorf("failed to decode kvps of entry %d: %w", e.Seq, err)
			}
		}
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read entries: %w", err)
	}
	return snap, nil
}

// Guid implements Log.
func (s *SQLite) Guid(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	return s.guid, nil
}

// Reset implements Log. Entries of earlier sessions are kept in the
// database but are no longer served.
func (s *SQLite) Reset(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	guid, err := s.newSession(ctx)
	if err != nil {
		return "", err
	}
	s.guid = guid
	return guid, nil
}

// Close implements Log.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
