// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the append-only agent log served by agent0 serve.
package storage

import (
	"context"
	"errors"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

// ErrClosed is returned by operations on a closed log.
var ErrClosed = errors.New("storage: log closed")

// Snapshot is a consistent view of the log: Version and Entries are read
// together.
type Snapshot struct {
	Guid    string
	Version int

	// Entries holds the entries after the requested sequence, ascending
	Entries []model.LogEntry

	// LastSeq is the highest sequence in the whole log (0 if empty)
	LastSeq int
}

// LogTo returns the cursor a client should continue from after receiving
// s for a request starting at from.
func (s Snapshot) LogTo(from int) int {
	if n := len(s.Entries); n > 0 {
		return s.Entries[n-1].Seq
	}
	return from
}

// Log is the append-only agent log.
type Log interface {
	// Append assigns the next sequence number to e, stores it, and
	// returns the stored entry.
	Append(ctx context.Context, e model.LogEntry) (model.LogEntry, error)

	// Since returns the entries with a sequence greater than from.
	Since(ctx context.Context, from int) (Snapshot, error)

	// Guid returns the current session guid.
	Guid(ctx context.Context) (string, error)

	// Reset starts a new session and returns its guid.
	Reset(ctx context.Context) (string, error)

	Close() error
}
