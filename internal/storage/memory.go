// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

// Memory is an in-process Log. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	guid    string
	version int
	entries []model.LogEntry
	closed  bool
}

// NewMemory creates an empty log with a fresh session guid.
func NewMemory() *Memory {
	return &Memory{guid: uuid.NewString()}
}

// Append implements Log.
func (m *Memory) Append(ctx context.Context, e model.LogEntry) (model.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.LogEntry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return model.LogEntry{}, ErrClosed
	}

	e.Seq = len(m.entries) + 1
	m.entries = append(m.entries, e)
	m.version++
	return e, nil
}

// Since implements Log.
func (m *Memory) Since(ctx context.Context, from int) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Snapshot{}, ErrClosed
	}

	// Sequence numbers are dense from 1, so entry seq n is at index n-1.
	start := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Seq > from })
	out := make([]model.LogEntry, len(m.entries)-start)
	copy(out, m.entries[start:])

	return Snapshot{
		Guid:    m.guid,
		Version: m.version,
		Entries: out,
		LastSeq: len(m.entries),
	}, nil
}

// Guid implements Log.
func (m *Memory) Guid(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", ErrClosed
	}
	return m.guid, nil
}

// Reset implements Log.
func (m *Memory) Reset(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	m.guid = uuid.NewString()
	m.version = 0
	m.entries = nil
	return m.guid, nil
}

// Close implements Log.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}
