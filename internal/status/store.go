// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package status provides the process-wide observable UI state.
package status

import (
	"sync"
	"time"
)

// Snapshot is an immutable copy of the state.
type Snapshot struct {
	Connected bool
	Paused    bool
	Recording bool
	Text      string
	LastPoll  time.Time
}

// Store holds the state and notifies subscribers on change.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	subs map[int]func(Snapshot)
	next int
}

// New creates a store. The initial state is disconnected: nothing has
// been heard from the server yet.
func New() *Store {
	return &Store{subs: make(map[int]func(Snapshot))}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers fn to be called with every changed snapshot. The
// returned function removes the subscription. fn must not block.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// SetConnected records the outcome of a poll.
func (s *Store) SetConnected(connected bool, at time.Time) {
	s.update(func(snap *Snapshot) {
		snap.Connected = connected
		snap.LastPoll = at
	})
}

// SetPaused records the agent-paused flag reported by the server.
func (s *Store) SetPaused(paused bool) {
	s.update(func(snap *Snapshot) { snap.Paused = paused })
}

// SetRecording records whether a recording session is active.
func (s *Store) SetRecording(recording bool) {
	s.update(func(snap *Snapshot) { snap.Recording = recording })
}

// SetText sets the status line shown to the user.
func (s *Store) SetText(text string) {
	s.update(func(snap *Snapshot) { snap.Text = text })
}

func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	before := s.snap
	fn(&s.snap)
	after := s.snap
	var subs []func(Snapshot)
	if after != before {
		subs = make([]func(Snapshot), 0, len(s.subs))
		for _, sub := range s.subs {
			subs = append(subs, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(after)
	}
}
