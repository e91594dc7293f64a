// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the locally rendered transcript.
package transcript

import (
	"strings"
	"sync"

	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

// =============================================================================
// ITEM TYPE
// =============================================================================

// Item is one block in the transcript.
type Item struct {
	handlers.Block

	// Provisional marks a locally echoed block not yet confirmed by a
	// poll snapshot.
	Provisional bool
}

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is an ordered list of rendered blocks. It is safe for
// concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	items    []Item
	clears   int
	revision uint64
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{items: make([]Item, 0)}
}

// Append adds a confirmed block. It satisfies handlers.Sink.
func (t *Transcript) Append(b handlers.Block) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, Item{Block: b})
	t.revision++
}

// AppendProvisional adds a block that the next rendered snapshot replaces.
func (t *Transcript) AppendProvisional(b handlers.Block) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, Item{Block: b, Provisional: true})
	t.revision++
}

// DropProvisional removes every provisional block and returns how many
// were removed.
func (t *Transcript) DropProvisional() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.items[:0]
	dropped := 0
	for _, it := range t.items {
		if it.Provisional {
			dropped++
			continue
		}
		kept = append(kept, it)
	}
	// Zero the tail so dropped blocks can be collected.
	for i := len(kept); i < len(t.items); i++ {
		t.items[i] = Item{}
	}
	t.items = kept
	if dropped > 0 {
		t.revision++
	}
	return dropped
}

// Clear removes all blocks.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make([]Item, 0)
	t.clears++
	t.revision++
}

// Len returns the number of blocks.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// IsEmpty returns true if there are no blocks.
func (t *Transcript) IsEmpty() bool {
	return t.Len() == 0
}

// Clears returns how many times the transcript has been cleared.
func (t *Transcript) Clears() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clears
}

// Revision changes on every mutation. Views compare it to skip re-rendering.
func (t *Transcript) Revision() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revision
}

// Items returns a copy of the blocks.
func (t *Transcript) Items() []Item {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Item, len(t.items))
	copy(out, t.items)
	return out
}

// Entries returns the entries of all blocks in order.
func (t *Transcript) Entries() []model.LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.LogEntry, len(t.items))
	for i, it := range t.items {
		out[i] = it.Entry
	}
	return out
}

// Render renders every block and joins them with sep.
func (t *Transcript) Render(opts handlers.Options, sep string) string {
	items := t.Items()
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Render(opts)
	}
	return strings.Join(parts, sep)
}
