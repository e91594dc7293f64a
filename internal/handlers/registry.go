// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package handlers maps log entry type tags to rendering handlers.
package handlers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

// =============================================================================
// HANDLER DEFINITION
// =============================================================================

// Options control how handlers render entries.
type Options struct {
	// Width is the available width in cells (0 = unbounded)
	Width int

	// ShowJSON renders the entry's key/value pairs
	ShowJSON bool

	// ShowThoughts renders agent thoughts
	ShowThoughts bool
}

// Handler renders one log entry.
type Handler interface {
	Render(e model.LogEntry, opts Options) string
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(e model.LogEntry, opts Options) string

// Render calls f.
func (f HandlerFunc) Render(e model.LogEntry, opts Options) string {
	return f(e, opts)
}

// Unknown is the default fallback. It shows the tag so an unrecognized
// entry is still visible.
var Unknown Handler = HandlerFunc(func(e model.LogEntry, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]", e.Type)
	if e.Heading != "" {
		sb.WriteString(" " + e.Heading)
	}
	if content := e.Content.String(); content != "" {
		sb.WriteString("\n" + content)
	}
	if opts.ShowJSON && len(e.KVPs) > 0 {
		for _, kv := range e.KVPs {
			fmt.Fprintf(&sb, "\n  %s: %v", kv.Key, kv.Value)
		}
	}
	return sb.String()
})

// =============================================================================
// BLOCK
// =============================================================================

// Block is an entry bound to the handler resolved for it at dispatch time.
type Block struct {
	Entry    model.LogEntry
	Handler  Handler
	fallback Handler
}

// Render renders the block. A handler that panics or renders only
// whitespace is replaced by the fallback, and a failing fallback by a
// one-line summary.
func (b Block) Render(opts Options) string {
	if b.Handler != nil {
		if out := safeRender(b.Handler, b.Entry, opts); strings.TrimSpace(out) != "" {
			return out
		}
	}
	fb := b.fallback
	if fb == nil {
		fb = Unknown
	}
	if out := safeRender(fb, b.Entry, opts); strings.TrimSpace(out) != "" {
		return out
	}
	return fmt.Sprintf("#%d [%s] %s", b.Entry.Seq, b.Entry.Type, b.Entry.Heading)
}

func safeRender(h Handler, e model.LogEntry, opts Options) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()
	return h.Render(e, opts)
}

// Sink receives dispatched blocks.
type Sink interface {
	Append(b Block)
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds the handler for each type tag plus a mandatory fallback.
// It is safe for concurrent use; in practice it is written at startup and
// only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
}

// NewRegistry creates an empty registry. A nil fallback selects Unknown.
func NewRegistry(fallback Handler) *Registry {
	if fallback == nil {
		fallback = Unknown
	}
	return &Registry{
		handlers: make(map[string]Handler),
		fallback: fallback,
	}
}

// Register binds a handler to a type tag, replacing any previous one.
// Registering nil removes the binding so the tag resolves to the fallback.
func (r *Registry) Register(tag string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h == nil {
		delete(r.handlers, tag)
		return
	}
	r.handlers[tag] = h
}

// Lookup returns the handler for tag. Unknown tags return the fallback
// and false.
func (r *Registry) Lookup(tag string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[tag]; ok {
		return h, true
	}
	return r.fallback, false
}

// Fallback returns the handler used for unknown tags.
func (r *Registry) Fallback() Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Bind resolves the handler for e.
func (r *Registry) Bind(e model.LogEntry) Block {
	h, _ := r.Lookup(e.Type)
	return Block{Entry: e, Handler: h, fallback: r.Fallback()}
}

// Dispatch resolves the handler for e and appends the block to sink.
func (r *Registry) Dispatch(sink Sink, e model.LogEntry) {
	sink.Append(r.Bind(e))
}

// Types returns the registered tags, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.handlers))
	for tag := range r.handlers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
