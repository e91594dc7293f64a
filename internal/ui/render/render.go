// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render holds the built-in transcript renderers for each log
// entry type. A nil theme produces plain text for non-terminal output.
package render

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
	"github.com/harishvijayasarangan/agent0-voice/internal/util"
)

// DefaultWidth is used when the caller does not know its width.
const DefaultWidth = 80

// ThoughtsKey is the agent KV pair holding the agent's reasoning steps.
const ThoughtsKey = "thoughts"

var titleCaser = cases.Title(language.English)

// Renderers renders entries for one theme. Safe for concurrent use.
type Renderers struct {
	theme *styles.Theme

	mu       sync.Mutex
	markdown map[int]*glamour.TermRenderer
}

// New creates renderers for theme. Pass nil for plain text.
func New(theme *styles.Theme) *Renderers {
	return &Renderers{
		theme:    theme,
		markdown: make(map[int]*glamour.TermRenderer),
	}
}

// RegisterDefaults registers a renderer for every built-in entry type.
func RegisterDefaults(reg *handlers.Registry, theme *styles.Theme) *Renderers {
	r := New(theme)
	r.Register(reg)
	return r
}

// NewRegistry returns a registry holding every built-in renderer for
// theme, with the generic renderer as its fallback.
func NewRegistry(theme *styles.Theme) *handlers.Registry {
	r := New(theme)
	reg := handlers.NewRegistry(handlers.HandlerFunc(r.Fallback))
	r.Register(reg)
	return reg
}

// Register binds r's renderers into reg.
func (r *Renderers) Register(reg *handlers.Registry) {
	reg.Register(model.TypeUser, handlers.HandlerFunc(r.User))
	reg.Register(model.TypeAgent, handlers.HandlerFunc(r.Agent))
	reg.Register(model.TypeResponse, handlers.HandlerFunc(r.Response))
	reg.Register(model.TypeTool, handlers.HandlerFunc(r.Tool))
	reg.Register(model.TypeCodeExe, handlers.HandlerFunc(r.CodeExe))
	reg.Register(model.TypeWarning, handlers.HandlerFunc(r.Alert))
	reg.Register(model.TypeRateLimit, handlers.HandlerFunc(r.Alert))
	reg.Register(model.TypeError, handlers.HandlerFunc(r.Alert))
	reg.Register(model.TypeInfo, handlers.HandlerFunc(r.Note))
	reg.Register(model.TypeUtil, handlers.HandlerFunc(r.Note))
	reg.Register(model.TypeHint, handlers.HandlerFunc(r.Note))
	reg.Register(model.TypeAdhoc, handlers.HandlerFunc(r.Note))
}

// Fallback renders entries of any type generically. It is meant as the
// registry fallback so unknown types still look like the rest of the
// transcript.
func (r *Renderers) Fallback(e model.LogEntry, opts handlers.Options) string {
	return r.frame(e, opts, r.text(e.Content.String()))
}

// Title is the heading shown for e: its own heading, or the type name in
// title case when the heading is empty.
func Title(e model.LogEntry) string {
	if h := strings.TrimSpace(e.Heading); h != "" {
		return h
	}
	if e.Type == "" {
		return "Entry"
	}
	return titleCaser.String(strings.ReplaceAll(e.Type, "_", " "))
}

func width(opts handlers.Options) int {
	if opts.Width <= 0 {
		return DefaultWidth
	}
	return opts.Width
}

// frame lays out the heading line, the non-empty body parts and, when
// ShowJSON is on, the KV pairs.
func (r *Renderers) frame(e model.LogEntry, opts handlers.Options, body ...string) string {
	w := width(opts)
	var sb strings.Builder
	sb.WriteString(r.heading(e, w))

	for _, part := range body {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(part)
	}

	if opts.ShowJSON {
		kvps := e.KVPs
		if !opts.ShowThoughts {
			kvps = kvps.Without(ThoughtsKey)
		}
		if len(kvps) > 0 {
			sb.WriteString("\n")
			sb.WriteString(r.kvps(kvps))
		}
	}
	return sb.String()
}

func (r *Renderers) heading(e model.LogEntry, w int) string {
	title := Title(e)
	if ind := styles.EntryIndicator(e.Type); ind != "" {
		title = ind + " " + title
	}
	meta := ""
	if e.Seq > 0 {
		meta = " #" + strconv.Itoa(e.Seq)
	}
	title = util.Truncate(util.SingleLine(title), w-util.Width(meta))

	if r.theme == nil {
		return title + meta
	}
	return r.theme.Heading(e.Type).Render(title) + r.theme.BlockMeta.Render(meta)
}

// text renders a plain body indented under the heading.
func (r *Renderers) text(s string) string {
	s = strings.TrimRight(s, "\n")
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if r.theme == nil {
		return util.Indent(s, "  ")
	}
	return r.theme.BlockBody.Render(s)
}

func (r *Renderers) kvps(kvps model.KVPairs) string {
	data, err := json.MarshalIndent(kvps, "", "  ")
	if err != nil {
		// A value that does not encode still gets shown
		var sb strings.Builder
		for _, kv := range kvps {
			sb.WriteString(kv.Key + ": " + stringify(kv.Value) + "\n")
		}
		return r.code(strings.TrimRight(sb.String(), "\n"), "")
	}
	return r.code(string(data), "json")
}
