// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// maxCachedWidths bounds the per-width glamour renderer cache; terminals
// being resized produce a new width on every event.
const maxCachedWidths = 8

// markdownRenderer returns a glamour renderer wrapping at w columns.
// r.mu must be held.
func (r *Renderers) markdownRenderer(w int) (*glamour.TermRenderer, error) {
	if tr, ok := r.markdown[w]; ok {
		return tr, nil
	}

	style := "notty"
	if r.theme.ColorProfile != termenv.Ascii {
		style = r.theme.GlamourStyle()
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(w),
	)
	if err != nil {
		return nil, err
	}

	if len(r.markdown) >= maxCachedWidths {
		for k := range r.markdown {
			delete(r.markdown, k)
		}
	}
	r.markdown[w] = tr
	return tr, nil
}

// md renders markdown text, falling back to the plain body when glamour
// fails. Renderers are not shared across goroutines, so the lock covers
// the render too.
func (r *Renderers) md(text string, w int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if r.theme == nil {
		return r.text(text)
	}
	r.mu.Lock()
	tr, err := r.markdownRenderer(w)
	if err != nil {
		r.mu.Unlock()
		return r.text(text)
	}
	out, err := tr.Render(text)
	r.mu.Unlock()
	if err != nil {
		return r.text(text)
	}
	return strings.Trim(out, "\n")
}
