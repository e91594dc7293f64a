// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
)

// User renders a message typed or dictated by the user.
func (r *Renderers) User(e model.LogEntry, opts handlers.Options) string {
	return r.frame(e, opts, r.text(e.Content.String()))
}

// Agent renders an agent reasoning step. Thoughts come from the
// "thoughts" KV pair and are hidden unless ShowThoughts is set.
func (r *Renderers) Agent(e model.LogEntry, opts handlers.Options) string {
	var thoughts string
	if opts.ShowThoughts {
		thoughts = r.thoughts(e.KVPs)
	}
	return r.frame(e, opts, thoughts, r.structured(e.Content))
}

// Response renders the agent's answer as markdown.
func (r *Renderers) Response(e model.LogEntry, opts handlers.Options) string {
	return r.frame(e, opts, r.md(e.Content.String(), width(opts)-2))
}

// Tool renders a tool call result.
func (r *Renderers) Tool(e model.LogEntry, opts handlers.Options) string {
	return r.frame(e, opts, r.structured(e.Content))
}

// CodeExe renders a code execution: the code from the "code" KV pair,
// highlighted for its "runtime", then the captured output.
func (r *Renderers) CodeExe(e model.LogEntry, opts handlers.Options) string {
	var src string
	if v, ok := e.KVPs.Get("code"); ok {
		runtime, _ := e.KVPs.Get("runtime")
		src = r.code(stringify(v), LexerFor(stringify(runtime)))
	}
	return r.frame(e, opts, src, r.code(e.Content.String(), "text"))
}

// Alert renders warnings, rate limits and errors with their accent color
// on the body as well as the heading.
func (r *Renderers) Alert(e model.LogEntry, opts handlers.Options) string {
	body := strings.TrimRight(e.Content.String(), "\n")
	if r.theme != nil && strings.TrimSpace(body) != "" {
		body = r.theme.BlockBody.Foreground(styles.EntryAccent(e.Type)).Render(body)
	} else {
		body = r.text(body)
	}
	return r.frame(e, opts, body)
}

// Note renders info, util, hint and adhoc entries.
func (r *Renderers) Note(e model.LogEntry, opts handlers.Options) string {
	body := strings.TrimRight(e.Content.String(), "\n")
	if r.theme != nil && e.Type == model.TypeUtil && strings.TrimSpace(body) != "" {
		body = r.theme.BlockBody.Foreground(styles.TextMuted).Render(body)
	} else {
		body = r.text(body)
	}
	return r.frame(e, opts, body)
}

// thoughts renders the thoughts KV pair as a bullet list.
func (r *Renderers) thoughts(kvps model.KVPairs) string {
	v, ok := kvps.Get(ThoughtsKey)
	if !ok {
		return ""
	}

	var lines []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				lines = append(lines, "• "+s)
			}
		}
	default:
		if s := strings.TrimSpace(stringify(t)); s != "" {
			lines = append(lines, "• "+s)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	out := strings.Join(lines, "\n")
	if r.theme == nil {
		return indentAll(out, "  ")
	}
	return r.theme.Thoughts.Render(out)
}

// structured renders content that is JSON as a highlighted code block and
// anything else as text.
func (r *Renderers) structured(p model.Payload) string {
	if p.IsEmpty() {
		return ""
	}
	if !p.IsText() {
		if out, ok := r.prettyJSON(p.Raw()); ok {
			return out
		}
	}
	s := p.String()
	if t := strings.TrimSpace(s); strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		if out, ok := r.prettyJSON([]byte(t)); ok {
			return out
		}
	}
	return r.text(s)
}

// prettyJSON indents raw JSON, keeping its key order.
func (r *Renderers) prettyJSON(raw []byte) (string, bool) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", false
	}
	return r.code(buf.String(), "json"), true
}

// stringify formats a decoded JSON value for display.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
