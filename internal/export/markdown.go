// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/render"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports documents to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a document to Markdown. Responses are emitted as-is
// since they already are Markdown; other content is fenced.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "log_guid: %s\n", escapeYAML(doc.Guid))
		fmt.Fprintf(&sb, "log_version: %d\n", doc.Version)
		fmt.Fprintf(&sb, "entries: %d\n", len(doc.Entries))
		fmt.Fprintf(&sb, "exported: %s\n", doc.Exported.Format(time.RFC3339))
		sb.WriteString("generator: agent0\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString("# Agent transcript\n\n")

	for i, entry := range doc.Entries {
		if i > 0 {
			sb.WriteString("---\n\n")
		}
		e.writeEntry(&sb, entry)
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

func (e *MarkdownExporter) writeEntry(sb *strings.Builder, entry Entry) {
	label := escapeMarkdown(render.Title(entry.LogEntry))
	fmt.Fprintf(sb, "### %s <sub>%s", label, entry.Type)
	if entry.Seq > 0 {
		fmt.Fprintf(sb, " #%d", entry.Seq)
	}
	if entry.Provisional {
		sb.WriteString(" (unconfirmed)")
	}
	sb.WriteString("</sub>\n\n")

	if content := formatContent(entry.LogEntry); content != "" {
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}

	if e.options.IncludeKVPs && len(entry.KVPs) > 0 {
		if data, err := json.MarshalIndent(entry.KVPs, "", "  "); err == nil {
			sb.WriteString(fence(string(data), "json"))
			sb.WriteString("\n\n")
		}
	}
}

// formatContent renders entry content for Markdown.
func formatContent(e model.LogEntry) string {
	if e.Content.IsEmpty() {
		return ""
	}
	if !e.Content.IsText() {
		var buf bytes.Buffer
		if err := json.Indent(&buf, e.Content.Raw(), "", "  "); err == nil {
			return fence(buf.String(), "json")
		}
	}

	text := strings.TrimSpace(e.Content.String())
	switch e.Type {
	case model.TypeResponse, model.TypeUser, model.TypeInfo, model.TypeHint:
		return text
	case model.TypeCodeExe:
		return fence(text, "")
	}
	if strings.Contains(text, "\n") {
		return fence(text, "")
	}
	return text
}

// fence wraps s in a code fence long enough not to collide with any
// backtick run inside it.
func fence(s, lang string) string {
	ticks := "```"
	for strings.Contains(s, ticks) {
		ticks += "`"
	}
	return ticks + lang + "\n" + strings.TrimRight(s, "\n") + "\n" + ticks
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in headings
	r := strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
		"<", "&lt;",
	)
	return r.Replace(s)
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
