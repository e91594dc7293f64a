// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/transcript"
	"github.com/harishvijayasarangan/agent0-voice/internal/util"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("transcript is empty")

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is the exported form of a transcript.
type Document struct {
	Guid     string    `json:"log_guid"`
	Version  int       `json:"log_version"`
	LastSeq  int       `json:"last_sequence"`
	Exported time.Time `json:"exported"`
	Entries  []Entry   `json:"entries"`
}

// Entry is one transcript block. Provisional entries are local echoes
// not yet confirmed by a poll.
type Entry struct {
	model.LogEntry
	Provisional bool `json:"provisional,omitempty"`
}

// FromTranscript snapshots items at cursor cur.
func FromTranscript(items []transcript.Item, cur model.Cursor, now time.Time) *Document {
	doc := &Document{
		Guid:     cur.SessionGuid,
		Version:  cur.LastVersion,
		LastSeq:  cur.LastSequence,
		Exported: now,
		Entries:  make([]Entry, 0, len(items)),
	}
	for _, it := range items {
		doc.Entries = append(doc.Entries, Entry{LogEntry: it.Entry, Provisional: it.Provisional})
	}
	return doc
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a document to a file format.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata includes the guid/version header.
	IncludeMetadata bool

	// IncludeKVPs includes each entry's KV pairs.
	IncludeKVPs bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata: true,
		IncludeKVPs:     true,
	}
}

// ForPath picks the exporter for path's extension: ".json" exports JSON,
// ".md" and ".markdown" export Markdown.
func ForPath(path string, opts *Options) (Exporter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONExporter(), nil
	case ".md", ".markdown":
		return NewMarkdownExporter(opts), nil
	}
	return nil, fmt.Errorf("unsupported export format %q (use .md or .json)", filepath.Ext(path))
}

// ToFile exports doc to path in the format implied by its extension.
func ToFile(doc *Document, path string, opts *Options) error {
	if doc == nil || len(doc.Entries) == 0 {
		return ErrEmpty
	}
	exporter, err := ForPath(path, opts)
	if err != nil {
		return err
	}
	content, err := exporter.Export(doc)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// DefaultFilename names an export of doc taken at doc.Exported.
func DefaultFilename(doc *Document, ext string) string {
	guid := doc.Guid
	if len(guid) > 8 {
		guid = guid[:8]
	}
	return fmt.Sprintf("agent0_%s_%s%s",
		sanitizeFilename(guid),
		doc.Exported.Format("20060102_150405"),
		ext,
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "transcript"
	}
	return b.String()
}
