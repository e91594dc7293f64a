// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the local transcript to a file.
//
// # Supported Formats
//
//   - JSON: the complete document, entries in wire form
//   - Markdown: human-readable, responses kept as Markdown
//
// # Usage
//
//	doc := export.FromTranscript(tr.Items(), engine.Cursor(), time.Now())
//	err := export.ToFile(doc, "session.md", export.DefaultOptions())
package export
