// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across agent0.
//
// # Key Functions
//
// Text:
//   - Width, Truncate, PadRight: terminal-column aware, via go-runewidth
//   - SingleLine, Indent: layout helpers for rendered transcript text
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Fit a status message into the footer
//	line := util.Truncate(msg, width)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
