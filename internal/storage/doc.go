// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the append-only agent log served by agent0 serve.
//
// A log belongs to a session identified by a guid. Sequence numbers start at
// 1 in each session and every append increments the log version. Reset
// starts a new session with an empty log.
//
// # Implementations
//
//   - Memory: in-process log, lost on restart
//   - SQLite: log persisted with modernc.org/sqlite
//
// # Usage
//
//	log := storage.NewMemory()
//	entry, err := log.Append(ctx, model.LogEntry{Type: model.TypeUser, Heading: "User message"})
//	snap, err := log.Since(ctx, 0)
package storage
