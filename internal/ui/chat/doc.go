// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the interactive agent0 terminal UI.
//
// The Model wires the log sync engine and the recording controller to a
// Bubble Tea program:
//
//   - a viewport showing the rendered transcript
//   - a textarea for composing messages (read-only while recording)
//   - a status bar fed by the status store
//
// Polling is driven by tea.Tick. Every tick claims the engine's single
// poll slot; a tick that arrives while a poll is outstanding does nothing,
// so a slow server never causes overlapping polls. All remote calls run as
// tea.Cmds and report back through the messages in messages.go.
package chat
