// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the locally rendered transcript: the ordered
// blocks the user sees, in the order they were dispatched.
//
// The sync engine appends confirmed blocks and clears the transcript when
// the remote log session changes. The send path appends provisional
// blocks for just-sent messages; these are dropped when the next
// authoritative batch is rendered.
package transcript
