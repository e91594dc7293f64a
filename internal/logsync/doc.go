// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logsync keeps the local transcript consistent with the
// server-held log.
//
// The engine polls with the last known sequence number and reconciles each
// response against its cursor:
//
//  1. A failed response leaves the cursor alone and marks the connection down.
//  2. A new session guid clears the transcript.
//  3. A new log version (or a cleared transcript) renders the returned batch
//     in ascending sequence order through the handler registry.
//  4. The cursor moves to (log_to, log_version, log_guid).
//  5. The connection is marked up.
//
// Polls are single-flight: a tick that fires while a poll is outstanding is
// skipped, and reconciliation of one response never interleaves with
// another. The poll cadence is the only retry mechanism.
package logsync
