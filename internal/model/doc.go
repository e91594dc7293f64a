// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the sync engine,
// the recording controller, the renderers and the reference server.
//
// # Key Types
//
//   - LogEntry: One immutable unit of transcript content, keyed by sequence number
//   - KVPairs: Ordered string-keyed mapping attached to an entry
//   - Payload: Opaque entry content (text or any JSON value)
//   - Cursor: How much of the remote log has been rendered locally
//   - PollResult, MessageEcho, Ack, RecordingResult: Wire shapes of the remote calls
//
// # Usage
//
// Decode a poll response and walk its entries:
//
//	var res model.PollResult
//	if err := json.Unmarshal(body, &res); err != nil {
//	    return err
//	}
//	for _, e := range res.Logs {
//	    fmt.Println(e.Seq, e.Type, e.Content.String())
//	}
package model
