// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client provides the HTTP client for the agent web UI protocol.
//
// Every call is a JSON POST. Errors are classified so callers can tell a
// connection problem (transport failure, non-2xx status, undecodable body)
// from an application-level refusal (ok:false with a message).
//
// # Endpoints
//
//   - POST /msg             - send a user message, returns the logged entry
//   - POST /poll            - fetch log entries after a sequence number
//   - POST /start_recording - begin a voice recording session
//   - POST /stop_recording  - end it and return the transcription
//   - POST /pause           - pause or resume the agent
//   - POST /reset           - reset the agent and its log
//   - GET  /ok              - health check
//
// # Usage
//
//	c := client.New(client.DefaultConfig())
//	res, err := c.Poll(ctx, model.PollRequest{LogFrom: cur.LastSequence})
//	if client.IsTransport(err) {
//	    // connection down; the next poll retries
//	}
package client
