// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the reference agent web UI server.
//
// It serves the append-only agent log to polling clients and runs a
// pluggable agent on every received message.
//
// Endpoints:
//   - POST /msg             - log a user message and hand it to the agent
//   - POST /msg_sync        - same, but wait for the agent's reply
//   - POST /poll            - return entries after log_from
//   - POST /start_recording - begin a recording session
//   - POST /stop_recording  - end it and return the transcription
//   - POST /pause           - pause or resume the agent
//   - POST /reset           - start a new log session
//   - GET|POST /ok          - health check
//
// Application failures are reported as HTTP 200 with ok:false and a
// message. Malformed requests get a 4xx status.
//
// Middleware:
//   - Panic recovery with stack trace logging
//   - Request logging (zap)
//   - Per-client rate limiting (golang.org/x/time/rate)
//   - Request body size limit
package server
