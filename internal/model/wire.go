// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// REQUEST TYPES
// =============================================================================

// MessageRequest is the body of POST /msg.
type MessageRequest struct {
	Text string `json:"text"`
}

// PollRequest is the body of POST /poll. LogGuid is the session the
// caller's cursor belongs to; a server on a different session answers
// from the start of its log.
type PollRequest struct {
	LogFrom int    `json:"log_from"`
	LogGuid string `json:"log_guid,omitempty"`
}

// PauseRequest is the body of POST /pause.
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Ack is the generic acknowledgment shape. Message carries the failure
// reason when OK is false.
type Ack struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// PollResult is the response of POST /poll.
type PollResult struct {
	OK         bool       `json:"ok"`
	Message    string     `json:"message,omitempty"`
	LogGuid    string     `json:"log_guid"`
	LogVersion int        `json:"log_version"`
	Logs       []LogEntry `json:"logs"`
	LogTo      int        `json:"log_to"`
	Paused     bool       `json:"paused"`
}

// MessageEcho is the response of POST /msg: the entry the server logged
// for the sent text.
type MessageEcho struct {
	OK      bool    `json:"ok"`
	Message string  `json:"message,omitempty"`
	ID      int     `json:"id"`
	Type    string  `json:"type"`
	Heading string  `json:"heading"`
	Content Payload `json:"content"`
	KVPs    KVPairs `json:"kvps"`
}

// Entry converts the echo into the log entry it describes.
func (m MessageEcho) Entry() LogEntry {
	return LogEntry{
		Seq:     m.ID,
		Type:    m.Type,
		Heading: m.Heading,
		Content: m.Content,
		KVPs:    m.KVPs,
	}
}

// RecordingResult is the response of POST /start_recording and
// POST /stop_recording. Transcription is only set by a successful stop.
type RecordingResult struct {
	OK            bool   `json:"ok"`
	Message       string `json:"message,omitempty"`
	Transcription string `json:"transcription,omitempty"`
}
