// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/harishvijayasarangan/agent0-voice/internal/config"
	"github.com/harishvijayasarangan/agent0-voice/internal/logsync"
	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

// pollTickMsg fires once per poll interval.
type pollTickMsg struct{}

// pollResultMsg carries a poll response back to the engine.
type pollResultMsg struct {
	ticket logsync.Ticket
	result *model.PollResult
	err    error
}

// sendResultMsg carries the echo of a sent message and the session guid
// the message was sent under.
type sendResultMsg struct {
	echo *model.MessageEcho
	guid string
	err  error
}

// recordingStartedMsg reports the outcome of a start request.
type recordingStartedMsg struct {
	err error
}

// recordingStoppedMsg reports the outcome of a stop request.
type recordingStoppedMsg struct {
	transcription string
	err           error
}

// ackMsg reports the outcome of a pause or reset request.
type ackMsg struct {
	op     string
	paused bool
	err    error
}

// exportResultMsg reports where a transcript export was written.
type exportResultMsg struct {
	path string
	err  error
}

// ConfigReloadedMsg applies UI settings from a reloaded config file.
// Send it with tea.Program.Send.
type ConfigReloadedMsg struct {
	UI config.UIConfig
}
