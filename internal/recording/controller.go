// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package recording implements the voice recording session controller.
//
// The controller is a two-state machine, Idle and Recording. Start is only
// valid from Idle and Stop only from Recording; an invalid call is rejected
// before any request reaches the server. While Recording the compose input
// shows a placeholder and is read-only. A successful stop puts the
// transcription into the input and makes it editable again.
package recording

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/harishvijayasarangan/agent0-voice/internal/status"
)

// Placeholder is shown in the compose input while recording.
const Placeholder = "Recording… press Stop to stop"

var (
	// ErrAlreadyRecording rejects Start while a session is active.
	ErrAlreadyRecording = errors.New("recording: already recording")

	// ErrNotRecording rejects Stop while no session is active.
	ErrNotRecording = errors.New("recording: not recording")

	// ErrBusy rejects Start or Stop while a start or stop request is
	// still outstanding.
	ErrBusy = errors.New("recording: request in progress")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Remote is the recording service.
type Remote interface {
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (string, error)
}

// Compose is the message input the controller locks while recording.
type Compose interface {
	SetValue(s string)
	SetReadOnly(readOnly bool)
}

// =============================================================================
// STATE
// =============================================================================

// State is the controller state.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Session describes the current or last recording session.
type Session struct {
	Active bool

	// Transcription is set by the last successful stop
	Transcription    string
	HasTranscription bool
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the recording session. It is safe for concurrent use.
type Controller struct {
	remote  Remote
	compose Compose
	status  *status.Store
	logger  *zap.Logger

	mu      sync.Mutex
	state   State
	pending bool
	session Session
}

// New creates an idle controller. st and logger may be nil.
func New(remote Remote, compose Compose, st *status.Store, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		remote:  remote,
		compose: compose,
		status:  st,
		logger:  logger,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Pending reports whether a start or stop request is outstanding.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Start begins a recording session.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.BeginStart(); err != nil {
		return err
	}
	return c.FinishStart(c.remote.StartRecording(ctx))
}

// Stop ends the recording session and fills the compose input with the
// transcription.
func (c *Controller) Stop(ctx context.Context) error {
	if err := c.BeginStop(); err != nil {
		return err
	}
	text, err := c.remote.StopRecording(ctx)
	return c.FinishStop(text, err)
}

// BeginStart checks that a start is allowed and marks it outstanding. The
// caller issues the remote request and reports the result to FinishStart.
func (c *Controller) BeginStart() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.pending:
		c.logger.Warn("start recording rejected", zap.Error(ErrBusy))
		return ErrBusy
	case c.state == Recording:
		c.logger.Warn("start recording rejected", zap.Error(ErrAlreadyRecording))
		return ErrAlreadyRecording
	}
	c.pending = true
	return nil
}

// FinishStart applies the result of the start request.
func (c *Controller) FinishStart(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false

	if err != nil {
		c.logger.Warn("start recording failed", zap.Error(err))
		c.setText(reason(err))
		return err
	}

	c.state = Recording
	c.session = Session{Active: true}
	if c.compose != nil {
		c.compose.SetValue(Placeholder)
		c.compose.SetReadOnly(true)
	}
	if c.status != nil {
		c.status.SetRecording(true)
	}
	c.setText("Recording started")
	c.logger.Info("recording started")
	return nil
}

// BeginStop checks that a stop is allowed and marks it outstanding. The
// caller issues the remote request and reports the result to FinishStop.
func (c *Controller) BeginStop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.pending:
		c.logger.Warn("stop recording rejected", zap.Error(ErrBusy))
		return ErrBusy
	case c.state != Recording:
		c.logger.Warn("stop recording rejected", zap.Error(ErrNotRecording))
		return ErrNotRecording
	}
	c.pending = true
	return nil
}

// FinishStop applies the result of the stop request. On failure the
// session is presumed still active and the input stays locked.
func (c *Controller) FinishStop(transcription string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false

	if err != nil {
		c.logger.Warn("stop recording failed", zap.Error(err))
		c.setText(reason(err))
		return err
	}

	c.state = Idle
	c.session = Session{Transcription: transcription, HasTranscription: true}
	if c.compose != nil {
		c.compose.SetValue(transcription)
		c.compose.SetReadOnly(false)
	}
	if c.status != nil {
		c.status.SetRecording(false)
	}
	c.setText("Recording stopped")
	c.logger.Info("recording stopped", zap.Int("transcription_len", len(transcription)))
	return nil
}

func (c *Controller) setText(s string) {
	if c.status != nil {
		c.status.SetText(s)
	}
}

// reason prefers the server-provided message of err when it carries one.
func reason(err error) string {
	var r interface{ Reason() string }
	if errors.As(err, &r) {
		if s := r.Reason(); s != "" {
			return s
		}
	}
	return err.Error()
}
