// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"strings"
	"sync"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/storage"
)

// =============================================================================
// AGENT
// =============================================================================

// Agent answers user messages. It may append any number of entries to the
// log while working and returns its final reply.
type Agent interface {
	Communicate(ctx context.Context, text string, log storage.Log) (string, error)
}

// AgentFunc adapts a function to Agent.
type AgentFunc func(ctx context.Context, text string, log storage.Log) (string, error)

// Communicate calls f.
func (f AgentFunc) Communicate(ctx context.Context, text string, log storage.Log) (string, error) {
	return f(ctx, text, log)
}

// EchoAgent logs a thought and a response that repeats the message. It
// stands in for a real agent when the server runs on its own.
type EchoAgent struct {
	// Name is used in entry headings (default: "Agent 0")
	Name string
}

// Communicate implements Agent.
func (a EchoAgent) Communicate(ctx context.Context, text string, log storage.Log) (string, error) {
	name := a.Name
	if name == "" {
		name = "Agent 0"
	}

	var kv model.KVPairs
	kv.Set("thoughts", []string{"The user said: " + text, "I will repeat it back."})
	if _, err := log.Append(ctx, model.LogEntry{
		Type:    model.TypeAgent,
		Heading: name + ": Generating",
		Content: model.Text(""),
		KVPs:    kv,
	}); err != nil {
		return "", err
	}

	reply := "You said: " + strings.TrimSpace(text)
	if _, err := log.Append(ctx, model.LogEntry{
		Type:    model.TypeResponse,
		Heading: name + ": Responding",
		Content: model.Text(reply),
	}); err != nil {
		return "", err
	}
	return reply, nil
}

// =============================================================================
// TRANSCRIBER
// =============================================================================

// Transcriber turns a finished recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// StaticTranscriber returns fixed text. It is the default when no speech
// backend is configured.
type StaticTranscriber struct {
	Text string
}

// Transcribe implements Transcriber.
func (t StaticTranscriber) Transcribe(context.Context) (string, error) {
	return t.Text, nil
}

// =============================================================================
// RECORDER
// =============================================================================

const (
	msgAlreadyRecording = "Recording is already in progress."
	msgNotRecording     = "No recording in progress."
	msgStopping         = "Recording is being stopped."
)

type recordState int

const (
	recordIdle recordState = iota
	recordActive
	recordStopping
)

// recorder holds the server side of the single recording session. A
// session being transcribed stays busy until finishStop.
type recorder struct {
	mu    sync.Mutex
	state recordState
}

// start reports false if a session is active or being stopped.
func (r *recorder) start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != recordIdle {
		return false
	}
	r.state = recordActive
	return true
}

// beginStop moves an active session to stopping. On failure it returns
// the rejection message.
func (r *recorder) beginStop() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case recordIdle:
		return msgNotRecording, false
	case recordStopping:
		return msgStopping, false
	}
	r.state = recordStopping
	return "", true
}

// finishStop ends a stop started by beginStop. A failed stop leaves the
// session active.
func (r *recorder) finishStop(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != recordStopping {
		return
	}
	if ok {
		r.state = recordIdle
	} else {
		r.state = recordActive
	}
}

func (r *recorder) active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != recordIdle
}

// =============================================================================
// PAUSE GATE
// =============================================================================

// gate blocks agent work while the agent is paused.
type gate struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

func newGate() *gate {
	return &gate{resume: make(chan struct{})}
}

func (g *gate) set(paused bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if paused == g.paused {
		return
	}
	g.paused = paused
	if !paused {
		close(g.resume)
		g.resume = make(chan struct{})
	}
}

func (g *gate) isPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// wait returns once the agent is not paused or ctx is done.
func (g *gate) wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if !g.paused {
			g.mu.Unlock()
			return nil
		}
		ch := g.resume
		g.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
