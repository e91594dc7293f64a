// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harishvijayasarangan/agent0-voice/internal/client"
	"github.com/harishvijayasarangan/agent0-voice/internal/export"
	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/recording"
)

const (
	opPause  = "pause"
	opResume = "resume"
	opReset  = "reset"
)

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.help.Width = msg.Width
	m.compose.setWidth(msg.Width - 2)

	m.viewport.Width = msg.Width
	m.viewport.Height = m.viewportHeight()
	m.ready = true
	m.refresh()
	return m, nil
}

// viewportHeight is what is left after the header, compose box and
// status bar.
func (m Model) viewportHeight() int {
	h := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderCompose()) - 1
	if m.showHelp {
		h -= lipgloss.Height(m.help.View(m.keys))
	}
	if h < 1 {
		h = 1
	}
	return h
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.Record):
		return m.toggleRecording()

	case key.Matches(msg, m.keys.Pause):
		return m.togglePause()

	case key.Matches(msg, m.keys.Reset):
		return m.reset()

	case key.Matches(msg, m.keys.AutoScroll):
		m.autoScroll = !m.autoScroll
		if m.autoScroll {
			m.viewport.GotoBottom()
		}
		m.status.SetText(onOff("Auto-scroll", m.autoScroll))
		return m, nil

	case key.Matches(msg, m.keys.ShowJSON):
		m.showJSON = !m.showJSON
		m.status.SetText(onOff("JSON", m.showJSON))
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ShowThoughts):
		m.showThoughts = !m.showThoughts
		m.status.SetText(onOff("Thoughts", m.showThoughts))
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m.exportTranscript()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.viewport.Height = m.viewportHeight()
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, m.compose.update(msg)
}

func onOff(what string, on bool) string {
	if on {
		return what + " on"
	}
	return what + " off"
}

// =============================================================================
// SEND
// =============================================================================

func (m Model) send() (tea.Model, tea.Cmd) {
	if m.compose.ReadOnly() {
		m.status.SetText("Stop recording before sending")
		return m, nil
	}
	text, ok := m.compose.Take()
	if !ok {
		return m, nil
	}
	m.pending++
	ctx, remote := m.ctx, m.remote
	guid := m.engine.Cursor().SessionGuid
	return m, func() tea.Msg {
		echo, err := remote.Send(ctx, text)
		return sendResultMsg{echo: echo, guid: guid, err: err}
	}
}

func (m Model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	m.pending--
	if msg.err != nil {
		m.logRemoteError("send", msg.err)
		m.status.SetText("Send failed: " + reasonOf(msg.err))
		return m, nil
	}
	if msg.echo != nil && m.engine.RenderEcho(msg.guid, msg.echo.Entry()) {
		m.refresh()
	}
	m.status.SetText("")
	return m, m.startPoll()
}

// =============================================================================
// RECORDING
// =============================================================================

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	ctx, remote := m.ctx, m.remote
	if m.recorder.State() == recording.Recording {
		if err := m.recorder.BeginStop(); err != nil {
			m.status.SetText(rejection(err))
			return m, nil
		}
		return m, func() tea.Msg {
			text, err := remote.StopRecording(ctx)
			return recordingStoppedMsg{transcription: text, err: err}
		}
	}
	if err := m.recorder.BeginStart(); err != nil {
		m.status.SetText(rejection(err))
		return m, nil
	}
	return m, func() tea.Msg {
		return recordingStartedMsg{err: remote.StartRecording(ctx)}
	}
}

func rejection(err error) string {
	switch {
	case errors.Is(err, recording.ErrBusy):
		return "Recording request in progress"
	case errors.Is(err, recording.ErrAlreadyRecording):
		return "Already recording"
	case errors.Is(err, recording.ErrNotRecording):
		return "Not recording"
	}
	return err.Error()
}

// =============================================================================
// PAUSE AND RESET
// =============================================================================

func (m Model) togglePause() (tea.Model, tea.Cmd) {
	paused := !m.status.Snapshot().Paused
	op := opPause
	if !paused {
		op = opResume
	}
	m.pending++
	ctx, remote := m.ctx, m.remote
	return m, func() tea.Msg {
		return ackMsg{op: op, paused: paused, err: remote.Pause(ctx, paused)}
	}
}

func (m Model) reset() (tea.Model, tea.Cmd) {
	m.pending++
	ctx, remote := m.ctx, m.remote
	return m, func() tea.Msg {
		return ackMsg{op: opReset, err: remote.Reset(ctx)}
	}
}

func (m Model) handleAck(msg ackMsg) (tea.Model, tea.Cmd) {
	m.pending--
	if msg.err != nil {
		m.logRemoteError(msg.op, msg.err)
		m.status.SetText(msg.op + " failed: " + reasonOf(msg.err))
		return m, nil
	}

	switch msg.op {
	case opPause, opResume:
		// the paused flag itself is taken from the next poll
		if msg.paused {
			m.status.SetText("Agent paused")
		} else {
			m.status.SetText("Agent resumed")
		}
		return m, m.startPoll()
	case opReset:
		m.engine.Invalidate()
		m.status.SetText("Chat reset")
		return m, m.startPoll()
	}
	return m, nil
}

// =============================================================================
// EXPORT
// =============================================================================

func (m Model) exportTranscript() (tea.Model, tea.Cmd) {
	items := m.transcript.Items()
	if len(items) == 0 {
		m.status.SetText("Nothing to export")
		return m, nil
	}
	doc := export.FromTranscript(items, m.engine.Cursor(), m.now())
	path := filepath.Join(m.exportDir, export.DefaultFilename(doc, ".md"))

	m.pending++
	m.status.SetText("Exporting...")
	return m, func() tea.Msg {
		err := export.ToFile(doc, path, export.DefaultOptions())
		return exportResultMsg{path: path, err: err}
	}
}

// =============================================================================
// RENDERING
// =============================================================================

func (m Model) renderOptions() handlers.Options {
	w := m.viewport.Width
	if w <= 0 {
		w = m.width
	}
	return handlers.Options{Width: w, ShowJSON: m.showJSON, ShowThoughts: m.showThoughts}
}

// refresh re-renders the transcript into the viewport. It is a no-op when
// nothing visible changed since the last call.
func (m *Model) refresh() {
	opts := m.renderOptions()
	k := renderKey{
		revision:     m.transcript.Revision(),
		width:        opts.Width,
		showJSON:     opts.ShowJSON,
		showThoughts: opts.ShowThoughts,
	}
	if k == m.rendered {
		return
	}
	m.rendered = k

	wasBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript(opts))
	if m.autoScroll || wasBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func isApplication(err error) bool {
	return client.IsApplication(err)
}

func reasonOf(err error) string {
	if err == nil {
		return ""
	}
	return client.Reason(err)
}

