// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
	"github.com/harishvijayasarangan/agent0-voice/internal/util"
)

const emptyTranscript = "No entries yet. Type a message below."

func (m Model) renderChat() string {
	if !m.ready {
		return "Connecting..."
	}
	parts := []string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderCompose(),
		m.renderStatusBar(),
	}
	if m.showHelp {
		parts = append(parts, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Agent0")
	if m.serverURL == "" || m.theme.GetLayoutMode() == styles.LayoutNarrow {
		return m.theme.Header.Render(title)
	}
	sub := m.theme.HeaderSubtitle.Render(" " + m.serverURL)
	return m.theme.Header.Render(title + sub)
}

// renderTranscript renders every item; provisional echoes are dimmed
// until a poll confirms them.
func (m Model) renderTranscript(opts handlers.Options) string {
	items := m.transcript.Items()
	if len(items) == 0 {
		return m.theme.BlockMeta.Render(emptyTranscript)
	}
	parts := make([]string, len(items))
	for i, it := range items {
		s := it.Render(opts)
		if it.Provisional {
			s = m.theme.Provisional.Render(s)
		}
		parts[i] = s
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderCompose() string {
	return m.theme.InputContainer.Render(m.compose.view())
}

func (m Model) renderStatusBar() string {
	snap := m.status.Snapshot()

	var left []string
	if snap.Connected {
		left = append(left, m.theme.StatusConnected.Render(styles.StatusIndicators.Success+" connected"))
	} else {
		left = append(left, m.theme.StatusDisconnected.Render(styles.StatusIndicators.Error+" disconnected"))
	}
	if snap.Paused {
		left = append(left, m.theme.StatusPaused.Render("PAUSED"))
	}
	if snap.Recording {
		left = append(left, m.theme.StatusRecording.Render(styles.StatusIndicators.Active+" REC"))
	}
	if m.busy() {
		left = append(left, m.spinner.View())
	}
	bar := strings.Join(left, " ")

	hint := m.theme.ShortcutKey.Render("F1") + m.theme.ShortcutDesc.Render(" help")
	room := m.width - lipgloss.Width(bar) - lipgloss.Width(hint) - 2
	if snap.Text != "" && room > 0 {
		bar += " " + m.theme.StatusText.Render(util.Truncate(util.SingleLine(snap.Text), room))
	}
	if gap := m.width - lipgloss.Width(bar) - lipgloss.Width(hint); gap > 0 {
		bar += strings.Repeat(" ", gap) + hint
	}
	return m.theme.StatusBar.Render(bar)
}

// busy reports whether any remote request is outstanding.
func (m Model) busy() bool {
	return m.pending > 0 || m.recorder.Pending() || m.engine.InFlight()
}
