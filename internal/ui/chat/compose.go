// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harishvijayasarangan/agent0-voice/internal/recording"
)

const composePlaceholder = "Type a message, or C-r to dictate..."

// composeBox is the message input. It satisfies recording.Compose; the
// model keeps it behind a pointer so the controller's edits survive
// Bubble Tea copying the model.
type composeBox struct {
	area     textarea.Model
	readOnly bool
}

var _ recording.Compose = (*composeBox)(nil)

func newComposeBox(keys KeyMap) *composeBox {
	ta := textarea.New()
	ta.Placeholder = composePlaceholder
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 8192
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()
	return &composeBox{area: ta}
}

// SetValue replaces the input text.
func (c *composeBox) SetValue(s string) {
	c.area.SetValue(s)
	c.area.CursorEnd()
}

// SetReadOnly locks or unlocks the input. A locked input ignores keys.
func (c *composeBox) SetReadOnly(readOnly bool) {
	c.readOnly = readOnly
	if readOnly {
		c.area.Blur()
		return
	}
	c.area.Focus()
}

// ReadOnly reports whether the input is locked.
func (c *composeBox) ReadOnly() bool {
	return c.readOnly
}

// Value returns the input text.
func (c *composeBox) Value() string {
	return c.area.Value()
}

// Take returns the trimmed input and clears it. Empty input is left as is.
func (c *composeBox) Take() (string, bool) {
	text := strings.TrimSpace(c.area.Value())
	if text == "" {
		return "", false
	}
	c.area.Reset()
	return text, true
}

func (c *composeBox) setWidth(w int) {
	c.area.SetWidth(w)
}

func (c *composeBox) update(msg tea.Msg) tea.Cmd {
	if c.readOnly {
		return nil
	}
	var cmd tea.Cmd
	c.area, cmd = c.area.Update(msg)
	return cmd
}

func (c *composeBox) view() string {
	return c.area.View()
}
