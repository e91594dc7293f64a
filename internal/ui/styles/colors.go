// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Agent reasoning and selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color for tools and commands
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Responses and success states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors and the recording indicator
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings and the paused indicator
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Blue - User messages
var Blue = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, sequence numbers, thoughts
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// ENTRY ACCENTS
// =============================================================================

// entryAccents maps log entry types to their heading color.
var entryAccents = map[string]lipgloss.AdaptiveColor{
	model.TypeUser:      Blue,
	model.TypeAgent:     Purple,
	model.TypeResponse:  Emerald,
	model.TypeTool:      Cyan,
	model.TypeCodeExe:   Cyan,
	model.TypeWarning:   Amber,
	model.TypeRateLimit: Amber,
	model.TypeError:     Rose,
	model.TypeInfo:      TextSecondary,
	model.TypeUtil:      TextMuted,
	model.TypeHint:      Cyan,
	model.TypeAdhoc:     Purple,
}

// EntryAccent returns the heading color for an entry type. Unknown types
// get TextSecondary.
func EntryAccent(tag string) lipgloss.AdaptiveColor {
	if c, ok := entryAccents[tag]; ok {
		return c
	}
	return TextSecondary
}

// =============================================================================
// ACCESSIBILITY: Shapes alongside colors
// =============================================================================

// StatusIndicatorSet contains text indicators for status states, so state
// never depends on color alone.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
	Active  string
}

// StatusIndicators are ASCII-only for maximum compatibility.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
	Active:  "[*]",
}

// EntryIndicator returns the shape shown before an entry heading.
func EntryIndicator(tag string) string {
	switch tag {
	case model.TypeError:
		return StatusIndicators.Error
	case model.TypeWarning, model.TypeRateLimit:
		return StatusIndicators.Warning
	case model.TypeInfo, model.TypeHint, model.TypeUtil:
		return StatusIndicators.Info
	}
	return ""
}

// RenderSuccess renders a success message with its indicator.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error message with its indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning message with its indicator.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).
		Render(StatusIndicators.Warning + " " + message)
}
