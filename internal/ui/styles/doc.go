// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the agent0 TUI.

All colors are Lip Gloss AdaptiveColor values. ForName pins the background
for "dark" and "light" themes and detects it with termenv for "auto", so
every adaptive color resolves consistently.

# Colors (colors.go)

  - Blue - User messages
  - Purple - Agent reasoning
  - Emerald - Responses and the connected indicator
  - Cyan - Tools, code execution and key hints
  - Amber - Warnings, rate limits and the paused indicator
  - Rose - Errors and the recording indicator

EntryAccent maps a log entry type to its heading color and EntryIndicator
adds an ASCII shape for the entry types where color carries meaning.

# Theme (theme.go)

Theme groups the styles for the transcript blocks, the compose input and
the status bar. It also names the glamour and chroma styles that match
the background, plus the chroma formatter for the color profile:

	theme := styles.ForName(cfg.UI.Theme)
	heading := theme.Heading(entry.Type).Render(entry.Heading)
*/
package styles
