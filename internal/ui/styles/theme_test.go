// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

func TestForName(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantDark bool
	}{
		{"dark", ThemeDark, true},
		{"LIGHT", ThemeLight, false},
	}
	for _, tt := range tests {
		theme := ForName(tt.name)
		if theme.Name != tt.wantName {
			t.Errorf("ForName(%q).Name = %q, want %q", tt.name, theme.Name, tt.wantName)
		}
		if theme.IsDark != tt.wantDark {
			t.Errorf("ForName(%q).IsDark = %v, want %v", tt.name, theme.IsDark, tt.wantDark)
		}
	}

	if got := ForName("neon").Name; got != ThemeAuto {
		t.Errorf("unknown theme should fall back to auto, got %q", got)
	}
}

func TestTheme_ExternalStyleNames(t *testing.T) {
	dark := ForName(ThemeDark)
	if dark.GlamourStyle() != "dark" || dark.ChromaStyle() != "monokai" {
		t.Errorf("dark theme styles = %q, %q", dark.GlamourStyle(), dark.ChromaStyle())
	}
	light := ForName(ThemeLight)
	if light.GlamourStyle() != "light" || light.ChromaStyle() != "github" {
		t.Errorf("light theme styles = %q, %q", light.GlamourStyle(), light.ChromaStyle())
	}
}

func TestTheme_ChromaFormatter(t *testing.T) {
	theme := ForName(ThemeDark)
	tests := map[termenv.Profile]string{
		termenv.TrueColor: "terminal16m",
		termenv.ANSI256:   "terminal256",
		termenv.ANSI:      "terminal16",
		termenv.Ascii:     "noop",
	}
	for profile, want := range tests {
		theme.ColorProfile = profile
		if got := theme.ChromaFormatter(); got != want {
			t.Errorf("ChromaFormatter(%v) = %q, want %q", profile, got, want)
		}
	}
}

func TestTheme_StylesRender(t *testing.T) {
	theme := ForName(ThemeDark)
	for name, out := range map[string]string{
		"heading":   theme.Heading(model.TypeError).Render("boom"),
		"body":      theme.BlockBody.Render("text"),
		"statusbar": theme.StatusBar.Render("ok"),
		"thoughts":  theme.Thoughts.Render("hmm"),
	} {
		if strings.TrimSpace(out) == "" {
			t.Errorf("%s style rendered empty output", name)
		}
	}
}

func TestEntryAccent(t *testing.T) {
	if EntryAccent(model.TypeError) != Rose {
		t.Error("error entries should use Rose")
	}
	if EntryAccent("mystery") != TextSecondary {
		t.Error("unknown entries should use TextSecondary")
	}
}

func TestEntryIndicator(t *testing.T) {
	if EntryIndicator(model.TypeError) != StatusIndicators.Error {
		t.Error("error indicator")
	}
	if EntryIndicator(model.TypeRateLimit) != StatusIndicators.Warning {
		t.Error("rate_limit should share the warning indicator")
	}
	if EntryIndicator(model.TypeResponse) != "" {
		t.Error("responses carry no indicator")
	}
}

func TestLayoutMode(t *testing.T) {
	theme := ForName(ThemeDark)
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{80, LayoutMedium},
		{120, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tt.width, got, tt.want)
		}
	}
}
