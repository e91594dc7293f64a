// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harishvijayasarangan/agent0-voice/internal/config"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/chat"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
)

// runTUI starts the interactive chat UI and blocks until it exits.
func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	if !IsTTY() {
		return &UsageError{Reason: "the chat UI needs a terminal; use agent0 chat or agent0 tail instead"}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cwd, _ := os.Getwd()
	m := chat.New(chat.Options{
		Remote:    a.client(),
		Theme:     styles.ForName(a.cfg.UI.Theme),
		UI:        a.cfg.UI,
		Interval:  a.cfg.Sync.PollInterval.Std(),
		ServerURL: a.cfg.Remote.URL,
		ExportDir: cwd,
		Logger:    a.logger.Named("ui"),
		Context:   ctx,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if a.source != "" {
		go a.watchConfig(ctx, p)
	}

	a.logger.Info("ui start", zap.String("url", a.cfg.Remote.URL))
	_, err := p.Run()
	return err
}

// watchConfig forwards UI settings from the config file to p as it is
// edited.
func (a *app) watchConfig(ctx context.Context, p *tea.Program) {
	err := config.Watch(ctx, a.source, func(cfg *config.Config, err error) {
		if err != nil {
			a.logger.Warn("config reload failed", zap.Error(err))
			return
		}
		a.logger.Info("config reloaded", zap.String("path", a.source))
		p.Send(chat.ConfigReloadedMsg{UI: cfg.UI})
	})
	if err != nil && ctx.Err() == nil {
		a.logger.Warn("config watch stopped", zap.Error(err))
	}
}
