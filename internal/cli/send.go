// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/render"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
)

func newSendCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "send TEXT...",
		Short: "Send one message and print the logged entry",
		Example: `  agent0 send "summarize the last run"
  agent0 send --json hello`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return &UsageError{Reason: "message is empty"}
			}

			echo, err := a.client().Send(cmd.Context(), text)
			if err != nil {
				return commandError("send", "message", err)
			}
			a.logger.Debug("message sent")

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(echo.Entry())
			}

			var theme *styles.Theme
			if styled(out) {
				theme = styles.ForName(a.cfg.UI.Theme)
			}
			block := render.NewRegistry(theme).Bind(echo.Entry())
			fmt.Fprintln(out, block.Render(handlers.Options{
				Width:        terminalWidth(out),
				ShowJSON:     a.cfg.UI.ShowJSON,
				ShowThoughts: a.cfg.UI.ShowThoughts,
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the entry as JSON")
	return cmd
}
