// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harishvijayasarangan/agent0-voice/internal/config"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the configuration",
		Long: `Reads and writes ~/.agent0/config.toml (or the file named by --config).

Keys use dot notation, for example sync.poll_interval or ui.theme.
Environment overrides (AGENT0_URL, AGENT0_POLL_INTERVAL, AGENT0_LOG_LEVEL,
AGENT0_ADDR, AGENT0_DB) apply to show and get but are never saved.`,
		// config set must work on a file that no longer validates, so the
		// root setup is replaced by a quiet one.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			a.logger = zap.NewNop()
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, _, err := a.loadConfig()
				if err != nil {
					return configError{err}
				}
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, _, err := a.loadConfig()
				if err != nil {
					return configError{err}
				}
				v, err := cfg.Get(args[0])
				if err != nil {
					return &UsageError{Reason: err.Error()}
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Change one configuration value and save the file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.targetPath()
				if err != nil {
					return configError{err}
				}
				cfg, err := loadFile(path)
				if err != nil {
					return configError{err}
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return &UsageError{Reason: err.Error()}
				}
				cfg.SetDefaults()
				if err := cfg.Validate(); err != nil {
					return configError{err}
				}
				if err := config.SaveToPath(cfg, path); err != nil {
					return commandError("config", "save", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), styles.RenderSuccess(fmt.Sprintf("%s saved to %s", args[0], path)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List every configuration key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.GetAllKeys(), "\n"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := a.targetPath()
				if err != nil {
					return configError{err}
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

// targetPath is the file config set writes: --config, else the file Load
// reads, else the default TOML path.
func (a *app) targetPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	if p := config.ExistingPath(); p != "" {
		return p, nil
	}
	return config.ConfigPathTOML()
}

// loadFile reads path over the defaults without environment overrides or
// validation. A missing file yields the defaults.
func loadFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	var err error
	if strings.HasSuffix(path, ".json") {
		err = config.LoadJSON(cfg, path)
	} else {
		err = config.LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
