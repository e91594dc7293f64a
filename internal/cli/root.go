// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harishvijayasarangan/agent0-voice/internal/client"
	"github.com/harishvijayasarangan/agent0-voice/internal/config"
	"github.com/harishvijayasarangan/agent0-voice/internal/logging"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// logFallback is the command annotation naming where the command logs
// when log.path is empty. Unannotated commands log to the default file.
const logFallback = "log-fallback"

// app is the state shared by every command in one invocation.
type app struct {
	configPath string
	url        string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger

	// source is the config file that was read, empty for defaults
	source string
}

// NewRootCmd builds the agent0 command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "agent0",
		Short: "Terminal client for an Agent Zero style agent server",
		Long: `agent0 keeps a terminal transcript in sync with an agent server's log.

Run without arguments to start the interactive chat interface. Messages are
sent with enter; C-r starts and stops voice dictation, C-p pauses the agent
and C-x resets the chat. F1 lists every key.`,
		Version:           Version + " (" + GitCommit + ")",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
		RunE:              a.runTUI,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.agent0/config.toml)")
	flags.StringVar(&a.url, "url", "", "agent server URL, overrides remote.url")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newTailCmd(a),
		newChatCmd(a),
		newSendCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the command tree with os.Args and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styles.RenderError(err.Error()))
		return ExitCode(err)
	}
	return ExitSuccess
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, source, err := a.loadConfig()
	if err != nil {
		return configError{err}
	}
	if a.url != "" {
		cfg.Remote.URL = strings.TrimRight(a.url, "/")
	}
	if a.logLevel != "" {
		cfg.Log.Level = strings.ToLower(a.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return configError{fmt.Errorf("invalid config: %w", err)}
	}
	a.cfg, a.source = cfg, source
	config.SetGlobal(cfg)

	fallback := cmd.Annotations[logFallback]
	if fallback == "" {
		if p, err := config.DefaultLogPath(); err == nil {
			fallback = p
		}
	}
	logger, err := logging.New(cfg.Log, fallback)
	if err != nil {
		return configError{fmt.Errorf("logger: %w", err)}
	}
	a.logger = logger.With(zap.String("cmd", cmd.Name()))
	a.logger.Debug("config loaded", zap.String("source", source))
	return nil
}

func (a *app) loadConfig() (*config.Config, string, error) {
	if a.configPath != "" {
		cfg, err := config.LoadFromPath(a.configPath)
		return cfg, a.configPath, err
	}
	source := config.ExistingPath()
	cfg, err := config.Load()
	return cfg, source, err
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// client returns a remote client for the configured server.
func (a *app) client() *client.Client {
	return client.New(&client.Config{
		BaseURL: a.cfg.Remote.URL,
		Timeout: a.cfg.Remote.Timeout.Std(),
	})
}

// styled reports whether output to w should carry colors.
func styled(w io.Writer) bool {
	return isTerminal(w) && os.Getenv("NO_COLOR") == ""
}
