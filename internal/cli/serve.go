// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harishvijayasarangan/agent0-voice/internal/logging"
	"github.com/harishvijayasarangan/agent0-voice/internal/server"
	"github.com/harishvijayasarangan/agent0-voice/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference agent server",
		Long: `Serves the agent log protocol on server.addr.

The bundled agent echoes every message back as a response. Entries are kept
in memory unless server.db_path (or --db) names a SQLite database, in which
case the log survives restarts.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logFallback: logging.Stderr},
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.Server
			if addr != "" {
				sc.Addr = addr
			}
			if dbPath != "" {
				sc.DBPath = dbPath
			}

			ctx := cmd.Context()
			log, err := openLog(cmd, sc.DBPath)
			if err != nil {
				return commandError("serve", "open log", err)
			}
			defer log.Close()

			ln, err := net.Listen("tcp", sc.Addr)
			if err != nil {
				return commandError("serve", "listen", err)
			}

			srv := server.New(server.Config{
				Addr:        sc.Addr,
				Log:         log,
				Transcriber: server.StaticTranscriber{Text: sc.Transcription},
				Logger:      a.logger,
				RateLimit:   sc.RateLimit,
				Burst:       sc.Burst,
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "agent0 server listening on http://%s\n", ln.Addr())
			a.logger.Info("serving", zap.String("addr", ln.Addr().String()), zap.String("db", sc.DBPath))
			return srv.Run(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path, overrides server.db_path")
	return cmd
}

// openLog opens the SQLite log at path, or an in-memory log when path is
// empty.
func openLog(cmd *cobra.Command, path string) (storage.Log, error) {
	if path == "" {
		return storage.NewMemory(), nil
	}
	return storage.OpenSQLite(cmd.Context(), path)
}
