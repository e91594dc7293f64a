// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the agent0 command tree.
//
// Running agent0 with no subcommand starts the terminal chat UI. The
// subcommands cover headless use and the bundled reference server:
//
//	agent0                     interactive TUI
//	agent0 serve               run the reference agent server
//	agent0 tail [--export F]   print the agent log as it grows
//	agent0 chat                line-mode chat with history
//	agent0 send TEXT           send one message and print the echo
//	agent0 config show|get|set|path
//
// Global flags --config, --url and --log-level apply to every command.
// Configuration is loaded once in the root command's PersistentPreRunE
// and the logger is built from its log section. Commands that own the
// terminal log to ~/.agent0/agent0.log unless log.path says otherwise;
// serve logs to stderr.
//
// Execute returns a process exit code; see the Exit* constants.
package cli
