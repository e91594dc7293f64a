// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for agent0.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - RemoteConfig: Agent server URL and request timeout
//   - SyncConfig: Log polling interval
//   - UIConfig: Transcript display toggles
//   - ServerConfig: Settings for the bundled reference server
//   - Duration: time.Duration stored as text ("5s")
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (AGENT0_*)
//   - ~/.agent0/config.toml
//   - ~/.agent0/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	interval := cfg.Sync.PollInterval.Std()
//	v, _ := cfg.Get("ui.show_json")
//
// Watch a file for edits:
//
//	err := config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
