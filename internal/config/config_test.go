// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// isolate points the home directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range []string{"AGENT0_URL", "AGENT0_POLL_INTERVAL", "AGENT0_LOG_LEVEL", "AGENT0_ADDR", "AGENT0_DB"} {
		t.Setenv(k, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Remote.URL = "http://10.0.0.1:5000"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_ConcurrentReload tests concurrent ReloadGlobal and Global calls.
func TestConfig_ConcurrentReload(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	_ = Global()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ReloadGlobal(); err != nil {
				t.Errorf("ReloadGlobal() error = %v", err)
			}
		}()
	}
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

// TestConfig_SetGlobalOverwrites tests that SetGlobal properly overwrites
// the existing global config.
func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	_ = Global()

	custom := Default()
	custom.UI.Theme = "light"
	SetGlobal(custom)

	if got := Global().UI.Theme; got != "light" {
		t.Errorf("Expected theme 'light', got '%s'", got)
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Remote.URL != "http://127.0.0.1:5000" {
		t.Errorf("Remote.URL = %q", cfg.Remote.URL)
	}
	if cfg.Sync.PollInterval.Std() != 5*time.Second {
		t.Errorf("Sync.PollInterval = %s, want 5s", cfg.Sync.PollInterval)
	}
	if !cfg.UI.AutoScroll {
		t.Error("auto_scroll should default on")
	}
	if cfg.UI.ShowJSON {
		t.Error("show_json should default off")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{name: "valid default config", mutate: func(c *Config) {}},
		{name: "https url", mutate: func(c *Config) { c.Remote.URL = "https://agent.example.com" }},
		{name: "url without scheme", mutate: func(c *Config) { c.Remote.URL = "localhost:5000" }, field: "remote.url", wantErr: true},
		{name: "ftp url", mutate: func(c *Config) { c.Remote.URL = "ftp://host" }, field: "remote.url", wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Remote.Timeout = -1 }, field: "remote.timeout", wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Remote.Timeout = 0 }},
		{name: "interval below minimum", mutate: func(c *Config) { c.Sync.PollInterval = Duration(10 * time.Millisecond) }, field: "sync.poll_interval", wantErr: true},
		{name: "interval at minimum", mutate: func(c *Config) { c.Sync.PollInterval = Duration(MinPollInterval) }},
		{name: "invalid theme", mutate: func(c *Config) { c.UI.Theme = "neon" }, field: "ui.theme", wantErr: true},
		{name: "negative rate limit", mutate: func(c *Config) { c.Server.RateLimit = -1 }, field: "server.rate_limit", wantErr: true},
		{name: "zero burst with limit", mutate: func(c *Config) { c.Server.Burst = 0 }, field: "server.burst", wantErr: true},
		{name: "zero burst unlimited", mutate: func(c *Config) { c.Server.RateLimit = 0; c.Server.Burst = 0 }},
		{name: "invalid log level", mutate: func(c *Config) { c.Log.Level = "trace" }, field: "log.level", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error %T is not ValidateErrors", err)
			}
			if verrs[0].Field != tt.field {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.field)
			}
		})
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Remote.URL != Default().Remote.URL {
		t.Errorf("Remote.URL = %q", cfg.Remote.URL)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".agent0", "config.toml"), `
[remote]
url = "http://192.168.1.20:5000/"

[sync]
poll_interval = "2s"

[ui]
show_json = true
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Remote.URL != "http://192.168.1.20:5000" {
		t.Errorf("Remote.URL = %q, trailing slash should be trimmed", cfg.Remote.URL)
	}
	if cfg.Sync.PollInterval.Std() != 2*time.Second {
		t.Errorf("PollInterval = %s", cfg.Sync.PollInterval)
	}
	if !cfg.UI.ShowJSON {
		t.Error("show_json not loaded")
	}
	// Untouched sections keep defaults
	if !cfg.UI.AutoScroll {
		t.Error("auto_scroll should keep its default")
	}
	if cfg.Server.Addr != "127.0.0.1:5000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_JSONFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".agent0", "config.json"), `{"log": {"level": "DEBUG"}, "remote": {"timeout": "10s"}}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want lowercased debug", cfg.Log.Level)
	}
	if cfg.Remote.Timeout.Std() != 10*time.Second {
		t.Errorf("Remote.Timeout = %s", cfg.Remote.Timeout)
	}
}

func TestLoadFromPath_Errors(t *testing.T) {
	dir := t.TempDir()
	isolate(t)

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown toml key", "a.toml", "[remote]\nuri = \"x\"\n"},
		{"bad toml", "b.toml", "[remote\n"},
		{"bad duration", "c.toml", "[sync]\npoll_interval = \"soon\"\n"},
		{"invalid value", "d.toml", "[ui]\ntheme = \"neon\"\n"},
		{"unknown json key", "e.json", `{"remote": {"uri": "x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)
			if _, err := LoadFromPath(path); err == nil {
				t.Error("LoadFromPath() expected error")
			}
		})
	}

	if _, err := LoadFromPath(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("AGENT0_URL", "http://agent:9000")
	t.Setenv("AGENT0_POLL_INTERVAL", "750ms")
	t.Setenv("AGENT0_LOG_LEVEL", "warn")
	t.Setenv("AGENT0_ADDR", ":9000")
	t.Setenv("AGENT0_DB", "/tmp/agent0.db")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Remote.URL != "http://agent:9000" {
		t.Errorf("Remote.URL = %q", cfg.Remote.URL)
	}
	if cfg.Sync.PollInterval.Std() != 750*time.Millisecond {
		t.Errorf("PollInterval = %s", cfg.Sync.PollInterval)
	}
	if cfg.Log.Level != "warn" || cfg.Server.Addr != ":9000" || cfg.Server.DBPath != "/tmp/agent0.db" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Log, cfg.Server)
	}

	t.Setenv("AGENT0_POLL_INTERVAL", "nope")
	cfg = Default()
	cfg.ApplyEnvOverrides()
	if cfg.Sync.PollInterval.Std() != 5*time.Second {
		t.Errorf("unparsable interval should be ignored, got %s", cfg.Sync.PollInterval)
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("ui.auto_scroll")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != true {
		t.Errorf("Get('ui.auto_scroll') = %v, want true", val)
	}

	tests := []struct {
		key   string
		value interface{}
		want  interface{}
	}{
		{"ui.show_json", "yes", true},
		{"ui.show-thoughts", "off", false},
		{"remote.url", "http://other:5000", "http://other:5000"},
		{"sync.poll_interval", "1m", Duration(time.Minute)},
		{"server.burst", "7", 7},
		{"server.rate_limit", "2.5", 2.5},
		{"server.burst", 9, 9},
		{"log.level", "error", "error"},
	}
	for _, tt := range tests {
		if err := cfg.Set(tt.key, tt.value); err != nil {
			t.Fatalf("Set(%q, %v) error = %v", tt.key, tt.value, err)
		}
		got, _ := cfg.Get(tt.key)
		if got != tt.want {
			t.Errorf("Get(%q) after Set = %v (%T), want %v (%T)", tt.key, got, got, tt.want, tt.want)
		}
	}

	for _, bad := range []struct {
		key   string
		value interface{}
	}{
		{"invalid.key", "x"},
		{"ui", "x"},
		{"ui.theme.color", "x"},
		{"", "x"},
		{"ui.show_json", "maybe"},
		{"server.burst", "many"},
		{"sync.poll_interval", "later"},
		{"server.burst", []string{"a"}},
	} {
		if err := cfg.Set(bad.key, bad.value); err == nil {
			t.Errorf("Set(%q, %v) should fail", bad.key, bad.value)
		}
	}
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, k := range GetAllKeys() {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q) error = %v", k, err)
		}
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.UI.ShowJSON = true
	cfg.Sync.PollInterval = Duration(1500 * time.Millisecond)
	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", loaded, cfg)
	}
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Server.DBPath = "agent0.db"
	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath() error = %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", loaded, cfg)
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	clone := original.Clone()
	clone.UI.Theme = "light"

	if original.UI.Theme != "dark" {
		t.Error("Clone should create an independent copy")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[ui]\nshow_json = false\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config, err error) {
			if err != nil {
				return
			}
			select {
			case got <- cfg:
			default:
			}
		})
	}()

	// Keep rewriting until the watcher has registered and sees a change.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-got:
			if !cfg.UI.ShowJSON {
				continue
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch() error = %v", err)
			}
			return
		case <-tick.C:
			writeFile(t, path, "[ui]\nshow_json = true\n")
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
