// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harishvijayasarangan/agent0-voice/internal/client"
	"github.com/harishvijayasarangan/agent0-voice/internal/config"
	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/logsync"
	"github.com/harishvijayasarangan/agent0-voice/internal/recording"
	"github.com/harishvijayasarangan/agent0-voice/internal/status"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/chat"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/render"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
)

const (
	linePrompt          = "agent0> "
	lineRecordingPrompt = "agent0 [rec]> "
)

const lineHelp = `Commands:
  /record   start dictation
  /stop     stop dictation and edit the transcription
  /pause    pause the agent
  /resume   resume the agent
  /reset    clear the chat
  /help     show this help
  /quit     leave
Anything else is sent as a message.`

// errQuit ends the line loop without an error.
var errQuit = errors.New("quit")

// lineReader is the part of liner.State the loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	PromptWithSuggestion(prompt, text string, pos int) (string, error)
	AppendHistory(item string)
}

// =============================================================================
// COMPOSE BUFFER
// =============================================================================

// lineCompose holds text waiting to be offered as the next prompt's
// starting value.
type lineCompose struct {
	mu       sync.Mutex
	value    string
	readOnly bool
}

func (c *lineCompose) SetValue(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = s
}

func (c *lineCompose) SetReadOnly(ro bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readOnly = ro
}

// take returns the pending text and clears it. A locked buffer keeps its
// placeholder and yields nothing.
func (c *lineCompose) take() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readOnly {
		return ""
	}
	s := c.value
	c.value = ""
	return s
}

// =============================================================================
// LINE CHAT
// =============================================================================

// lockedWriter serializes the prompt loop's output with the poller's.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// lineChat is the line-mode client. Polling runs in the background and
// prints confirmed entries; the prompt loop drives the same recording
// controller as the TUI.
type lineChat struct {
	remote   chat.Remote
	engine   *logsync.Engine
	recorder *recording.Controller
	compose  *lineCompose
	status   *status.Store
	out      io.Writer
	logger   *zap.Logger
}

type lineChatOptions struct {
	Remote   chat.Remote
	Out      io.Writer
	Render   handlers.Options
	Theme    *styles.Theme
	Interval time.Duration
	Logger   *zap.Logger
}

func newLineChat(opts lineChatOptions) *lineChat {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	out := &lockedWriter{w: opts.Out}
	st := status.New()
	compose := &lineCompose{}
	engine := logsync.New(opts.Remote, render.NewRegistry(opts.Theme), newPrinter(out, opts.Render), logsync.Options{
		Interval: opts.Interval,
		Status:   st,
		Logger:   opts.Logger.Named("sync"),
	})
	return &lineChat{
		remote:   opts.Remote,
		engine:   engine,
		recorder: recording.New(opts.Remote, compose, st, opts.Logger.Named("recording")),
		compose:  compose,
		status:   st,
		out:      out,
		logger:   opts.Logger,
	}
}

// run polls in the background and reads lines from in until /quit, EOF
// or ctx is done.
func (c *lineChat) run(ctx context.Context, in lineReader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.engine.Run(gctx)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return c.loop(gctx, in)
	})
	return g.Wait()
}

func (c *lineChat) loop(ctx context.Context, in lineReader) error {
	for ctx.Err() == nil {
		prompt := linePrompt
		if c.recorder.State() == recording.Recording {
			prompt = lineRecordingPrompt
		}

		var (
			line string
			err  error
		)
		if draft := c.compose.take(); draft != "" {
			line, err = in.PromptWithSuggestion(prompt, draft, -1)
		} else {
			line, err = in.Prompt(prompt)
		}
		if err != nil {
			// C-c, C-d and a closed stdin all end the session
			fmt.Fprintln(c.out)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		in.AppendHistory(line)

		if err := c.handle(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(c.out, styles.RenderError(client.Reason(err)))
		}
	}
	return nil
}

// handle runs one input line.
func (c *lineChat) handle(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		return c.send(ctx, line)
	}

	name, _, _ := strings.Cut(strings.ToLower(line), " ")
	switch name {
	case "/quit", "/exit", "/q":
		return errQuit
	case "/help", "/?":
		fmt.Fprintln(c.out, lineHelp)
		return nil
	case "/record":
		return c.reportRecording(c.recorder.Start(ctx))
	case "/stop":
		return c.reportRecording(c.recorder.Stop(ctx))
	case "/pause", "/resume":
		paused := name == "/pause"
		if err := c.remote.Pause(ctx, paused); err != nil {
			c.logFailure(name[1:], err)
			return err
		}
		c.pollNow(ctx)
		if paused {
			fmt.Fprintln(c.out, styles.RenderSuccess("agent paused"))
		} else {
			fmt.Fprintln(c.out, styles.RenderSuccess("agent resumed"))
		}
		return nil
	case "/reset":
		if err := c.remote.Reset(ctx); err != nil {
			c.logFailure("reset", err)
			return err
		}
		c.engine.Invalidate()
		c.pollNow(ctx)
		fmt.Fprintln(c.out, styles.RenderSuccess("chat reset"))
		return nil
	}
	return &UsageError{Reason: "unknown command " + name + ", try /help"}
}

func (c *lineChat) send(ctx context.Context, text string) error {
	if c.recorder.State() == recording.Recording {
		return &UsageError{Reason: "recording in progress, /stop first"}
	}
	guid := c.engine.Cursor().SessionGuid
	echo, err := c.remote.Send(ctx, text)
	if err != nil {
		c.logFailure("send", err)
		return err
	}
	c.engine.RenderEcho(guid, echo.Entry())
	c.pollNow(ctx)
	return nil
}

// reportRecording prints the controller's status after a start or stop.
// Local rejections are printed as warnings and are not errors.
func (c *lineChat) reportRecording(err error) error {
	switch {
	case errors.Is(err, recording.ErrAlreadyRecording),
		errors.Is(err, recording.ErrNotRecording),
		errors.Is(err, recording.ErrBusy):
		fmt.Fprintln(c.out, styles.RenderWarning(err.Error()))
		return nil
	case err != nil:
		c.logFailure("recording", err)
		return err
	}
	if text := c.status.Snapshot().Text; text != "" {
		fmt.Fprintln(c.out, styles.RenderSuccess(text))
	}
	return nil
}

// pollNow asks for the entries a just-finished action produced. A poll
// already in flight picks them up instead.
func (c *lineChat) pollNow(ctx context.Context) {
	if _, err := c.engine.PollOnce(ctx); err != nil && !errors.Is(err, logsync.ErrPollInFlight) {
		c.logger.Debug("poll after action failed", zap.Error(err))
	}
}

func (c *lineChat) logFailure(op string, err error) {
	if client.IsApplication(err) {
		c.logger.Error(op+" failed", zap.String("message", client.Reason(err)))
		return
	}
	c.logger.Warn(op+" failed", zap.Error(err))
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-mode chat with history",
		Long:  "Reads messages from a prompt with line editing and history.\n\n" + lineHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var theme *styles.Theme
			if styled(out) {
				theme = styles.ForName(a.cfg.UI.Theme)
			}
			c := newLineChat(lineChatOptions{
				Remote: a.client(),
				Out:    out,
				Render: handlers.Options{
					Width:        terminalWidth(out),
					ShowJSON:     a.cfg.UI.ShowJSON,
					ShowThoughts: a.cfg.UI.ShowThoughts,
				},
				Theme:    theme,
				Interval: a.cfg.Sync.PollInterval.Std(),
				Logger:   a.logger,
			})

			line := liner.NewLiner()
			line.SetCtrlCAborts(true)
			historyPath, _ := config.HistoryPath()
			loadHistory(line, historyPath)
			defer func() {
				saveHistory(line, historyPath, a.logger)
				line.Close()
			}()

			fmt.Fprintln(out, "Connected to "+a.cfg.Remote.URL+". /help lists commands.")
			return c.run(cmd.Context(), line)
		},
	}
}

func loadHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Open(path); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
}

// saveHistory persists the prompt history with owner-only permissions.
func saveHistory(line *liner.State, path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		logger.Warn("history dir", zap.Error(err))
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		logger.Warn("history save", zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		logger.Warn("history save", zap.Error(err))
	}
}
