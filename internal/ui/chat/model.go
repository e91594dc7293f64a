// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/harishvijayasarangan/agent0-voice/internal/config"
	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/logsync"
	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/recording"
	"github.com/harishvijayasarangan/agent0-voice/internal/status"
	"github.com/harishvijayasarangan/agent0-voice/internal/transcript"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/render"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
)

// Remote is the agent server as seen by the UI.
type Remote interface {
	logsync.Poller
	recording.Remote
	Send(ctx context.Context, text string) (*model.MessageEcho, error)
	Pause(ctx context.Context, paused bool) error
	Reset(ctx context.Context) error
}

// Options configures a Model.
type Options struct {
	Remote Remote

	// Registry renders entries. Nil registers the built-in renderers for
	// Theme.
	Registry *handlers.Registry
	Theme    *styles.Theme

	UI       config.UIConfig
	Interval time.Duration

	// ServerURL is shown in the header.
	ServerURL string

	// ExportDir receives C-e exports; empty means the working directory.
	ExportDir string

	Status *status.Store
	Logger *zap.Logger

	// Context bounds every remote call. Nil means context.Background.
	Context context.Context

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Model is the Bubble Tea model of the chat UI.
type Model struct {
	ctx    context.Context
	remote Remote
	logger *zap.Logger
	now    func() time.Time

	engine     *logsync.Engine
	transcript *transcript.Transcript
	recorder   *recording.Controller
	status     *status.Store

	theme     *styles.Theme
	keys      KeyMap
	help      help.Model
	viewport  viewport.Model
	spinner   spinner.Model
	compose   *composeBox
	serverURL string
	exportDir string

	autoScroll   bool
	showJSON     bool
	showThoughts bool
	showHelp     bool

	// pending counts outstanding send/pause/reset/export commands
	pending int

	width  int
	height int
	ready  bool

	// rendered is the transcript revision and layout last put in the viewport
	rendered renderKey
}

type renderKey struct {
	revision     uint64
	width        int
	showJSON     bool
	showThoughts bool
}

// New creates the chat model.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Status == nil {
		opts.Status = status.New()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	reg := opts.Registry
	if reg == nil {
		reg = render.NewRegistry(opts.Theme)
	}

	keys := DefaultKeyMap()
	tr := transcript.New()
	compose := newComposeBox(keys)

	engine := logsync.New(opts.Remote, reg, tr, logsync.Options{
		Interval: opts.Interval,
		Status:   opts.Status,
		Logger:   opts.Logger.Named("sync"),
		Now:      opts.Now,
	})

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = opts.Theme.Spinner

	return Model{
		ctx:          opts.Context,
		remote:       opts.Remote,
		logger:       opts.Logger,
		now:          opts.Now,
		engine:       engine,
		transcript:   tr,
		recorder:     recording.New(opts.Remote, compose, opts.Status, opts.Logger.Named("recording")),
		status:       opts.Status,
		theme:        opts.Theme,
		keys:         keys,
		help:         help.New(),
		viewport:     viewport.New(80, 20),
		spinner:      sp,
		compose:      compose,
		serverURL:    opts.ServerURL,
		exportDir:    opts.ExportDir,
		autoScroll:   opts.UI.AutoScroll,
		showJSON:     opts.UI.ShowJSON,
		showThoughts: opts.UI.ShowThoughts,
	}
}

// Engine returns the log sync engine.
func (m Model) Engine() *logsync.Engine { return m.engine }

// Transcript returns the rendered transcript.
func (m Model) Transcript() *transcript.Transcript { return m.transcript }

// Recorder returns the recording controller.
func (m Model) Recorder() *recording.Controller { return m.recorder }

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init polls immediately and starts the poll ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startPoll(), m.scheduleTick(), m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case pollTickMsg:
		return m, tea.Batch(m.startPoll(), m.scheduleTick())

	case pollResultMsg:
		return m.handlePollResult(msg)

	case sendResultMsg:
		return m.handleSendResult(msg)

	case recordingStartedMsg:
		_ = m.recorder.FinishStart(msg.err)
		m.logRemoteError("start recording", msg.err)
		return m, nil

	case recordingStoppedMsg:
		_ = m.recorder.FinishStop(msg.transcription, msg.err)
		m.logRemoteError("stop recording", msg.err)
		return m, nil

	case ackMsg:
		return m.handleAck(msg)

	case exportResultMsg:
		m.pending--
		if msg.err != nil {
			m.logger.Warn("export failed", zap.Error(msg.err))
			m.status.SetText("Export failed: " + msg.err.Error())
		} else {
			m.status.SetText("Exported to " + msg.path)
		}
		return m, nil

	case ConfigReloadedMsg:
		m.autoScroll = msg.UI.AutoScroll
		m.showJSON = msg.UI.ShowJSON
		m.showThoughts = msg.UI.ShowThoughts
		m.status.SetText("Config reloaded")
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.compose.update(msg)
}

// View renders the UI.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// POLLING
// =============================================================================

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.engine.Interval(), func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

// startPoll claims the poll slot and issues the request. It returns nil
// when a poll is already outstanding.
func (m Model) startPoll() tea.Cmd {
	t, ok := m.engine.TryBegin()
	if !ok {
		return nil
	}
	ctx, remote := m.ctx, m.remote
	return func() tea.Msg {
		res, err := remote.Poll(ctx, t.Request())
		return pollResultMsg{ticket: t, result: res, err: err}
	}
}

func (m Model) handlePollResult(msg pollResultMsg) (tea.Model, tea.Cmd) {
	out := m.engine.Finish(msg.ticket, msg.result, msg.err)
	if out.Applied && (out.Cleared || out.Rendered > 0 || out.Dropped > 0) {
		m.refresh()
	}
	return m, nil
}

// =============================================================================
// LOGGING
// =============================================================================

// logRemoteError logs application failures at error with the server
// message and transport failures at warn. Nil errors are ignored.
func (m Model) logRemoteError(op string, err error) {
	switch {
	case err == nil:
	case isApplication(err):
		m.logger.Error(op+" failed", zap.String("message", reasonOf(err)))
	default:
		m.logger.Warn(op+" failed", zap.Error(err))
	}
}
