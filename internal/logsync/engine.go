// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logsync keeps the local transcript consistent with the
// server-held log.
package logsync

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/status"
)

// DefaultInterval is the poll period.
const DefaultInterval = 5 * time.Second

// ErrPollInFlight is returned when a poll is requested while another one
// is still awaiting its response.
var ErrPollInFlight = errors.New("logsync: poll already in flight")

// =============================================================================
// COLLABORATORS
// =============================================================================

// Poller fetches the log entries after req.LogFrom.
type Poller interface {
	Poll(ctx context.Context, req model.PollRequest) (*model.PollResult, error)
}

// PollerFunc adapts a function to Poller.
type PollerFunc func(ctx context.Context, req model.PollRequest) (*model.PollResult, error)

// Poll calls f.
func (f PollerFunc) Poll(ctx context.Context, req model.PollRequest) (*model.PollResult, error) {
	return f(ctx, req)
}

// Transcript is the rendered view the engine writes to.
type Transcript interface {
	handlers.Sink
	Clear()
	DropProvisional() int
	AppendProvisional(b handlers.Block)
}

// Options configures an Engine.
type Options struct {
	// Interval is the poll period (default: 5s)
	Interval time.Duration

	// Status receives connection and paused updates (optional)
	Status *status.Store

	// Logger for poll diagnostics (default: no-op)
	Logger *zap.Logger

	// Now overrides the clock, for tests
	Now func() time.Time
}

// =============================================================================
// ENGINE
// =============================================================================

// Ticket identifies a poll started by TryBegin. It must be handed back to
// Finish exactly once.
type Ticket struct {
	From  int
	Guid  string
	epoch uint64
}

// Request returns the poll request for t.
func (t Ticket) Request() model.PollRequest {
	return model.PollRequest{LogFrom: t.From, LogGuid: t.Guid}
}

// Outcome describes what one reconciliation did.
type Outcome struct {
	// Applied is false when the response failed or was superseded
	Applied    bool
	Superseded bool
	Cleared    bool
	Rendered   int
	Dropped    int
	Paused     bool
	Err        error
}

// Engine reconciles poll responses into the transcript.
type Engine struct {
	poller   Poller
	registry *handlers.Registry
	view     Transcript
	status   *status.Store
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	inFlight atomic.Bool

	mu     sync.Mutex
	cursor model.Cursor
	epoch  uint64
}

// New creates an engine. The cursor starts at its zero value so the first
// poll fetches the whole log.
func New(p Poller, reg *handlers.Registry, view Transcript, opts Options) *Engine {
	if reg == nil {
		reg = handlers.NewRegistry(nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		poller:   p,
		registry: reg,
		view:     view,
		status:   opts.Status,
		logger:   opts.Logger,
		interval: opts.Interval,
		now:      opts.Now,
	}
}

// Cursor returns the current cursor.
func (e *Engine) Cursor() model.Cursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Interval returns the poll period.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// InFlight reports whether a poll is awaiting its response.
func (e *Engine) InFlight() bool {
	return e.inFlight.Load()
}

// TryBegin claims the single poll slot. It returns false if a poll is
// already in flight.
func (e *Engine) TryBegin() (Ticket, bool) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return Ticket{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return Ticket{From: e.cursor.LastSequence, Guid: e.cursor.SessionGuid, epoch: e.epoch}, true
}

// Finish reconciles the response of the poll identified by t and releases
// the poll slot.
func (e *Engine) Finish(t Ticket, res *model.PollResult, err error) Outcome {
	defer e.inFlight.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if t.epoch != e.epoch {
		e.logger.Debug("poll superseded", zap.Int("from", t.From))
		return Outcome{Superseded: true}
	}

	if err == nil && res == nil {
		err = errors.New("empty poll response")
	}
	if err == nil && !res.OK {
		err = errors.New(res.Message)
	}
	if err != nil {
		e.logger.Warn("poll failed", zap.Int("from", t.From), zap.Error(err))
		if e.status != nil {
			e.status.SetConnected(false, e.now())
		}
		return Outcome{Err: err}
	}

	out := Outcome{Applied: true, Paused: res.Paused}

	if res.LogGuid != e.cursor.SessionGuid {
		e.view.Clear()
		out.Cleared = true
	}

	if out.Cleared || res.LogVersion != e.cursor.LastVersion {
		out.Dropped = e.view.DropProvisional()

		logs := slices.Clone(res.Logs)
		slices.SortStableFunc(logs, func(a, b model.LogEntry) int {
			return cmp.Compare(a.Seq, b.Seq)
		})
		for _, entry := range logs {
			e.registry.Dispatch(e.view, entry)
		}
		out.Rendered = len(logs)
	}

	logTo := res.LogTo
	if !out.Cleared && logTo < e.cursor.LastSequence {
		e.logger.Warn("log_to moved backwards within session",
			zap.String("guid", res.LogGuid),
			zap.Int("last", e.cursor.LastSequence),
			zap.Int("log_to", logTo))
		logTo = e.cursor.LastSequence
	}
	e.cursor = model.Cursor{
		LastSequence: logTo,
		LastVersion:  res.LogVersion,
		SessionGuid:  res.LogGuid,
	}

	if e.status != nil {
		e.status.SetConnected(true, e.now())
		e.status.SetPaused(res.Paused)
	}

	if out.Cleared || out.Rendered > 0 {
		e.logger.Debug("poll applied",
			zap.Int("from", t.From),
			zap.String("cursor", e.cursor.String()),
			zap.Bool("cleared", out.Cleared),
			zap.Int("rendered", out.Rendered))
	}
	return out
}

// PollOnce performs one poll cycle. It returns ErrPollInFlight without
// contacting the server if another poll is outstanding, and the poll error
// if the response could not be applied.
func (e *Engine) PollOnce(ctx context.Context) (Outcome, error) {
	t, ok := e.TryBegin()
	if !ok {
		return Outcome{}, ErrPollInFlight
	}
	res, err := e.poller.Poll(ctx, t.Request())
	out := e.Finish(t, res, err)
	return out, out.Err
}

// Run polls immediately and then once per interval until ctx is done. A
// tick that fires while a poll is outstanding is skipped, so a hung request
// delays only its own cycle. Run waits for the outstanding poll before
// returning.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	cycle := func() {
		t, ok := e.TryBegin()
		if !ok {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.poller.Poll(ctx, t.Request())
			e.Finish(t, res, err)
		}()
	}

	cycle()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycle()
		}
	}
}

// Invalidate resets the cursor so the next poll resyncs from scratch. A
// poll already in flight is discarded when it completes.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursor = model.Cursor{}
	e.epoch++
}

// RenderEcho shows a just-sent entry ahead of the poll that confirms it.
// sentUnder is the session guid of the cursor when the message was sent.
// The block is provisional: the next rendered snapshot replaces it. If a
// poll of the same session already covered the entry, nothing is added and
// RenderEcho returns false.
func (e *Engine) RenderEcho(sentUnder string, entry model.LogEntry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.covers(sentUnder, entry.Seq) {
		e.logger.Debug("echo already confirmed", zap.Int("seq", entry.Seq))
		return false
	}
	e.view.AppendProvisional(e.registry.Bind(entry))
	return true
}

func (e *Engine) covers(guid string, seq int) bool {
	return e.cursor.SessionGuid != "" &&
		e.cursor.SessionGuid == guid &&
		seq <= e.cursor.LastSequence
}
