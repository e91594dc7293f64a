// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harishvijayasarangan/agent0-voice/internal/export"
	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/logsync"
	"github.com/harishvijayasarangan/agent0-voice/internal/status"
	"github.com/harishvijayasarangan/agent0-voice/internal/transcript"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/render"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
)

const resetBanner = "--- log reset ---"

// printer is a transcript that also writes every confirmed block to out.
type printer struct {
	*transcript.Transcript

	mu   sync.Mutex
	out  io.Writer
	opts handlers.Options
}

func newPrinter(out io.Writer, opts handlers.Options) *printer {
	return &printer{Transcript: transcript.New(), out: out, opts: opts}
}

// Append implements handlers.Sink.
func (p *printer) Append(b handlers.Block) {
	p.Transcript.Append(b)
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s\n\n", b.Render(p.opts))
}

// Clear announces a reset when something was already printed.
func (p *printer) Clear() {
	printed := !p.Transcript.IsEmpty()
	p.Transcript.Clear()
	if printed {
		p.mu.Lock()
		defer p.mu.Unlock()
		fmt.Fprintf(p.out, "%s\n\n", resetBanner)
	}
}

var _ logsync.Transcript = (*printer)(nil)

func newTailCmd(a *app) *cobra.Command {
	var (
		once       bool
		showJSON   bool
		noThoughts bool
		exportPath string
		interval   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the agent log as it grows",
		Long: `Polls the agent server and prints each new entry. Output is styled when
stdout is a terminal. With --export the transcript is written to FILE on
exit; the format follows the extension (.md or .json).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var theme *styles.Theme
			if styled(out) {
				theme = styles.ForName(a.cfg.UI.Theme)
			}
			p := newPrinter(out, handlers.Options{
				Width:        terminalWidth(out),
				ShowJSON:     showJSON || a.cfg.UI.ShowJSON,
				ShowThoughts: a.cfg.UI.ShowThoughts && !noThoughts,
			})

			if interval <= 0 {
				interval = a.cfg.Sync.PollInterval.Std()
			}
			st := status.New()
			unsubscribe := st.Subscribe(connectionReporter(cmd.ErrOrStderr()))
			defer unsubscribe()

			engine := logsync.New(a.client(), render.NewRegistry(theme), p, logsync.Options{
				Interval: interval,
				Status:   st,
				Logger:   a.logger.Named("sync"),
			})

			ctx := cmd.Context()
			if once {
				if _, err := engine.PollOnce(ctx); err != nil {
					return commandError("tail", "poll", err)
				}
			} else {
				a.logger.Info("tail start", zap.Duration("interval", interval))
				engine.Run(ctx)
			}

			if exportPath == "" {
				return nil
			}
			doc := export.FromTranscript(p.Items(), engine.Cursor(), time.Now())
			if err := export.ToFile(doc, exportPath, export.DefaultOptions()); err != nil {
				if errors.Is(err, export.ErrEmpty) {
					fmt.Fprintln(cmd.ErrOrStderr(), styles.RenderWarning("nothing to export"))
					return nil
				}
				return commandError("tail", "export", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), styles.RenderSuccess("exported to "+exportPath))
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&once, "once", false, "poll once and exit")
	f.BoolVar(&showJSON, "json", false, "show each entry's key/value pairs")
	f.BoolVar(&noThoughts, "no-thoughts", false, "hide agent thoughts")
	f.StringVar(&exportPath, "export", "", "write the transcript to `FILE` on exit")
	f.DurationVar(&interval, "interval", 0, "poll interval, overrides sync.poll_interval")
	return cmd
}

// connectionReporter prints connection state changes to w.
func connectionReporter(w io.Writer) func(status.Snapshot) {
	var (
		mu    sync.Mutex
		known bool
		last  bool
	)
	return func(s status.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if known && s.Connected == last {
			return
		}
		if !known && s.Connected {
			known, last = true, true
			return
		}
		known, last = true, s.Connected
		if s.Connected {
			fmt.Fprintln(w, styles.RenderSuccess("connected"))
		} else {
			fmt.Fprintln(w, styles.RenderWarning("disconnected, retrying"))
		}
	}
}
