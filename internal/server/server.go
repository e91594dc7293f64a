// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the reference agent web UI server.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:5000"

	// MaxRequestBodySize is the maximum size for a request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// DefaultRateLimit is the default per-client request rate.
	DefaultRateLimit = 20.0

	// DefaultBurst is the default per-client burst.
	DefaultBurst = 40

	// DefaultTranscription is returned by the default transcriber.
	DefaultTranscription = "(no speech backend configured)"

	// shutdownTimeout bounds graceful shutdown in Run.
	shutdownTimeout = 5 * time.Second
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// Config configures a Server.
type Config struct {
	// Addr is the listen address (default: 127.0.0.1:5000)
	Addr string

	// Log is the served agent log (default: in-memory)
	Log storage.Log

	// Agent answers messages (default: EchoAgent)
	Agent Agent

	// Transcriber produces recording transcriptions (default: static text)
	Transcriber Transcriber

	// Logger for request and lifecycle logs (default: no-op)
	Logger *zap.Logger

	// RateLimit is requests per second per client; 0 disables limiting
	RateLimit float64
	Burst     int

	// MaxBodyBytes caps request bodies (default: 1MB)
	MaxBodyBytes int64
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the agent web UI HTTP server.
type Server struct {
	addr        string
	log         storage.Log
	agent       Agent
	transcriber Transcriber
	logger      *zap.Logger

	router  *http.ServeMux
	handler http.Handler
	limiter *RateLimiter
	server  *http.Server

	recorder *recorder
	gate     *gate

	// agent goroutines run on baseCtx and are cancelled by Shutdown
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu sync.Mutex
}

// New creates a Server from cfg.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Log == nil {
		cfg.Log = storage.NewMemory()
	}
	if cfg.Agent == nil {
		cfg.Agent = EchoAgent{}
	}
	if cfg.Transcriber == nil {
		cfg.Transcriber = StaticTranscriber{Text: DefaultTranscription}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = MaxRequestBodySize
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:        cfg.Addr,
		log:         cfg.Log,
		agent:       cfg.Agent,
		transcriber: cfg.Transcriber,
		logger:      cfg.Logger,
		router:      http.NewServeMux(),
		recorder:    &recorder{},
		gate:        newGate(),
		baseCtx:     ctx,
		cancel:      cancel,
	}
	s.setupRoutes()

	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
	}
	if cfg.RateLimit > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimit, cfg.Burst)
		middlewares = append(middlewares, RateLimitMiddleware(s.limiter, s.logger))
	}
	middlewares = append(middlewares, BodyLimitMiddleware(cfg.MaxBodyBytes))
	s.handler = Chain(middlewares...)(s.router)

	return s
}

// Handler returns the root HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /msg", s.handleMessage)
	s.router.HandleFunc("POST /msg_sync", s.handleMessageSync)
	s.router.HandleFunc("POST /poll", s.handlePoll)

	s.router.HandleFunc("POST /start_recording", s.handleStartRecording)
	s.router.HandleFunc("POST /stop_recording", s.handleStopRecording)

	s.router.HandleFunc("POST /pause", s.handlePause)
	s.router.HandleFunc("POST /reset", s.handleReset)

	s.router.HandleFunc("GET /ok", s.handleHealth)
	s.router.HandleFunc("POST /ok", s.handleHealth)
}

// ============================================================================
// MESSAGE HANDLERS
// ============================================================================

// handleMessage handles POST /msg: the message is logged and answered by
// the agent in the background.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req model.MessageRequest
	if !s.decode(w, r, &req) {
		return
	}

	entry, err := s.logUserMessage(r.Context(), req.Text)
	if err != nil {
		s.writeFailure(w, "msg", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runAgent(s.baseCtx, req.Text)
	}()

	s.writeJSON(w, http.StatusOK, model.MessageEcho{
		OK:      true,
		Message: "Message received.",
		ID:      entry.Seq,
		Type:    entry.Type,
		Heading: entry.Heading,
		Content: entry.Content,
		KVPs:    entry.KVPs,
	})
}

// messageSyncResponse is the response of POST /msg_sync.
type messageSyncResponse struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
	Response string `json:"response,omitempty"`
}

// handleMessageSync handles POST /msg_sync: the agent's reply is returned
// in the response.
func (s *Server) handleMessageSync(w http.ResponseWriter, r *http.Request) {
	var req model.MessageRequest
	if !s.decode(w, r, &req) {
		return
	}

	if _, err := s.logUserMessage(r.Context(), req.Text); err != nil {
		s.writeFailure(w, "msg_sync", err)
		return
	}

	reply, err := s.runAgent(r.Context(), req.Text)
	if err != nil {
		s.writeFailure(w, "msg_sync", err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageSyncResponse{OK: true, Message: "Message received.", Response: reply})
}

func (s *Server) logUserMessage(ctx context.Context, text string) (model.LogEntry, error) {
	entry, err := s.log.Append(ctx, model.LogEntry{
		Type:    model.TypeUser,
		Heading: "User message",
		Content: model.Text(text),
	})
	if err != nil {
		return model.LogEntry{}, err
	}
	s.logger.Info("user message", zap.Int("seq", entry.Seq), zap.Int("len", len(text)))
	return entry, nil
}

// runAgent waits while the agent is paused, then asks it for a reply. A
// failure is logged as an error entry.
func (s *Server) runAgent(ctx context.Context, text string) (string, error) {
	if err := s.gate.wait(ctx); err != nil {
		return "", err
	}
	reply, err := s.agent.Communicate(ctx, text, s.log)
	if err != nil {
		s.logger.Warn("agent failed", zap.Error(err))
		if ctx.Err() == nil {
			_, _ = s.log.Append(ctx, model.LogEntry{
				Type:    model.TypeError,
				Heading: "Error",
				Content: model.Text(err.Error()),
			})
		}
		return "", err
	}
	return reply, nil
}

// ============================================================================
// POLL HANDLER
// ============================================================================

// handlePoll handles POST /poll.
//
// The entries after log_from are returned with the log version they belong
// to. A caller from another session, or one ahead of the log, gets the
// whole log.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	var req model.PollRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	from := max(req.LogFrom, 0)

	snap, err := s.log.Since(r.Context(), from)
	if err != nil {
		s.writeFailure(w, "poll", err)
		return
	}
	if from > 0 && ((req.LogGuid != "" && req.LogGuid != snap.Guid) || from > snap.LastSeq) {
		from = 0
		if snap, err = s.log.Since(r.Context(), 0); err != nil {
			s.writeFailure(w, "poll", err)
			return
		}
	}

	logs := snap.Entries
	if logs == nil {
		logs = []model.LogEntry{}
	}
	s.writeJSON(w, http.StatusOK, model.PollResult{
		OK:         true,
		LogGuid:    snap.Guid,
		LogVersion: snap.Version,
		Logs:       logs,
		LogTo:      snap.LogTo(from),
		Paused:     s.gate.isPaused(),
	})
}

// ============================================================================
// RECORDING HANDLERS
// ============================================================================

// handleStartRecording handles POST /start_recording.
func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	if !s.recorder.start() {
		s.writeJSON(w, http.StatusOK, model.RecordingResult{Message: msgAlreadyRecording})
		return
	}
	s.logger.Info("recording started")
	s.writeJSON(w, http.StatusOK, model.RecordingResult{OK: true})
}

// handleStopRecording handles POST /stop_recording. If transcription fails
// the session stays active so the client can stop again.
func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	if msg, ok := s.recorder.beginStop(); !ok {
		s.writeJSON(w, http.StatusOK, model.RecordingResult{Message: msg})
		return
	}

	text, err := s.transcriber.Transcribe(r.Context())
	s.recorder.finishStop(err == nil)
	if err != nil {
		s.writeFailure(w, "stop_recording", err)
		return
	}
	s.logger.Info("recording stopped", zap.Int("transcription_len", len(text)))
	s.writeJSON(w, http.StatusOK, model.RecordingResult{OK: true, Transcription: text})
}

// Recording reports whether a recording session is active.
func (s *Server) Recording() bool {
	return s.recorder.active()
}

// ============================================================================
// CONTROL HANDLERS
// ============================================================================

// handlePause handles POST /pause.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req model.PauseRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.gate.set(req.Paused)
	s.logger.Info("agent paused", zap.Bool("paused", req.Paused))
	s.writeJSON(w, http.StatusOK, model.Ack{OK: true})
}

// handleReset handles POST /reset: the log moves to a new session and the
// agent is resumed.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	guid, err := s.log.Reset(r.Context())
	if err != nil {
		s.writeFailure(w, "reset", err)
		return
	}
	s.gate.set(false)
	s.logger.Info("log reset", zap.String("guid", guid))
	s.writeJSON(w, http.StatusOK, model.Ack{OK: true})
}

// handleHealth handles GET|POST /ok.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("server start", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown stops accepting requests, cancels running agent work, and waits
// for both to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutdown")

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	s.cancel()
	s.wg.Wait()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

// decode reads a required JSON body. It writes the error response and
// returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeDecodeError(w, r, err)
		return false
	}
	return true
}

// decodeOptional is decode for endpoints whose body may be empty.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.writeDecodeError(w, r, err)
		return false
	}
	return true
}

func (s *Server) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if isBodyTooLarge(err) {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, model.Ack{Message: "request body too large"})
		return
	}
	s.logger.Debug("invalid request body", zap.String("path", r.URL.Path), zap.Error(err))
	s.writeJSON(w, http.StatusBadRequest, model.Ack{Message: "invalid request body"})
}

// writeFailure reports an application failure as ok:false.
func (s *Server) writeFailure(w http.ResponseWriter, op string, err error) {
	s.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
	msg := err.Error()
	if errors.Is(err, storage.ErrClosed) {
		msg = "server is shutting down"
	}
	s.writeJSON(w, http.StatusOK, model.Ack{Message: strings.TrimSpace(msg)})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", zap.Error(err))
	}
}
