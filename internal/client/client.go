// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client provides the HTTP client for the agent web UI protocol.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown     ErrorType = iota
	ErrTypeTransport             // network failure, timeout, cancelled request
	ErrTypeStatus                // non-2xx HTTP status
	ErrTypeDecode                // response body is not the expected JSON
	ErrTypeApplication           // ok:false with a server message
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeTransport:
		return "transport"
	case ErrTypeStatus:
		return "status"
	case ErrTypeDecode:
		return "decode"
	case ErrTypeApplication:
		return "application"
	default:
		return "unknown"
	}
}

// Error represents a failed remote call.
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Reason returns the server-provided message of an application error and
// the full error text otherwise.
func (e *Error) Reason() string {
	if e.Type == ErrTypeApplication {
		return e.Message
	}
	return e.Error()
}

// IsTransport reports whether err means the server could not be reached
// or answered with something other than a 2xx JSON body.
func IsTransport(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Type {
	case ErrTypeTransport, ErrTypeStatus, ErrTypeDecode:
		return true
	}
	return false
}

// IsApplication reports whether err is an ok:false refusal.
func IsApplication(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Type == ErrTypeApplication
}

// Reason returns the server-provided message of an application error,
// or err's text otherwise.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason()
	}
	return err.Error()
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL is where the agent web UI listens by default.
	DefaultBaseURL = "http://127.0.0.1:5000"

	// maxResponseSize bounds how much of a response body is decoded.
	maxResponseSize = 32 * 1024 * 1024
)

// Config holds configuration options for the client.
type Config struct {
	// BaseURL is the server base URL (default: http://127.0.0.1:5000)
	BaseURL string

	// Timeout bounds each request (0 = no timeout)
	Timeout time.Duration

	// HTTPClient overrides the underlying client, mainly for tests
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the agent web UI server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. A nil config selects DefaultConfig.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{baseURL: baseURL, httpClient: hc}
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Send posts a user message and returns the entry the server logged for it.
func (c *Client) Send(ctx context.Context, text string) (*model.MessageEcho, error) {
	var echo model.MessageEcho
	if err := c.post(ctx, "send", "/msg", model.MessageRequest{Text: text}, &echo, false); err != nil {
		return nil, err
	}
	if !echo.OK {
		return nil, appError("send", echo.Message)
	}
	return &echo, nil
}

// Poll fetches the log entries after req.LogFrom.
func (c *Client) Poll(ctx context.Context, req model.PollRequest) (*model.PollResult, error) {
	var res model.PollResult
	if err := c.post(ctx, "poll", "/poll", req, &res, false); err != nil {
		return nil, err
	}
	if !res.OK {
		return nil, appError("poll", res.Message)
	}
	return &res, nil
}

// StartRecording asks the server to begin recording.
func (c *Client) StartRecording(ctx context.Context) error {
	var res model.RecordingResult
	if err := c.post(ctx, "start recording", "/start_recording", struct{}{}, &res, false); err != nil {
		return err
	}
	if !res.OK {
		return appError("start recording", res.Message)
	}
	return nil
}

// StopRecording asks the server to stop recording and returns the
// transcription.
func (c *Client) StopRecording(ctx context.Context) (string, error) {
	var res model.RecordingResult
	if err := c.post(ctx, "stop recording", "/stop_recording", struct{}{}, &res, false); err != nil {
		return "", err
	}
	if !res.OK {
		return "", appError("stop recording", res.Message)
	}
	return res.Transcription, nil
}

// Pause pauses or resumes the agent.
func (c *Client) Pause(ctx context.Context, paused bool) error {
	return c.ack(ctx, "pause", "/pause", model.PauseRequest{Paused: paused})
}

// Reset resets the agent. The remote log is rotated, so the caller's
// cursor is no longer meaningful.
func (c *Client) Reset(ctx context.Context) error {
	return c.ack(ctx, "reset", "/reset", struct{}{})
}

// Health checks that the server answers GET /ok.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ok", nil)
	if err != nil {
		return &Error{Type: ErrTypeTransport, Op: "health", Message: "failed to create request", Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError("health", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Type: ErrTypeStatus, Op: "health", Message: "unexpected status " + resp.Status}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// ack performs a call whose response is a bare acknowledgment. An empty
// body counts as success.
func (c *Client) ack(ctx context.Context, op, path string, in any) error {
	res := model.Ack{OK: true}
	if err := c.post(ctx, op, path, in, &res, true); err != nil {
		return err
	}
	if !res.OK {
		return appError(op, res.Message)
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, in, out any, allowEmpty bool) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &Error{Type: ErrTypeUnknown, Op: op, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &Error{Type: ErrTypeTransport, Op: op, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &Error{Type: ErrTypeStatus, Op: op, Message: "unexpected status " + resp.Status}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return &Error{Type: ErrTypeDecode, Op: op, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func transportError(op string, err error) *Error {
	msg := "request failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = "request timed out"
	case errors.Is(err, context.Canceled):
		msg = "request cancelled"
	}
	return &Error{Type: ErrTypeTransport, Op: op, Message: msg, Cause: err}
}

func appError(op, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("%s refused by server", op)
	}
	return &Error{Type: ErrTypeApplication, Op: op, Message: message}
}
