// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(&Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
}

func TestClient_Poll(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/poll", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req model.PollRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 10, req.LogFrom)
		assert.Equal(t, "A", req.LogGuid)

		_, _ = w.Write([]byte(`{"ok":true,"log_guid":"A","log_version":4,"log_to":12,"paused":false,
			"logs":[{"no":11,"type":"agent","heading":"h","content":"a","kvps":{"b":1,"a":2}},
			        {"no":12,"type":"response","heading":"r","content":"done","kvps":null}]}`))
	})

	res, err := c.Poll(context.Background(), model.PollRequest{LogFrom: 10, LogGuid: "A"})

	require.NoError(t, err)
	assert.Equal(t, "A", res.LogGuid)
	assert.Equal(t, 4, res.LogVersion)
	assert.Equal(t, 12, res.LogTo)
	require.Len(t, res.Logs, 2)
	assert.Equal(t, []string{"b", "a"}, res.Logs[0].KVPs.Keys())
	assert.Equal(t, "done", res.Logs[1].Content.String())
}

func TestClient_PollApplicationFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"message":"timeout"}`))
	})

	res, err := c.Poll(context.Background(), model.PollRequest{})

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsApplication(err))
	assert.False(t, IsTransport(err))
	assert.Equal(t, "timeout", Reason(err))
}

func TestClient_TransportClassification(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    ErrorType
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: ErrTypeStatus,
		},
		{
			name: "non-2xx with ok payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"ok":true}`))
			},
			want: ErrTypeStatus,
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			want: ErrTypeDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.handler)

			_, err := c.Poll(context.Background(), model.PollRequest{})

			var ce *Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.want, ce.Type)
			assert.True(t, IsTransport(err))
		})
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(&Config{BaseURL: url}).Poll(context.Background(), model.PollRequest{})

	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Poll(ctx, model.PollRequest{})

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeTransport, ce.Type)
	assert.Equal(t, "request cancelled", ce.Message)
}

func TestClient_Send(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/msg", r.URL.Path)
		var req model.MessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)
		_, _ = w.Write([]byte(`{"ok":true,"id":3,"type":"user","heading":"User message","content":"hello","kvps":{}}`))
	})

	echo, err := c.Send(context.Background(), "hello")

	require.NoError(t, err)
	e := echo.Entry()
	assert.Equal(t, 3, e.Seq)
	assert.Equal(t, "user", e.Type)
	assert.Equal(t, "hello", e.Content.String())
}

func TestClient_Recording(t *testing.T) {
	recording := false
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start_recording":
			if recording {
				_, _ = w.Write([]byte(`{"ok":false,"message":"Recording is already in progress."}`))
				return
			}
			recording = true
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/stop_recording":
			if !recording {
				_, _ = w.Write([]byte(`{"ok":false,"message":"No recording in progress."}`))
				return
			}
			recording = false
			_, _ = w.Write([]byte(`{"ok":true,"transcription":"turn on the lights"}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	_, err := c.StopRecording(ctx)
	assert.Equal(t, "No recording in progress.", Reason(err))

	require.NoError(t, c.StartRecording(ctx))
	err = c.StartRecording(ctx)
	assert.Equal(t, "Recording is already in progress.", Reason(err))

	text, err := c.StopRecording(ctx)
	require.NoError(t, err)
	assert.Equal(t, "turn on the lights", text)
}

func TestClient_PauseResetAcks(t *testing.T) {
	var paused *bool
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pause":
			var req model.PauseRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			paused = &req.Paused
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/reset":
			// empty body is an acknowledgment
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := context.Background()

	require.NoError(t, c.Pause(ctx, true))
	require.NotNil(t, paused)
	assert.True(t, *paused)
	require.NoError(t, c.Reset(ctx))
}

func TestClient_Health(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path != "/ok" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	assert.NoError(t, c.Health(context.Background()))
}

func TestNew_Defaults(t *testing.T) {
	c := New(nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c = New(&Config{BaseURL: "http://x:1//"})
	assert.Equal(t, "http://x:1", c.BaseURL())
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "transport", ErrTypeTransport.String())
	assert.Equal(t, "application", ErrTypeApplication.String())
	assert.Equal(t, "unknown", ErrorType(99).String())
}
