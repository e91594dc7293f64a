// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package recording

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harishvijayasarangan/agent0-voice/internal/status"
)

type fakeRemote struct {
	starts, stops int
	startErr      error
	stopErr       error
	transcription string
}

func (f *fakeRemote) StartRecording(context.Context) error {
	f.starts++
	return f.startErr
}

func (f *fakeRemote) StopRecording(context.Context) (string, error) {
	f.stops++
	if f.stopErr != nil {
		return "", f.stopErr
	}
	return f.transcription, nil
}

type fakeCompose struct {
	value    string
	readOnly bool
}

func (f *fakeCompose) SetValue(s string) { f.value = s }
func (f *fakeCompose) SetReadOnly(ro bool) { f.readOnly = ro }

type reasonErr struct{ msg string }

func (e reasonErr) Error() string { return "stop recording: " + e.msg }
func (e reasonErr) Reason() string { return e.msg }

func TestController_StartLocksInput(t *testing.T) {
	remote := &fakeRemote{}
	compose := &fakeCompose{value: "draft"}
	st := status.New()
	c := New(remote, compose, st, nil)

	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, Recording, c.State())
	assert.True(t, c.Session().Active)
	assert.Equal(t, Placeholder, compose.value)
	assert.True(t, compose.readOnly)
	assert.True(t, st.Snapshot().Recording)
}

func TestController_StartTwiceIssuesOneRequest(t *testing.T) {
	remote := &fakeRemote{}
	c := New(remote, &fakeCompose{}, nil, nil)

	require.NoError(t, c.Start(context.Background()))
	err := c.Start(context.Background())

	assert.ErrorIs(t, err, ErrAlreadyRecording)
	assert.Equal(t, 1, remote.starts)
}

func TestController_StopWithoutStart(t *testing.T) {
	remote := &fakeRemote{}
	compose := &fakeCompose{value: "draft"}
	c := New(remote, compose, nil, nil)

	err := c.Stop(context.Background())

	assert.ErrorIs(t, err, ErrNotRecording)
	assert.Zero(t, remote.stops)
	assert.Equal(t, "draft", compose.value)
	assert.Equal(t, Idle, c.State())
}

func TestController_StartFailureStaysIdle(t *testing.T) {
	remote := &fakeRemote{startErr: reasonErr{"Recording is already in progress."}}
	compose := &fakeCompose{value: "draft"}
	st := status.New()
	c := New(remote, compose, st, nil)

	err := c.Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "draft", compose.value)
	assert.False(t, compose.readOnly)
	assert.Equal(t, "Recording is already in progress.", st.Snapshot().Text)
	assert.False(t, c.Pending())
}

func TestController_StopFillsTranscription(t *testing.T) {
	remote := &fakeRemote{transcription: "hello world"}
	compose := &fakeCompose{}
	st := status.New()
	c := New(remote, compose, st, nil)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Stop(context.Background()))

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "hello world", compose.value)
	assert.False(t, compose.readOnly)
	assert.False(t, st.Snapshot().Recording)

	sess := c.Session()
	assert.False(t, sess.Active)
	assert.True(t, sess.HasTranscription)
	assert.Equal(t, "hello world", sess.Transcription)
}

func TestController_StopFailureKeepsInputLocked(t *testing.T) {
	remote := &fakeRemote{}
	compose := &fakeCompose{}
	c := New(remote, compose, nil, nil)
	require.NoError(t, c.Start(context.Background()))

	remote.stopErr = errors.New("No recording in progress.")
	err := c.Stop(context.Background())

	require.Error(t, err)
	assert.Equal(t, Recording, c.State())
	assert.Equal(t, Placeholder, compose.value)
	assert.True(t, compose.readOnly)

	// The session is still active, so a retry is allowed.
	remote.stopErr = nil
	remote.transcription = "done"
	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, 2, remote.stops)
	assert.Equal(t, "done", compose.value)
}

func TestController_PendingRejectsBoth(t *testing.T) {
	c := New(&fakeRemote{}, &fakeCompose{}, nil, nil)

	require.NoError(t, c.BeginStart())
	assert.True(t, c.Pending())
	assert.ErrorIs(t, c.BeginStart(), ErrBusy)
	assert.ErrorIs(t, c.BeginStop(), ErrBusy)

	require.NoError(t, c.FinishStart(nil))
	assert.False(t, c.Pending())
	require.NoError(t, c.BeginStop())
	assert.ErrorIs(t, c.BeginStart(), ErrBusy)
	require.NoError(t, c.FinishStop("x", nil))
	assert.Equal(t, Idle, c.State())
}

func TestController_NilCompose(t *testing.T) {
	c := New(&fakeRemote{transcription: "t"}, nil, nil, nil)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, "t", c.Session().Transcription)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "recording", Recording.String())
}
