// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

type sliceSink struct {
	blocks []Block
}

func (s *sliceSink) Append(b Block) {
	s.blocks = append(s.blocks, b)
}

func constant(out string) Handler {
	return HandlerFunc(func(model.LogEntry, Options) string { return out })
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("response", constant("resp"))

	h, ok := r.Lookup("response")
	require.True(t, ok)
	assert.Equal(t, "resp", h.Render(model.LogEntry{}, Options{}))

	h, ok = r.Lookup("nope")
	assert.False(t, ok)
	assert.NotNil(t, h, "unknown tags must resolve to the fallback")
}

func TestRegistry_DispatchUnknownStillRenders(t *testing.T) {
	r := NewRegistry(nil)
	sink := &sliceSink{}

	r.Dispatch(sink, model.LogEntry{Seq: 3, Type: "mystery", Heading: "Odd", Content: model.Text("body")})

	require.Len(t, sink.blocks, 1)
	out := sink.blocks[0].Render(Options{})
	assert.Contains(t, out, "[mystery]")
	assert.Contains(t, out, "Odd")
	assert.Contains(t, out, "body")
}

func TestRegistry_CustomFallback(t *testing.T) {
	r := NewRegistry(constant("fallback!"))

	b := r.Bind(model.LogEntry{Type: "x"})
	assert.Equal(t, "fallback!", b.Render(Options{}))
}

func TestBlock_PanickingHandlerFallsBack(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("boom", HandlerFunc(func(model.LogEntry, Options) string { panic("bad renderer") }))

	b := r.Bind(model.LogEntry{Type: "boom", Heading: "Still here"})
	out := b.Render(Options{})
	assert.Contains(t, out, "Still here")
}

func TestBlock_EmptyHandlerFallsBack(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("blank", constant("   \n"))

	out := r.Bind(model.LogEntry{Type: "blank", Heading: "H"}).Render(Options{})
	assert.Contains(t, out, "[blank] H")
}

func TestBlock_BrokenFallbackStillObservable(t *testing.T) {
	r := NewRegistry(constant(""))

	out := r.Bind(model.LogEntry{Seq: 9, Type: "x", Heading: "h"}).Render(Options{})
	assert.Equal(t, "#9 [x] h", out)
}

func TestRegistry_RegisterNilRemoves(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("tool", constant("t"))
	r.Register("tool", nil)

	_, ok := r.Lookup("tool")
	assert.False(t, ok)
}

func TestRegistry_Types(t *testing.T) {
	r := NewRegistry(nil)
	for _, tag := range []string{"tool", "agent", "user"} {
		r.Register(tag, constant(tag))
	}
	assert.Equal(t, []string{"agent", "tool", "user"}, r.Types())
}

func TestUnknown_ShowJSON(t *testing.T) {
	e := model.LogEntry{Type: "x", KVPs: model.KVPairs{{Key: "k", Value: "v"}}}

	assert.False(t, strings.Contains(Unknown.Render(e, Options{}), "k: v"))
	assert.Contains(t, Unknown.Render(e, Options{ShowJSON: true}), "k: v")
}
