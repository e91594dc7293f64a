// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

func entry(seq int, typ string) model.LogEntry {
	return model.LogEntry{Seq: seq, Type: typ, Heading: typ, Content: model.Text("c")}
}

func TestTranscript_AppendAndClear(t *testing.T) {
	reg := handlers.NewRegistry(nil)
	tr := New()

	reg.Dispatch(tr, entry(1, "user"))
	reg.Dispatch(tr, entry(2, "agent"))
	require.Equal(t, 2, tr.Len())

	rev := tr.Revision()
	tr.Clear()

	assert.True(t, tr.IsEmpty())
	assert.Equal(t, 1, tr.Clears())
	assert.NotEqual(t, rev, tr.Revision())
}

func TestTranscript_DropProvisional(t *testing.T) {
	reg := handlers.NewRegistry(nil)
	tr := New()

	reg.Dispatch(tr, entry(1, "user"))
	tr.AppendProvisional(reg.Bind(entry(2, "user")))
	reg.Dispatch(tr, entry(3, "agent"))

	items := tr.Items()
	require.Len(t, items, 3)
	assert.True(t, items[1].Provisional)

	assert.Equal(t, 1, tr.DropProvisional())

	var seqs []int
	for _, e := range tr.Entries() {
		seqs = append(seqs, e.Seq)
	}
	assert.Equal(t, []int{1, 3}, seqs)
	assert.Equal(t, 0, tr.DropProvisional())
}

func TestTranscript_Render(t *testing.T) {
	reg := handlers.NewRegistry(nil)
	reg.Register("user", handlers.HandlerFunc(func(e model.LogEntry, _ handlers.Options) string {
		return "U:" + e.Content.String()
	}))
	tr := New()
	reg.Dispatch(tr, entry(1, "user"))
	reg.Dispatch(tr, entry(2, "user"))

	assert.Equal(t, "U:c|U:c", tr.Render(handlers.Options{}, "|"))
}

func TestTranscript_ConcurrentAccess(t *testing.T) {
	reg := handlers.NewRegistry(nil)
	tr := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			reg.Dispatch(tr, entry(n, "info"))
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Render(handlers.Options{}, "\n")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Len())
}
