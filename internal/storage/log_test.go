// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harishvijayasarangan/agent0-voice/internal/model"
)

// =============================================================================
// SHARED LOG TESTS
// =============================================================================

func implementations(t *testing.T) map[string]func(t *testing.T) Log {
	return map[string]func(t *testing.T) Log{
		"memory": func(t *testing.T) Log {
			return NewMemory()
		},
		"sqlite": func(t *testing.T) Log {
			s, err := OpenSQLite(context.Background(), ":memory:")
			require.NoError(t, err)
			return s
		},
	}
}

func forEachLog(t *testing.T, fn func(t *testing.T, l Log)) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			l := open(t)
			t.Cleanup(func() { l.Close() })
			fn(t, l)
		})
	}
}

func userEntry(text string) model.LogEntry {
	return model.LogEntry{Type: model.TypeUser, Heading: "User message", Content: model.Text(text)}
}

func TestLog_AppendAssignsSequence(t *testing.T) {
	forEachLog(t, func(t *testing.T, l Log) {
		ctx := context.Background()

		for i := 1; i <= 3; i++ {
			e, err := l.Append(ctx, userEntry("m"))
			require.NoError(t, err)
			assert.Equal(t, i, e.Seq)
		}

		snap, err := l.Since(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, snap.Version)
		assert.Equal(t, 3, snap.LastSeq)
		require.Len(t, snap.Entries, 3)
		assert.Equal(t, 3, snap.LogTo(0))
	})
}

func TestLog_SinceIsExclusive(t *testing.T) {
	forEachLog(t, func(t *testing.T, l Log) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			_, err := l.Append(ctx, userEntry("m"))
			require.NoError(t, err)
		}

		snap, err := l.Since(ctx, 3)
		require.NoError(t, err)
		require.Len(t, snap.Entries, 2)
		assert.Equal(t, 4, snap.Entries[0].Seq)
		assert.Equal(t, 5, snap.Entries[1].Seq)

		snap, err = l.Since(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, snap.Entries)
		assert.Equal(t, 5, snap.LogTo(5))
	})
}

func TestLog_PreservesContentAndKVPs(t *testing.T) {
	forEachLog(t, func(t *testing.T, l Log) {
		ctx := context.Background()
		var kv model.KVPairs
		require.NoError(t, json.Unmarshal([]byte(`{"thoughts":["a","b"],"tool_name":"code","n":2}`), &kv))

		_, err := l.Append(ctx, model.LogEntry{
			Type:    model.TypeAgent,
			Heading: "Agent 0: thinking",
			Content: model.RawPayload(json.RawMessage(`{"x":1}`)),
			KVPs:    kv,
		})
		require.NoError(t, err)

		snap, err := l.Since(ctx, 0)
		require.NoError(t, err)
		require.Len(t, snap.Entries, 1)
		got := snap.Entries[0]
		assert.Equal(t, "Agent 0: thinking", got.Heading)
		assert.JSONEq(t, `{"x":1}`, got.Content.String())
		assert.Equal(t, []string{"thoughts", "tool_name", "n"}, got.KVPs.Keys())
	})
}

func TestLog_ResetStartsNewSession(t *testing.T) {
	forEachLog(t, func(t *testing.T, l Log) {
		ctx := context.Background()
		_, err := l.Append(ctx, userEntry("old"))
		require.NoError(t, err)
		before, err := l.Guid(ctx)
		require.NoError(t, err)

		guid, err := l.Reset(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, before, guid)

		snap, err := l.Since(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, guid, snap.Guid)
		assert.Zero(t, snap.Version)
		assert.Empty(t, snap.Entries)

		e, err := l.Append(ctx, userEntry("new"))
		require.NoError(t, err)
		assert.Equal(t, 1, e.Seq)
	})
}

func TestLog_Closed(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			l := open(t)
			require.NoError(t, l.Close())

			_, err := l.Append(context.Background(), userEntry("x"))
			assert.ErrorIs(t, err, ErrClosed)
			_, err = l.Since(context.Background(), 0)
			assert.ErrorIs(t, err, ErrClosed)
			_, err = l.Reset(context.Background())
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestLog_ConcurrentAppends(t *testing.T) {
	forEachLog(t, func(t *testing.T, l Log) {
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := l.Append(ctx, userEntry("c"))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		snap, err := l.Since(ctx, 0)
		require.NoError(t, err)
		require.Len(t, snap.Entries, 20)
		for i, e := range snap.Entries {
			assert.Equal(t, i+1, e.Seq)
		}
		assert.Equal(t, 20, snap.Version)
	})
}

// =============================================================================
// SQLITE TESTS
// =============================================================================

func TestSQLite_SessionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "log.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = s.Append(ctx, userEntry("persisted"))
	require.NoError(t, err)
	guid, err := s.Guid(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	snap, err := s.Since(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, guid, snap.Guid)
	assert.Equal(t, 1, snap.Version)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "persisted", snap.Entries[0].Content.String())
}

func TestSQLite_CloseIsIdempotent(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
