// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/transcript"
)

var exportedAt = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

func sampleDoc(t *testing.T) *Document {
	t.Helper()
	reg := handlers.NewRegistry(nil)
	tr := transcript.New()

	var logs []model.LogEntry
	require.NoError(t, json.Unmarshal([]byte(`[
		{"no":1,"type":"user","heading":"User message","content":"list files","kvps":{}},
		{"no":2,"type":"agent","heading":"Agent 0: thinking","content":"","kvps":{"thoughts":["use ls"],"tool_name":"code_execution_tool"}},
		{"no":3,"type":"code_exe","heading":"Running","content":"a.txt\nb.txt","kvps":{"runtime":"terminal","code":"ls"}},
		{"no":4,"type":"response","heading":"Response","content":"Found **two** files.","kvps":{"finished":true}}
	]`), &logs))
	for _, e := range logs {
		reg.Dispatch(tr, e)
	}
	tr.AppendProvisional(reg.Bind(model.LogEntry{Seq: 5, Type: "user", Heading: "User message", Content: model.Text("thanks")}))

	return FromTranscript(tr.Items(), model.Cursor{LastSequence: 4, LastVersion: 4, SessionGuid: "guid-1234-5678"}, exportedAt)
}

func TestFromTranscript(t *testing.T) {
	doc := sampleDoc(t)

	assert.Equal(t, "guid-1234-5678", doc.Guid)
	assert.Equal(t, 4, doc.Version)
	require.Len(t, doc.Entries, 5)
	assert.False(t, doc.Entries[0].Provisional)
	assert.True(t, doc.Entries[4].Provisional)
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleDoc(t))
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\nlog_guid: guid-1234-5678\nlog_version: 4\nentries: 5\n"))
	assert.Contains(t, md, "exported: 2026-03-01T12:30:00Z")
	assert.Contains(t, md, "### User message <sub>user #1</sub>\n\nlist files")
	assert.Contains(t, md, "Found **two** files.", "responses stay markdown")
	assert.Contains(t, md, "```\na.txt\nb.txt\n```")
	assert.Contains(t, md, "(unconfirmed)")
	assert.Contains(t, md, `"tool_name": "code_execution_tool"`)

	// Entry order survives
	assert.Less(t, strings.Index(md, "list files"), strings.Index(md, "Found"))
}

func TestMarkdownExporter_NoMetadataNoKVPs(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{}).Export(sampleDoc(t))
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# Agent transcript"))
	assert.NotContains(t, md, "tool_name")
}

func TestJSONExporter_RoundTrip(t *testing.T) {
	doc := sampleDoc(t)
	out, err := NewJSONExporter().Export(doc)
	require.NoError(t, err)

	var back Document
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, doc.Guid, back.Guid)
	require.Len(t, back.Entries, len(doc.Entries))

	got := make([]string, len(back.Entries))
	want := make([]string, len(doc.Entries))
	for i := range back.Entries {
		got[i] = back.Entries[i].String()
		want[i] = doc.Entries[i].String()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"runtime", "code"}, back.Entries[2].KVPs.Keys(), "kvps keep key order")
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDoc(t)

	for _, name := range []string{"out.md", "out.json", "OUT.MARKDOWN"} {
		path := filepath.Join(dir, name)
		require.NoError(t, ToFile(doc, path, nil), name)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}

	assert.Error(t, ToFile(doc, filepath.Join(dir, "out.html"), nil))
	assert.ErrorIs(t, ToFile(&Document{}, filepath.Join(dir, "empty.md"), nil), ErrEmpty)
}

func TestDefaultFilename(t *testing.T) {
	doc := &Document{Guid: "abcdef123456", Exported: exportedAt}
	assert.Equal(t, "agent0_abcdef12_20260301_123000.md", DefaultFilename(doc, ".md"))

	doc.Guid = ""
	assert.Equal(t, "agent0_transcript_20260301_123000.json", DefaultFilename(doc, ".json"))
}

func TestFence_LongerThanContent(t *testing.T) {
	assert.Equal(t, "````\na ``` b\n````", fence("a ``` b", ""))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `\#1 \*bold\*`, escapeMarkdown("#1 *bold*"))
	assert.Equal(t, `"a: b"`, escapeYAML("a: b"))
	assert.Equal(t, `""`, escapeYAML(""))
	assert.Equal(t, "plain", escapeYAML("plain"))
}
