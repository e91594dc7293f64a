// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harishvijayasarangan/agent0-voice/internal/handlers"
	"github.com/harishvijayasarangan/agent0-voice/internal/model"
	"github.com/harishvijayasarangan/agent0-voice/internal/ui/styles"
	"github.com/harishvijayasarangan/agent0-voice/internal/util"
)

func entry(t *testing.T, raw string) model.LogEntry {
	t.Helper()
	var e model.LogEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	return e
}

func TestRegisterDefaults_AllBuiltinTypes(t *testing.T) {
	reg := handlers.NewRegistry(nil)
	RegisterDefaults(reg, nil)

	assert.Equal(t, []string{
		"adhoc", "agent", "code_exe", "error", "hint", "info",
		"rate_limit", "response", "tool", "user", "util", "warning",
	}, reg.Types())
}

func TestUser_Plain(t *testing.T) {
	r := New(nil)
	out := r.User(model.LogEntry{Seq: 1, Type: "user", Heading: "User message", Content: model.Text("hello")}, handlers.Options{})
	assert.Equal(t, "User message #1\n  hello", out)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Given", Title(model.LogEntry{Type: "info", Heading: "  Given "}))
	assert.Equal(t, "Rate Limit", Title(model.LogEntry{Type: "rate_limit"}))
	assert.Equal(t, "Entry", Title(model.LogEntry{}))
}

func TestAgent_Thoughts(t *testing.T) {
	r := New(nil)
	e := entry(t, `{"no":2,"type":"agent","heading":"Agent 0: Generating","content":"","kvps":{"thoughts":["look at the file","answer"],"tool_name":"response"}}`)

	shown := r.Agent(e, handlers.Options{ShowThoughts: true})
	assert.Contains(t, shown, "• look at the file")
	assert.Contains(t, shown, "• answer")

	hidden := r.Agent(e, handlers.Options{ShowThoughts: false})
	assert.NotContains(t, hidden, "look at the file")
	assert.Contains(t, hidden, "Agent 0: Generating")
}

func TestAgent_ShowJSONWithoutThoughtsOmitsThem(t *testing.T) {
	r := New(nil)
	e := entry(t, `{"no":2,"type":"agent","heading":"h","content":"","kvps":{"thoughts":"secret plan","tool_name":"search"}}`)

	out := r.Agent(e, handlers.Options{ShowJSON: true})
	assert.Contains(t, out, `"tool_name": "search"`)
	assert.NotContains(t, out, "secret plan")

	out = r.Agent(e, handlers.Options{ShowJSON: true, ShowThoughts: true})
	assert.Contains(t, out, `"thoughts": "secret plan"`)
}

func TestShowJSON_KeepsKeyOrder(t *testing.T) {
	r := New(nil)
	e := entry(t, `{"no":4,"type":"tool","heading":"Using tool","content":"done","kvps":{"zeta":1,"alpha":2}}`)

	out := r.Tool(e, handlers.Options{ShowJSON: true})
	zi, ai := strings.Index(out, `"zeta"`), strings.Index(out, `"alpha"`)
	require.True(t, zi >= 0 && ai >= 0, out)
	assert.Less(t, zi, ai, "kvps must render in server order")

	assert.NotContains(t, r.Tool(e, handlers.Options{}), "zeta")
}

func TestTool_JSONContentKeepsOrder(t *testing.T) {
	r := New(nil)
	e := entry(t, `{"no":5,"type":"tool","heading":"t","content":{"b":1,"a":2},"kvps":{}}`)

	out := r.Tool(e, handlers.Options{})
	assert.Less(t, strings.Index(out, `"b"`), strings.Index(out, `"a"`))
	assert.Contains(t, out, "  | ")
}

func TestCodeExe(t *testing.T) {
	r := New(nil)
	e := entry(t, `{"no":6,"type":"code_exe","heading":"Running code","content":"4\n","kvps":{"runtime":"python","code":"print(2+2)"}}`)

	out := r.CodeExe(e, handlers.Options{})
	assert.Contains(t, out, "print(2+2)")
	assert.Contains(t, out, "  | 4")
	assert.Less(t, strings.Index(out, "print"), strings.Index(out, "| 4"))
}

func TestLexerFor(t *testing.T) {
	assert.Equal(t, "python", LexerFor("Python"))
	assert.Equal(t, "javascript", LexerFor("nodejs"))
	assert.Equal(t, "bash", LexerFor("terminal"))
	assert.Equal(t, "", LexerFor("cobol"))
}

func TestAlert_Indicators(t *testing.T) {
	r := New(nil)
	assert.True(t, strings.HasPrefix(r.Alert(model.LogEntry{Type: "error", Heading: "Failed"}, handlers.Options{}), "[X] Failed"))
	assert.True(t, strings.HasPrefix(r.Alert(model.LogEntry{Type: "rate_limit"}, handlers.Options{}), "[!] Rate Limit"))
}

func TestHeading_TruncatedToWidth(t *testing.T) {
	r := New(nil)
	e := model.LogEntry{Seq: 12, Type: "info", Heading: strings.Repeat("long heading ", 10)}

	first := strings.SplitN(r.Note(e, handlers.Options{Width: 30}), "\n", 2)[0]
	assert.LessOrEqual(t, util.Width(first), 30)
	assert.True(t, strings.HasSuffix(first, "#12"), first)
}

func TestFallback_RegistryUnknownType(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Contains(t, reg.Types(), model.TypeCodeExe)

	out := reg.Bind(model.LogEntry{Seq: 3, Type: "mystery", Content: model.Text("body")}).Render(handlers.Options{})
	assert.Equal(t, "Mystery #3\n  body", out)
}

func TestThemed_RendersContent(t *testing.T) {
	theme := styles.ForName(styles.ThemeDark)
	reg := handlers.NewRegistry(nil)
	RegisterDefaults(reg, theme)

	tests := []struct {
		name string
		e    model.LogEntry
		want []string
	}{
		{"response markdown", model.LogEntry{Seq: 1, Type: "response", Heading: "Response", Content: model.Text("# Title\n\nSome **bold** words")}, []string{"Response", "Title", "bold", "words"}},
		{"user", model.LogEntry{Seq: 2, Type: "user", Heading: "User message", Content: model.Text("hi there")}, []string{"User message", "hi there"}},
		{"warning", model.LogEntry{Seq: 3, Type: "warning", Heading: "Careful", Content: model.Text("slow down")}, []string{"[!] Careful", "slow down"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := reg.Bind(tt.e).Render(handlers.Options{Width: 60, ShowThoughts: true})
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "x", stringify("x"))
	assert.Equal(t, "1.5", stringify(json.Number("1.5")))
	assert.Equal(t, `{"a":1}`, stringify(map[string]any{"a": 1}))
	assert.Equal(t, "true", stringify(true))
}
