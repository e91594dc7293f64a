// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// runtimeLexers maps code execution runtimes to chroma lexer names.
var runtimeLexers = map[string]string{
	"python":   "python",
	"nodejs":   "javascript",
	"node":     "javascript",
	"terminal": "bash",
	"shell":    "bash",
	"bash":     "bash",
	"output":   "text",
}

// LexerFor returns the lexer name for a runtime KV value, or "" to let
// chroma guess.
func LexerFor(runtime string) string {
	return runtimeLexers[strings.ToLower(strings.TrimSpace(runtime))]
}

// highlight applies syntax highlighting with chroma. Plain renderers and
// colorless terminals get the code unchanged.
func (r *Renderers) highlight(code, language string) string {
	if r.theme == nil {
		return code
	}

	lexer := lexers.Get(language)
	if lexer == nil && language == "" {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(r.theme.ChromaStyle())
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get(r.theme.ChromaFormatter())
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// code renders a highlighted block set off from the heading.
func (r *Renderers) code(code, language string) string {
	code = strings.TrimRight(code, "\n")
	if strings.TrimSpace(code) == "" {
		return ""
	}
	out := r.highlight(code, language)
	if r.theme == nil {
		return indentAll(out, "  | ")
	}
	return r.theme.CodeBlock.Render(out)
}

func indentAll(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
