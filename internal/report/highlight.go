package report

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter tokenises SQL text using chroma and renders it with ANSI
// colors for terminal output.
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
}

// NewHighlighter creates a Highlighter that uses the MySQL lexer, falling
// back to the generic SQL lexer.
func NewHighlighter() *Highlighter {
	l := lexers.Get("MySQL")
	if l == nil {
		l = lexers.Get("SQL")
	}
	if l == nil {
		l = lexers.Fallback
	}
	// Coalesce runs of identical token types so rendering processes fewer,
	// larger chunks.
	l = chroma.Coalesce(l)

	st := styles.Get("monokai")
	if st == nil {
		st = styles.Fallback
	}

	return &Highlighter{lexer: l, style: st}
}

// Highlight returns sql with ANSI color escapes applied per token. On any
// tokenisation or formatting error the input is returned unchanged.
func (h *Highlighter) Highlight(sql string) string {
	iter, err := h.lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}

	var b strings.Builder
	if err := formatters.TTY256.Format(&b, h.style, iter); err != nil {
		return sql
	}
	return b.String()
}
