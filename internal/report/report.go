// Package report renders execution results for a human operator.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sadopc/schemapatch/internal/catalog"
	"github.com/sadopc/schemapatch/internal/runner"
)

var (
	colorSuccess = lipgloss.Color("#2F855A")
	colorError   = lipgloss.Color("#C53030")
	colorSubtle  = lipgloss.Color("#4B5563")
	colorInfo    = lipgloss.Color("#2563EB")

	nameStyle    = lipgloss.NewStyle().Bold(true)
	kindStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	headerStyle  = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
)

// Reporter writes formatted execution results to an io.Writer.
type Reporter struct {
	w           io.Writer
	highlighter *Highlighter
}

// New creates a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{
		w:           w,
		highlighter: NewHighlighter(),
	}
}

// Write renders each result in catalog order: diagnostic row sets as bordered
// tables preserving the database's row order, mutation outcomes as one-line
// statuses, and skipped mutations (dry run) as highlighted SQL echoes.
func (r *Reporter) Write(results []runner.Result) {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		r.writeOne(res)
	}
}

func (r *Reporter) writeOne(res runner.Result) {
	fmt.Fprintf(r.w, "%s %s\n",
		nameStyle.Render(res.Statement.Name),
		kindStyle.Render("("+res.Statement.Kind.String()+")"))

	switch {
	case res.Skipped:
		fmt.Fprintf(r.w, "%s\n%s\n",
			infoStyle.Render("dry run, would execute:"),
			r.highlighter.Highlight(res.Statement.SQL))

	case res.Err != nil:
		fmt.Fprintf(r.w, "%s %v\n", errorStyle.Render("✗"), res.Err)

	case res.Statement.Kind == catalog.Diagnostic && res.Query != nil:
		r.writeRows(res)

	default:
		msg := "ok"
		if res.Query != nil && res.Query.Message != "" {
			msg = res.Query.Message
		}
		fmt.Fprintf(r.w, "%s %s %s\n",
			successStyle.Render("✓"), msg,
			kindStyle.Render(fmt.Sprintf("(%s)", res.Duration.Round(time.Millisecond))))
	}
}

func (r *Reporter) writeRows(res runner.Result) {
	qr := res.Query
	if len(qr.Rows) == 0 {
		fmt.Fprintln(r.w, kindStyle.Render("(no rows)"))
		return
	}

	headers := make([]string, len(qr.Columns))
	for i, c := range qr.Columns {
		headers[i] = c.Name
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(qr.Rows...)

	fmt.Fprintln(r.w, t.Render())
	fmt.Fprintln(r.w, kindStyle.Render(fmt.Sprintf("%d row(s)", len(qr.Rows))))
}
