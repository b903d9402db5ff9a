package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/dmitrijs2005/afterlog/internal/client/theme"
	"github.com/muesli/reflow/wordwrap"
)

const (
	DefaultWidth = 72
	minWidth     = 24
)

// Printer lays a Screen out as styled terminal text.
type Printer struct {
	width int
}

func NewPrinter(width int) *Printer {
	if width < minWidth {
		width = DefaultWidth
	}
	return &Printer{width: width}
}

func (p *Printer) Fprint(w io.Writer, sc Screen) error {
	_, err := fmt.Fprintln(w, p.Format(sc))
	return err
}

// Format renders sc. Long texts are word-wrapped to the printer width.
func (p *Printer) Format(sc Screen) string {
	th := theme.ByName(sc.Theme)
	var b strings.Builder

	b.WriteString(p.header(th, sc))
	b.WriteString("\n")
	if len(sc.Tabs) > 0 {
		tabs := make([]string, len(sc.Tabs))
		for i, t := range sc.Tabs {
			if t.Active {
				tabs[i] = th.TabOn.Render(t.Label)
			} else {
				tabs[i] = th.Tab.Render(t.Label)
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
		b.WriteString("\n")
	}

	for _, sec := range sc.Sections {
		b.WriteString("\n")
		b.WriteString(p.section(th, sec))
	}

	if sc.Banner != "" {
		b.WriteString("\n")
		b.WriteString(th.Badge.Render(sc.Banner))
		b.WriteString("\n")
	}
	if sc.Modal != nil {
		b.WriteString("\n")
		b.WriteString(th.Box.Render(strings.TrimRight(p.section(th, *sc.Modal), "\n")))
		b.WriteString("\n")
	}
	if sc.Toast != "" {
		b.WriteString("\n")
		b.WriteString(th.Toast.Render(sc.Toast))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// header puts the title on the left and the status on the right.
func (p *Printer) header(th theme.Theme, sc Screen) string {
	title := th.Title.Render(sc.Title)
	status := th.Status.Render(sc.Status)
	gap := p.width - lipgloss.Width(title) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + status
}

func (p *Printer) section(th theme.Theme, sec Section) string {
	var b strings.Builder
	b.WriteString(th.Heading.Render(sec.Title))
	b.WriteString("\n")
	for _, r := range sec.Rows {
		for _, line := range p.row(th, r) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if sec.Footer != "" {
		b.WriteString(th.Meta.Render(sec.Footer))
		b.WriteString("\n")
	}
	return b.String()
}

func (p *Printer) row(th theme.Theme, r Row) []string {
	prefix := "  "
	switch r.Kind {
	case RowTodo:
		box := "[ ]"
		if r.Done {
			box = "[x]"
		}
		prefix = fmt.Sprintf("%2d %s ", r.Num, box)
	case RowEntry:
		prefix = "  • "
	}

	text := r.Text
	style := th.Item
	switch r.Kind {
	case RowError:
		style = th.Error
		if r.Meta != "" {
			text += ": " + r.Meta
		}
	case RowEmpty, RowHint:
		style = th.Meta
		if r.Meta != "" {
			text += " " + r.Meta
		}
	}

	suffix := ""
	if r.Badge != "" {
		if r.Badge == TodayBadge {
			suffix = " " + th.Today.Render(r.Badge)
		} else {
			suffix = " " + th.Badge.Render(r.Badge)
		}
	}

	lines := wrapLines(prefix, text, p.width-lipgloss.Width(suffix))
	for i := range lines {
		lines[i] = style.Render(lines[i])
	}
	lines[0] += suffix
	if (r.Kind == RowEntry || r.Kind == RowTodo) && r.Meta != "" {
		pad := strings.Repeat(" ", lipgloss.Width(prefix))
		for _, m := range wrapLines(pad, r.Meta, p.width) {
			lines = append(lines, th.Meta.Render(m))
		}
	}
	return lines
}

// wrapLines wraps text to width, indenting continuation lines under the
// first character after prefix.
func wrapLines(prefix, text string, width int) []string {
	prefixWidth := lipgloss.Width(prefix)
	available := width - prefixWidth
	if available < 10 {
		available = 10
	}
	padding := strings.Repeat(" ", prefixWidth)

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		wrapped := wordwrap.String(raw, available)
		for _, seg := range strings.Split(wrapped, "\n") {
			if len(lines) == 0 {
				lines = append(lines, prefix+seg)
				continue
			}
			lines = append(lines, padding+seg)
		}
	}
	return lines
}
