// Package view turns controller state into a screen description. Render is
// pure: the same State always yields the same Screen, and nothing here
// talks to the network or the clock.
package view

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/afterlog/internal/client/app"
	"github.com/dmitrijs2005/afterlog/internal/client/paging"
	"github.com/dmitrijs2005/afterlog/internal/client/session"
	"github.com/dmitrijs2005/afterlog/internal/dates"
	"github.com/dmitrijs2005/afterlog/internal/models"
)

const (
	Title = "Afterlog"

	EmptyRecent       = "No entries."
	EmptyRecentHint   = "Last 3 days only."
	EmptyHistory      = "No history yet."
	EmptyHistoryHint  = "Start with one line."
	EmptyActive       = "No active tasks."
	EmptyActiveHint   = "Keep it light."
	EmptyCompleted    = "No completed tasks."
	EmptyCompleteHint = "Small wins count."

	ErrorRow   = "Error"
	TodayBadge = "Today"

	LoadingLogin  = "Logging in…"
	LoadingSignup = "Signing up…"
)

type RowKind int

const (
	RowText RowKind = iota
	RowEntry
	RowTodo
	RowEmpty
	RowError
	RowHint
)

// Row is one line of a section. Meta is secondary text shown dimmed; Badge
// is a short tag such as a date or "Today".
type Row struct {
	Kind  RowKind
	Num   int
	Text  string
	Meta  string
	Badge string
	Done  bool
}

type Section struct {
	Title  string
	Rows   []Row
	Footer string
}

type TabLabel struct {
	Label  string
	Active bool
}

// Screen is everything the printer needs. Banner is the undo prompt.
type Screen struct {
	Theme    string
	Title    string
	Status   string
	Tabs     []TabLabel
	Sections []Section
	Banner   string
	Modal    *Section
	Toast    string
}

// Render builds the screen for st.
func Render(st app.State) Screen {
	sc := Screen{
		Theme: st.Theme,
		Title: Title,
		Toast: st.Toast,
	}
	if st.Route != session.RouteApp {
		renderAuth(&sc, st)
		return sc
	}

	sc.Status = st.Email + " · " + st.Sync
	sc.Tabs = []TabLabel{
		{Label: "Journal", Active: st.MainTab == app.TabJournal},
		{Label: "Todo", Active: st.MainTab == app.TabTodo},
	}
	if st.MainTab == app.TabTodo {
		sc.Sections = todoSections(st)
	} else {
		sc.Sections = journalSections(st)
	}
	if st.Todos.Pending != nil {
		sc.Banner = fmt.Sprintf("Deleted “%s”. Type undo to restore.", st.Todos.Pending.Content)
	}
	if st.Export != nil {
		sc.Sections = append(sc.Sections, exportSection(st))
	}
	if st.Modal.Open {
		m := modalSection(st.Modal)
		sc.Modal = &m
	}
	return sc
}

func renderAuth(sc *Screen, st app.State) {
	sc.Status = st.Sync
	login := st.Auth.Tab != app.AuthSignup
	sc.Tabs = []TabLabel{
		{Label: "Log in", Active: login},
		{Label: "Sign up", Active: !login},
	}

	sec := Section{Title: "Sign up"}
	loading := LoadingSignup
	if login {
		sec.Title, loading = "Log in", LoadingLogin
	}
	switch {
	case st.Auth.Loading:
		sec.Rows = append(sec.Rows, Row{Kind: RowHint, Text: loading})
	case st.Auth.Error != "":
		sec.Rows = append(sec.Rows, Row{Kind: RowError, Text: st.Auth.Error})
	case st.Auth.Msg != "":
		sec.Rows = append(sec.Rows, Row{Kind: RowText, Text: st.Auth.Msg})
	}
	sec.Footer = "login · signup · help"
	sc.Sections = []Section{sec}
}

func journalSections(st app.State) []Section {
	j := st.Journal

	composer := Section{Title: "Journal · " + dayLabel(j.Date, st.Today)}
	if j.Draft == "" {
		composer.Rows = append(composer.Rows, Row{Kind: RowHint, Text: "write <text> to start, save to keep it."})
	} else {
		composer.Rows = append(composer.Rows, Row{Kind: RowText, Text: j.Draft})
	}
	if j.Hint != "" {
		composer.Rows = append(composer.Rows, Row{Kind: RowHint, Text: j.Hint})
	}
	footer := []string{j.Count}
	if j.Mood != "" {
		footer = append(footer, "mood "+j.Mood)
	}
	if strings.TrimSpace(j.Tags) != "" {
		footer = append(footer, "tags "+j.Tags)
	}
	if j.Saving {
		footer = append(footer, "saving…")
	}
	composer.Footer = strings.Join(footer, " · ")

	streak := Section{
		Title: "Streak",
		Rows:  []Row{{Kind: RowText, Text: streakLabel(st.Streak)}},
	}

	recent := entrySection("Recent", st.Recent, st.Today, EmptyRecent, EmptyRecentHint)
	history := entrySection("History", st.History, st.Today, EmptyHistory, EmptyHistoryHint)
	return []Section{composer, streak, recent, history}
}

func streakLabel(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func entrySection(title string, l app.ListState, today dates.Day, empty, hint string) Section {
	sec := Section{Title: title, Footer: pagerLabel(l.Pager)}
	switch {
	case l.Err != "":
		sec.Rows = []Row{{Kind: RowError, Text: ErrorRow, Meta: l.Err}}
	case len(l.Entries) == 0:
		sec.Rows = []Row{{Kind: RowEmpty, Text: empty, Meta: hint}}
	default:
		for _, e := range l.Entries {
			sec.Rows = append(sec.Rows, entryRow(e, today))
		}
	}
	return sec
}

func entryRow(e models.JournalEntry, today dates.Day) Row {
	var meta []string
	if e.Mood != "" {
		meta = append(meta, e.Mood)
	}
	if len(e.Tags) > 0 {
		meta = append(meta, "#"+strings.Join(e.Tags, " #"))
	}
	return Row{
		Kind:  RowEntry,
		Text:  e.Content,
		Meta:  strings.Join(meta, " · "),
		Badge: dayLabel(e.EntryDate, today),
	}
}

func pagerLabel(p paging.Pager) string {
	parts := []string{fmt.Sprintf("page %d", p.Page)}
	if p.PrevEnabled() {
		parts = append(parts, "prev")
	}
	if p.NextEnabled() {
		parts = append(parts, "next")
	}
	return strings.Join(parts, " · ")
}

func dayLabel(d, today dates.Day) string {
	if d == today {
		return TodayBadge
	}
	return d.String()
}

// todoSections numbers active todos first and completed after them, the
// same numbering the todo commands accept.
func todoSections(st app.State) []Section {
	t := st.Todos
	active := Section{Title: "Active"}
	completed := Section{Title: "Completed"}

	if t.Err != "" {
		active.Rows = []Row{{Kind: RowError, Text: ErrorRow, Meta: t.Err}}
	} else if len(t.Active) == 0 {
		active.Rows = []Row{{Kind: RowEmpty, Text: EmptyActive, Meta: EmptyActiveHint}}
	}
	n := 0
	for _, td := range t.Active {
		n++
		active.Rows = append(active.Rows, todoRow(n, td, st.Today))
	}

	if len(t.Completed) == 0 && t.Err == "" {
		completed.Rows = []Row{{Kind: RowEmpty, Text: EmptyCompleted, Meta: EmptyCompleteHint}}
	}
	for _, td := range t.Completed {
		n++
		completed.Rows = append(completed.Rows, todoRow(n, td, st.Today))
	}
	return []Section{active, completed}
}

func todoRow(n int, t models.Todo, today dates.Day) Row {
	r := Row{Kind: RowTodo, Num: n, Text: t.Content, Done: t.Completed}
	if t.DueDate != nil {
		r.Badge = dayLabel(*t.DueDate, today)
	}
	if t.DoneAt != nil {
		r.Meta = "done " + t.DoneAt.UTC().Format("2006-01-02 15:04")
	}
	return r
}

func exportSection(st app.State) Section {
	e := st.Export
	return Section{
		Title: "Export",
		Rows: []Row{{
			Kind: RowText,
			Text: e.URL,
			Meta: fmt.Sprintf("%d entries · %d todos", e.Entries, e.Todos),
		}},
		Footer: "link expires " + e.ExpiresAt.UTC().Format("15:04 MST"),
	}
}

func modalSection(m app.ModalState) Section {
	sec := Section{Title: "Quick journal", Footer: "qsave <text> · qclose"}
	if m.Tab == app.TabTodo {
		sec = Section{Title: "Quick todo", Footer: "qadd <text> [@YYYY-MM-DD] · qclose"}
	}
	if m.Hint != "" {
		sec.Rows = []Row{{Kind: RowError, Text: m.Hint}}
	}
	return sec
}
