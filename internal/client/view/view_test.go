package view

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/client/app"
	"github.com/dmitrijs2005/afterlog/internal/client/paging"
	"github.com/dmitrijs2005/afterlog/internal/client/remote"
	"github.com/dmitrijs2005/afterlog/internal/client/session"
	"github.com/dmitrijs2005/afterlog/internal/client/theme"
	"github.com/dmitrijs2005/afterlog/internal/dates"
	"github.com/dmitrijs2005/afterlog/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = dates.MustParseDay("2026-10-16")

func appState() app.State {
	return app.State{
		Route:   session.RouteApp,
		Email:   "ann@example.com",
		Today:   today,
		MainTab: app.TabJournal,
		Journal: app.JournalState{Count: "0 / 160", Date: today},
		Recent:  app.ListState{Pager: paging.New(10)},
		History: app.ListState{Pager: paging.New(10)},
		Sync:    app.SyncSynced,
		Theme:   theme.Gold,
	}
}

func TestRender_Auth(t *testing.T) {
	st := app.State{Route: session.RouteAuth, Sync: app.SyncOffline}
	st.Auth = app.AuthState{Tab: app.AuthSignup, Error: "This email is already registered."}

	sc := Render(st)

	assert.Equal(t, app.SyncOffline, sc.Status)
	assert.Equal(t, []TabLabel{{Label: "Log in"}, {Label: "Sign up", Active: true}}, sc.Tabs)
	require.Len(t, sc.Sections, 1)
	assert.Equal(t, "Sign up", sc.Sections[0].Title)
	assert.Equal(t, []Row{{Kind: RowError, Text: "This email is already registered."}}, sc.Sections[0].Rows)

	st.Auth = app.AuthState{Tab: app.AuthLogin, Loading: true}
	sc = Render(st)
	assert.Equal(t, "Log in", sc.Sections[0].Title)
	assert.Equal(t, LoadingLogin, sc.Sections[0].Rows[0].Text)
}

func TestRender_JournalEmptyStates(t *testing.T) {
	sc := Render(appState())

	assert.Equal(t, "ann@example.com · Synced", sc.Status)
	require.Len(t, sc.Sections, 4)
	assert.Equal(t, "Journal · Today", sc.Sections[0].Title)
	assert.Equal(t, "0 / 160", sc.Sections[0].Footer)
	assert.Equal(t, "0 days", sc.Sections[1].Rows[0].Text)
	assert.Equal(t, []Row{{Kind: RowEmpty, Text: EmptyRecent, Meta: EmptyRecentHint}}, sc.Sections[2].Rows)
	assert.Equal(t, []Row{{Kind: RowEmpty, Text: EmptyHistory, Meta: EmptyHistoryHint}}, sc.Sections[3].Rows)
	assert.Equal(t, "page 1", sc.Sections[2].Footer)
	assert.Nil(t, sc.Modal)
	assert.Empty(t, sc.Banner)
}

func TestRender_JournalEntries(t *testing.T) {
	st := appState()
	st.Streak = 1
	st.Journal = app.JournalState{
		Draft: "rain again",
		Count: "10 / 160",
		Mood:  "calm",
		Tags:  "walk",
		Date:  dates.MustParseDay("2026-10-15"),
		Hint:  "Today.",
	}
	st.Recent.Entries = []models.JournalEntry{
		{Content: "walked", EntryDate: today, Mood: "good", Tags: []string{"a", "b"}},
		{Content: "read", EntryDate: dates.MustParseDay("2026-10-14")},
	}
	st.Recent.Pager.HasNext = true
	st.History.Err = "offline"

	sc := Render(st)

	composer := sc.Sections[0]
	assert.Equal(t, "Journal · 2026-10-15", composer.Title)
	assert.Equal(t, "10 / 160 · mood calm · tags walk", composer.Footer)
	assert.Equal(t, []Row{
		{Kind: RowText, Text: "rain again"},
		{Kind: RowHint, Text: "Today."},
	}, composer.Rows)
	assert.Equal(t, "1 day", sc.Sections[1].Rows[0].Text)

	want := []Row{
		{Kind: RowEntry, Text: "walked", Meta: "good · #a #b", Badge: TodayBadge},
		{Kind: RowEntry, Text: "read", Badge: "2026-10-14"},
	}
	if diff := cmp.Diff(want, sc.Sections[2].Rows); diff != "" {
		t.Errorf("recent rows (-want +got):\n%s", diff)
	}
	assert.Equal(t, "page 1 · next", sc.Sections[2].Footer)
	assert.Equal(t, []Row{{Kind: RowError, Text: ErrorRow, Meta: "offline"}}, sc.Sections[3].Rows)
}

func TestRender_Todos(t *testing.T) {
	due := today
	later := dates.MustParseDay("2026-10-20")
	done := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

	st := appState()
	st.MainTab = app.TabTodo
	st.Todos = app.TodoState{
		Active: []models.Todo{
			{Content: "buy milk", DueDate: &due},
			{Content: "call mom", DueDate: &later},
		},
		Completed: []models.Todo{{Content: "water plants", Completed: true, DoneAt: &done}},
		Pending:   &models.Todo{Content: "old task"},
	}

	sc := Render(st)

	assert.True(t, sc.Tabs[1].Active)
	require.Len(t, sc.Sections, 2)
	want := []Row{
		{Kind: RowTodo, Num: 1, Text: "buy milk", Badge: TodayBadge},
		{Kind: RowTodo, Num: 2, Text: "call mom", Badge: "2026-10-20"},
	}
	assert.Equal(t, want, sc.Sections[0].Rows)
	assert.Equal(t, []Row{{Kind: RowTodo, Num: 3, Text: "water plants", Done: true, Meta: "done 2026-10-16 08:00"}}, sc.Sections[1].Rows)
	assert.Equal(t, "Deleted “old task”. Type undo to restore.", sc.Banner)

	st.Todos = app.TodoState{}
	sc = Render(st)
	assert.Equal(t, EmptyActive, sc.Sections[0].Rows[0].Text)
	assert.Equal(t, EmptyCompleted, sc.Sections[1].Rows[0].Text)

	st.Todos.Err = "Couldn’t load."
	sc = Render(st)
	assert.Equal(t, []Row{{Kind: RowError, Text: ErrorRow, Meta: "Couldn’t load."}}, sc.Sections[0].Rows)
	assert.Empty(t, sc.Sections[1].Rows)
}

func TestRender_ModalAndExport(t *testing.T) {
	st := appState()
	st.Modal = app.ModalState{Open: true, Tab: app.TabJournal, Hint: "Nothing to save."}
	st.Export = &remote.ExportResult{
		URL:       "https://bucket.example/exports/x.json",
		Entries:   3,
		Todos:     2,
		ExpiresAt: time.Date(2026, 10, 16, 9, 15, 0, 0, time.UTC),
	}

	sc := Render(st)

	require.NotNil(t, sc.Modal)
	assert.Equal(t, "Quick journal", sc.Modal.Title)
	assert.Equal(t, "Nothing to save.", sc.Modal.Rows[0].Text)

	last := sc.Sections[len(sc.Sections)-1]
	assert.Equal(t, "Export", last.Title)
	assert.Equal(t, "https://bucket.example/exports/x.json", last.Rows[0].Text)
	assert.Equal(t, "3 entries · 2 todos", last.Rows[0].Meta)
	assert.Equal(t, "link expires 09:15 UTC", last.Footer)
}

func TestRender_IsPure(t *testing.T) {
	st := appState()
	st.Recent.Entries = []models.JournalEntry{{Content: "x", EntryDate: today}}
	assert.Equal(t, Render(st), Render(st))
}
