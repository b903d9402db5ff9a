package app

import (
	"github.com/dmitrijs2005/afterlog/internal/client/paging"
	"github.com/dmitrijs2005/afterlog/internal/client/remote"
	"github.com/dmitrijs2005/afterlog/internal/client/session"
	"github.com/dmitrijs2005/afterlog/internal/dates"
	"github.com/dmitrijs2005/afterlog/internal/models"
)

type Tab string

const (
	TabJournal Tab = "journal"
	TabTodo    Tab = "todo"
)

type AuthTab string

const (
	AuthLogin  AuthTab = "login"
	AuthSignup AuthTab = "signup"
)

const (
	SyncSynced  = "Synced"
	SyncSyncing = "Syncing…"
	SyncOffline = "Offline"
)

// AuthState backs the sign-in form.
type AuthState struct {
	Tab     AuthTab
	Loading bool
	Msg     string
	Error   string
}

// JournalState mirrors the composer.
type JournalState struct {
	Draft  string
	Count  string
	Mood   string
	Tags   string
	Date   dates.Day
	Hint   string
	Saving bool
}

// ListState is one paged journal list. Err is set when the last load
// failed.
type ListState struct {
	Pager   paging.Pager
	Entries []models.JournalEntry
	Err     string
}

type TodoState struct {
	Active    []models.Todo
	Completed []models.Todo
	Err       string
	// Pending is the todo waiting out its undo window.
	Pending *models.Todo
}

// ModalState is the quick capture dialog.
type ModalState struct {
	Open bool
	Tab  Tab
	Hint string
}

// State is everything the view renders. It is created at boot and
// discarded on sign-out.
type State struct {
	Route   session.Route
	Email   string
	Today   dates.Day
	MainTab Tab
	Auth    AuthState

	Journal JournalState
	Streak  int
	Recent  ListState
	History ListState
	Todos   TodoState
	Modal   ModalState

	Sync   string
	Toast  string
	Theme  string
	Export *remote.ExportResult
}

func newState(pageSize int, themeName string) State {
	return State{
		Route:   session.RouteNone,
		MainTab: TabJournal,
		Auth:    AuthState{Tab: AuthLogin},
		Recent:  ListState{Pager: paging.New(pageSize)},
		History: ListState{Pager: paging.New(pageSize)},
		Modal:   ModalState{Tab: TabJournal},
		Sync:    SyncSynced,
		Theme:   themeName,
	}
}

// clone copies the slices of s so a snapshot can leave the lock.
func (s State) clone() State {
	s.Recent.Entries = append([]models.JournalEntry(nil), s.Recent.Entries...)
	s.History.Entries = append([]models.JournalEntry(nil), s.History.Entries...)
	s.Todos.Active = append([]models.Todo(nil), s.Todos.Active...)
	s.Todos.Completed = append([]models.Todo(nil), s.Todos.Completed...)
	if s.Todos.Pending != nil {
		p := *s.Todos.Pending
		s.Todos.Pending = &p
	}
	if s.Export != nil {
		e := *s.Export
		s.Export = &e
	}
	return s
}
