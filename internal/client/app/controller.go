// Package app is the client controller. It owns the UI state and turns
// user commands and timer expiries into calls on the journal composer, the
// todo manager and the hosted service.
//
// Every handler and every timer callback runs under one mutex, so the
// controller behaves as a single logical thread. Handlers never return
// remote errors: they settle the state and write a message into it.
package app

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/afterlog/internal/client/apperr"
	"github.com/dmitrijs2005/afterlog/internal/client/deferred"
	"github.com/dmitrijs2005/afterlog/internal/client/journal"
	"github.com/dmitrijs2005/afterlog/internal/client/localstore"
	"github.com/dmitrijs2005/afterlog/internal/client/paging"
	"github.com/dmitrijs2005/afterlog/internal/client/remote"
	"github.com/dmitrijs2005/afterlog/internal/client/session"
	"github.com/dmitrijs2005/afterlog/internal/client/streak"
	"github.com/dmitrijs2005/afterlog/internal/client/theme"
	"github.com/dmitrijs2005/afterlog/internal/client/todos"
	"github.com/dmitrijs2005/afterlog/internal/clockx"
	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/dates"
	"github.com/dmitrijs2005/afterlog/internal/logging"
	"github.com/dmitrijs2005/afterlog/internal/models"
)

// Prefs is the part of the local store the controller uses.
type Prefs interface {
	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, name string) error
	LoadSession(ctx context.Context) (*localstore.SavedSession, error)
	SaveSession(ctx context.Context, s localstore.SavedSession) error
	ClearSession(ctx context.Context) error
}

// Messages shown by the controller.
const (
	MsgMissingCredentials = "Please enter email and password."
	MsgShortPassword      = "Password must be at least 6 characters."
	MsgWelcomeBack        = "Welcome back."
	MsgAccountCreated     = "Account created."
	MsgNothingToAdd       = "Nothing to add."
	MsgNoSuchTask         = "No such task."
)

type Controller struct {
	mu sync.Mutex

	opts   Options
	svc    remote.Service
	prefs  Prefs
	clock  clockx.Clock
	logger logging.Logger

	router      *session.Router
	todos       *todos.Manager
	composer    *journal.Composer
	toastTimer  *deferred.Timer
	unsubscribe func()

	state State
}

func New(svc remote.Service, prefs Prefs, clock clockx.Clock, opts Options) *Controller {
	opts = opts.withDefaults()
	if clock == nil {
		clock = clockx.Real{}
	}
	c := &Controller{
		opts:   opts,
		svc:    svc,
		prefs:  prefs,
		clock:  clock,
		logger: opts.Logger,
		state:  newState(opts.PageSize, theme.Gold),
	}
	c.todos = todos.NewManager(svc, clock, todos.Options{
		UndoWindow: opts.UndoWindow,
		Guard:      c.guard,
		OnCommit:   c.onTodoCommit,
		Logger:     opts.Logger,
	})
	c.composer = journal.NewComposer(svc, clock, journal.Options{
		AutosaveDelay:   opts.AutosaveDelay,
		Location:        opts.Location,
		Guard:           c.guard,
		OnSaved:         c.onEntrySaved,
		OnAutosaveError: c.onAutosaveError,
		Logger:          opts.Logger,
	})
	c.toastTimer = deferred.New(clock, c.guard)
	c.router = session.NewRouter(routeTarget{c})
	c.unsubscribe = svc.Subscribe(c.persistSession)
	c.state.Today = c.today()
	c.syncJournal()
	return c
}

func (c *Controller) guard(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// persistSession keeps the saved refresh token in step with the auth
// collaborator. It runs on whatever goroutine changed the session, possibly
// inside a handler, so it must not take c.mu.
func (c *Controller) persistSession(s *remote.Session) {
	ctx := context.Background()
	var err error
	if s == nil {
		err = c.prefs.ClearSession(ctx)
	} else {
		err = c.prefs.SaveSession(ctx, localstore.SavedSession{
			RefreshToken: s.RefreshToken,
			UserID:       s.UserID,
			Email:        s.Email,
		})
	}
	if err != nil {
		c.logger.Error(ctx, "persist session", "error", err)
	}
}

// Boot restores the theme and any saved session, then routes.
func (c *Controller) Boot(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name, err := c.prefs.Theme(ctx); err != nil {
		c.logger.Warn(ctx, "load theme", "error", err)
	} else if theme.Valid(name) {
		c.state.Theme = name
	}

	saved, err := c.prefs.LoadSession(ctx)
	if err != nil {
		c.logger.Warn(ctx, "load saved session", "error", err)
	}
	if saved != nil && c.svc.CurrentSession() == nil {
		c.beginSync()
		_, err := c.svc.Resume(ctx, saved.RefreshToken)
		c.endSync(err)
		if err != nil {
			c.logger.Info(ctx, "saved session not resumed", "error", err)
			if apperr.Is(err, apperr.Auth) {
				if err := c.prefs.ClearSession(ctx); err != nil {
					c.logger.Error(ctx, "clear saved session", "error", err)
				}
			}
		}
	}
	c.router.Route(ctx, c.svc.CurrentSession())
}

// Close flushes a waiting delete and detaches from the auth collaborator.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.todos.Pending() != nil {
		_ = c.todos.Flush(ctx)
	}
	c.composer.Reset()
	c.toastTimer.Cancel()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Snapshot returns a copy of the state for rendering.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncJournal()
	c.syncTodos()
	return c.state.clone()
}

// ---- routing

type routeTarget struct{ c *Controller }

// EnterApp runs under c.mu, from a handler or from checkSession.
func (t routeTarget) EnterApp(ctx context.Context, s *remote.Session) {
	c := t.c
	c.state.Route = session.RouteApp
	c.state.Email = s.Email
	c.state.MainTab = TabJournal
	c.state.Modal = ModalState{Tab: TabJournal}
	c.state.Export = nil
	c.state.Recent.Pager.Reset()
	c.state.History.Pager.Reset()
	c.composer.Reset()
	c.todos.Reset()

	c.reloadAll(ctx)
	if !c.signedIn() {
		return
	}
	c.logger.Info(ctx, "signed in", "user_id", s.UserID)
	c.toast("Loaded.")
}

func (t routeTarget) EnterAuth(ctx context.Context) {
	c := t.c
	c.todos.Reset()
	c.composer.Reset()

	next := newState(c.opts.PageSize, c.state.Theme)
	next.Route = session.RouteAuth
	next.Auth.Tab = c.state.Auth.Tab
	next.Sync = c.state.Sync
	next.Toast = c.state.Toast
	next.Today = c.today()
	c.state = next
	c.syncJournal()
}

// checkSession sends the user back to the sign-in view when an auth
// failure ended the session.
func (c *Controller) checkSession(ctx context.Context, err error) {
	if apperr.Is(err, apperr.Auth) && c.svc.CurrentSession() == nil {
		c.router.Route(ctx, nil)
	}
}

func (c *Controller) signedIn() bool {
	return c.router.Current() == session.RouteApp
}

// ---- auth

func (c *Controller) SetAuthTab(tab AuthTab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Auth = AuthState{Tab: tab}
}

func (c *Controller) SignIn(ctx context.Context, email, password string) {
	c.authenticate(ctx, AuthLogin, email, password)
}

func (c *Controller) SignUp(ctx context.Context, email, password string) {
	c.authenticate(ctx, AuthSignup, email, password)
}

func (c *Controller) authenticate(ctx context.Context, mode AuthTab, email, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Auth = AuthState{Tab: mode}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		c.state.Auth.Error = MsgMissingCredentials
		return
	}
	if len(password) < common.MinPasswordLength {
		c.state.Auth.Error = MsgShortPassword
		return
	}

	c.state.Auth.Loading = true
	c.beginSync()
	var (
		s   *remote.Session
		err error
	)
	if mode == AuthSignup {
		s, err = c.svc.SignUp(ctx, email, password)
	} else {
		s, err = c.svc.SignIn(ctx, email, password)
	}
	c.state.Auth.Loading = false
	c.endSync(err)

	if err != nil {
		c.state.Auth.Error = apperr.HumanizeAuth(apperr.MessageOr(err, ""))
		c.logger.Info(ctx, "authentication failed", "mode", string(mode), "error", err)
		return
	}

	if mode == AuthSignup {
		c.state.Auth.Msg = MsgAccountCreated
	} else {
		c.state.Auth.Msg = MsgWelcomeBack
	}
	c.toast("Synced.")
	c.router.Route(ctx, s)
}

// SignOut commits a waiting delete, ends the session and returns to the
// sign-in view.
func (c *Controller) SignOut(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.todos.Pending() != nil {
		_ = c.todos.Flush(ctx)
	}

	c.beginSync()
	err := c.svc.SignOut(ctx)
	c.endSync(err)
	if err != nil {
		c.logger.Warn(ctx, "remote sign-out failed", "error", err)
	}

	c.router.Route(ctx, nil)
	c.toast("Signed out.")
}

// ---- navigation

func (c *Controller) SetTab(tab Tab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.MainTab = tab
}

func (c *Controller) RecentNext(ctx context.Context) {
	c.page(ctx, &c.state.Recent.Pager, true, c.loadRecent)
}

func (c *Controller) RecentPrev(ctx context.Context) {
	c.page(ctx, &c.state.Recent.Pager, false, c.loadRecent)
}

func (c *Controller) HistoryNext(ctx context.Context) {
	c.page(ctx, &c.state.History.Pager, true, c.loadHistory)
}

func (c *Controller) HistoryPrev(ctx context.Context) {
	c.page(ctx, &c.state.History.Pager, false, c.loadHistory)
}

func (c *Controller) page(ctx context.Context, p *paging.Pager, next bool, load func(context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.signedIn() {
		return
	}
	moved := p.Prev
	if next {
		moved = p.Next
	}
	if moved() {
		load(ctx)
	}
}

// Reload fetches every list again.
func (c *Controller) Reload(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.signedIn() {
		return
	}
	c.reloadAll(ctx)
	c.toast("Loaded.")
}

// ---- loading

func (c *Controller) today() dates.Day {
	return dates.Today(c.clock.Now(), c.opts.Location)
}

// reloadAll stops early when a load ends the session.
func (c *Controller) reloadAll(ctx context.Context) {
	for _, load := range []func(context.Context){c.loadRecent, c.loadHistory, c.computeStreak, c.loadTodos} {
		if !c.signedIn() {
			return
		}
		load(ctx)
	}
}

func (c *Controller) query(ctx context.Context, q models.Query) ([]models.Record, error) {
	c.beginSync()
	rows, err := c.svc.Query(ctx, q)
	c.endSync(err)
	return rows, err
}

func (c *Controller) loadEntries(ctx context.Context, l *ListState, q models.Query) {
	from, to := l.Pager.Range()
	rows, err := c.query(ctx, q.Window(from, to))
	if err == nil {
		var entries []models.JournalEntry
		if entries, err = models.JournalEntries(rows); err == nil {
			l.Entries = paging.Apply(&l.Pager, entries)
			l.Err = ""
			return
		}
	}
	c.logger.Warn(ctx, "load entries", "error", err)
	l.Entries = nil
	l.Err = apperr.MessageOr(err, "Error")
	c.checkSession(ctx, err)
}

// loadRecent lists entries dated within the recent window, newest first.
func (c *Controller) loadRecent(ctx context.Context) {
	today := c.today()
	c.state.Today = today
	q := models.From(models.CollectionJournal).
		Select(models.JournalColumns...).
		Where(
			models.Gte(models.ColEntryDate, today.AddDays(-(c.opts.RecentDays-1))),
			models.Lte(models.ColEntryDate, today),
		).
		OrderBy(models.ColCreatedAt, true)
	c.loadEntries(ctx, &c.state.Recent, q)
}

// loadHistory lists every entry by day, then creation time.
func (c *Controller) loadHistory(ctx context.Context) {
	q := models.From(models.CollectionJournal).
		Select(models.JournalColumns...).
		OrderBy(models.ColEntryDate, true).
		OrderBy(models.ColCreatedAt, true)
	c.loadEntries(ctx, &c.state.History, q)
}

func (c *Controller) computeStreak(ctx context.Context) {
	today := c.today()
	from, to := streak.Window(today, c.opts.StreakWindowDays)
	q := models.From(models.CollectionJournal).
		Select(models.ColEntryDate).
		Where(models.Gte(models.ColEntryDate, from), models.Lte(models.ColEntryDate, to))
	rows, err := c.query(ctx, q)
	if err != nil {
		c.logger.Warn(ctx, "streak query", "error", err)
		c.checkSession(ctx, err)
		return
	}
	days := make([]dates.Day, 0, len(rows))
	for _, r := range rows {
		if d, err := r.Day(models.ColEntryDate); err == nil && !d.IsZero() {
			days = append(days, d)
		}
	}
	c.state.Streak = streak.Compute(days, today, c.opts.StreakPolicy)
}

func (c *Controller) loadTodos(ctx context.Context) {
	c.beginSync()
	err := c.todos.Load(ctx)
	c.endSync(err)
	if err != nil {
		c.logger.Warn(ctx, "load todos", "error", err)
		c.state.Todos.Err = apperr.MessageOr(err, "Error")
		c.checkSession(ctx, err)
	} else {
		c.state.Todos.Err = ""
	}
	c.syncTodos()
}

// ---- journal

// Write adds a keystroke batch to the draft and restarts the autosave
// debounce.
func (c *Controller) Write(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.signedIn() {
		return
	}
	c.composer.Append(text)
	c.syncJournal()
}

// ClearDraft empties the draft text.
func (c *Controller) ClearDraft() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composer.Edit("")
	c.syncJournal()
	c.toast("Cleared.")
}

// Save stores the draft. A non-empty text replaces the draft first.
func (c *Controller) Save(ctx context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.signedIn() {
		return
	}
	if text != "" {
		c.composer.Edit(text)
	}
	c.saveJournal(ctx)
}

func (c *Controller) saveJournal(ctx context.Context) bool {
	c.state.Journal.Saving = true
	c.beginSync()
	_, err := c.composer.Save(ctx, false)
	c.state.Journal.Saving = false
	c.endSync(err)
	c.syncJournal()

	switch {
	case err == nil:
		c.toast("Saved.")
		return true
	case apperr.Message(err) == journal.HintBlank:
		c.toast(journal.HintNotSaved)
	case apperr.Is(err, apperr.Validation):
		c.toast(apperr.Message(err))
	default:
		c.logger.Warn(ctx, "journal save failed", "error", err)
		c.toast("Couldn’t save.")
		c.checkSession(ctx, err)
	}
	return false
}

// onEntrySaved runs under c.mu after every successful composer save.
func (c *Controller) onEntrySaved(ctx context.Context, e models.JournalEntry, silent bool) {
	c.state.Recent.Pager.Reset()
	c.state.History.Pager.Reset()
	for _, load := range []func(context.Context){c.loadRecent, c.loadHistory, c.computeStreak} {
		if !c.signedIn() {
			break
		}
		load(ctx)
	}
	c.syncJournal()
}

// onAutosaveError runs under c.mu when a silent save fails.
func (c *Controller) onAutosaveError(err error) {
	c.endSync(err)
	c.syncJournal()
	c.checkSession(context.Background(), err)
}

func (c *Controller) ToggleMood(mood string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, err := c.composer.ToggleMood(mood)
	c.syncJournal()
	switch {
	case err != nil:
		c.toast(apperr.Message(err))
	case m == "":
		c.toast("Mood cleared.")
	default:
		c.toast("Mood " + m)
	}
}

func (c *Controller) SetTags(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composer.SetTags(raw)
	c.syncJournal()
}

// SetDate sets the entry date; an empty string means today.
func (c *Controller) SetDate(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(s) == "" {
		c.composer.SetDate(dates.Day{})
		c.syncJournal()
		return
	}
	d, err := dates.ParseDay(strings.TrimSpace(s))
	if err != nil {
		c.toast("Use YYYY-MM-DD.")
		return
	}
	c.composer.SetDate(d)
	c.syncJournal()
}

func (c *Controller) syncJournal() {
	c.state.Journal.Draft = c.composer.Draft()
	c.state.Journal.Count = c.composer.Count()
	c.state.Journal.Mood = c.composer.Mood()
	c.state.Journal.Tags = c.composer.TagsRaw()
	c.state.Journal.Date = c.composer.Date()
	c.state.Journal.Hint = c.composer.Hint()
}

// ---- todos

// AddTodo creates a todo. due is empty or YYYY-MM-DD.
func (c *Controller) AddTodo(ctx context.Context, text, due string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addTodo(ctx, text, due)
}

func (c *Controller) addTodo(ctx context.Context, text, due string) bool {
	if !c.signedIn() {
		return false
	}
	var day *dates.Day
	if due = strings.TrimSpace(due); due != "" {
		d, err := dates.ParseDay(due)
		if err != nil {
			c.toast("Use YYYY-MM-DD.")
			return false
		}
		day = &d
	}
	if strings.TrimSpace(text) == "" {
		c.toast(MsgNothingToAdd)
		return false
	}

	c.beginSync()
	_, err := c.todos.Add(ctx, text, day)
	c.endSync(err)
	c.syncTodos()
	if err != nil {
		c.logger.Warn(ctx, "add todo", "error", err)
		c.toast("Couldn’t add.")
		c.checkSession(ctx, err)
		return false
	}
	c.toast("Saved.")
	return true
}

// ToggleTodo flips the n-th listed todo, counting active then completed
// from 1.
func (c *Controller) ToggleTodo(ctx context.Context, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.todoAt(n)
	if !ok {
		c.toast(MsgNoSuchTask)
		return
	}
	c.beginSync()
	_, err := c.todos.Toggle(ctx, t.ID)
	c.endSync(err)
	c.syncTodos()
	if err != nil {
		c.logger.Warn(ctx, "toggle todo", "todo_id", t.ID, "error", err)
		c.toast("Couldn’t update.")
		c.checkSession(ctx, err)
		return
	}
	c.toast("Saved.")
}

// DeleteTodo hides the n-th listed todo and opens the undo window.
func (c *Controller) DeleteTodo(ctx context.Context, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.todoAt(n)
	if !ok {
		c.toast(MsgNoSuchTask)
		return
	}
	if err := c.todos.Delete(ctx, t.ID); err != nil {
		c.toast(apperr.Message(err))
		return
	}
	c.syncTodos()
	c.toast("Deleted.")
}

// Undo restores the todo waiting in the undo window.
func (c *Controller) Undo() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.todos.Undo() {
		c.syncTodos()
		c.toast("Restored.")
		return
	}
	c.toast("Nothing to undo.")
}

// onTodoCommit runs under c.mu when a delete was sent to the store.
func (c *Controller) onTodoCommit(t models.Todo, err error) {
	c.endSync(err)
	c.syncTodos()
	if err != nil {
		c.toast("Couldn’t delete.")
		c.checkSession(context.Background(), err)
	}
}

func (c *Controller) todoAt(n int) (models.Todo, bool) {
	list := append(c.todos.Active(), c.todos.Completed()...)
	if n < 1 || n > len(list) {
		return models.Todo{}, false
	}
	return list[n-1], true
}

func (c *Controller) syncTodos() {
	c.state.Todos.Active = c.todos.Active()
	c.state.Todos.Completed = c.todos.Completed()
	c.state.Todos.Pending = c.todos.Pending()
}

// ---- quick capture

// OpenQuick opens quick capture on tab, or on the current main tab.
func (c *Controller) OpenQuick(tab Tab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.signedIn() {
		return
	}
	if tab == "" {
		tab = c.state.MainTab
	}
	c.state.Modal = ModalState{Open: true, Tab: tab}
}

func (c *Controller) CloseQuick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Modal.Open = false
	c.state.Modal.Hint = ""
}

// QuickSave saves text as a journal entry through the composer and closes
// the dialog.
func (c *Controller) QuickSave(ctx context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.signedIn() {
		return
	}
	c.state.Modal.Open = true
	c.state.Modal.Tab = TabJournal
	text = strings.TrimSpace(text)
	if text == "" {
		c.state.Modal.Hint = journal.HintNotSaved
		return
	}
	c.composer.Edit(text)
	c.saveJournal(ctx)
	c.state.Modal = ModalState{Tab: TabJournal}
}

// QuickAdd adds a todo through the regular add path and closes the dialog.
func (c *Controller) QuickAdd(ctx context.Context, text, due string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.signedIn() {
		return
	}
	c.addTodo(ctx, text, due)
	c.state.Modal = ModalState{Tab: TabTodo}
}

// ---- misc

// CycleTheme switches to the next theme and remembers it.
func (c *Controller) CycleTheme(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := theme.Next(c.state.Theme)
	if err := c.prefs.SetTheme(ctx, next); err != nil {
		c.logger.Warn(ctx, "save theme", "error", err)
	}
	c.state.Theme = next
	c.toast("Theme.")
}

// Export asks the service for an archive of the user's data.
func (c *Controller) Export(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.signedIn() {
		return
	}
	c.beginSync()
	res, err := c.svc.Export(ctx)
	c.endSync(err)
	if err != nil {
		c.logger.Warn(ctx, "export failed", "error", err)
		c.toast("Export failed.")
		c.checkSession(ctx, err)
		return
	}
	c.state.Export = res
	c.toast("Exported.")
}

func (c *Controller) beginSync() {
	c.state.Sync = SyncSyncing
}

func (c *Controller) endSync(err error) {
	if apperr.Is(err, apperr.Network) {
		c.state.Sync = SyncOffline
		return
	}
	c.state.Sync = SyncSynced
}

// toast shows msg until the toast duration passes or another toast
// replaces it.
func (c *Controller) toast(msg string) {
	c.state.Toast = msg
	c.toastTimer.Schedule(c.opts.ToastDuration, func() { c.state.Toast = "" })
}
