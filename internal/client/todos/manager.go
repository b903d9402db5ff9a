// Package todos keeps the todo list in step with the hosted store. Deletes
// are optimistic: the item disappears at once and the remote delete is
// committed only after an undo window closes.
package todos

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/client/apperr"
	"github.com/dmitrijs2005/afterlog/internal/client/deferred"
	"github.com/dmitrijs2005/afterlog/internal/client/remote"
	"github.com/dmitrijs2005/afterlog/internal/clockx"
	"github.com/dmitrijs2005/afterlog/internal/dates"
	"github.com/dmitrijs2005/afterlog/internal/logging"
	"github.com/dmitrijs2005/afterlog/internal/models"
)

const DefaultUndoWindow = 5 * time.Second

// Options configure a Manager.
type Options struct {
	UndoWindow time.Duration
	// Guard serializes the undo timer with the owner's handlers.
	Guard deferred.Guard
	// OnCommit is told how every committed delete ended, including those
	// run by the timer. A non-nil err means the item was put back.
	OnCommit func(t models.Todo, err error)
	Logger   logging.Logger
}

// Manager owns the local todo list. It is not safe for concurrent use;
// callers serialize through Options.Guard.
type Manager struct {
	gw       remote.Gateway
	undo     *deferred.Timer
	window   time.Duration
	onCommit func(models.Todo, error)
	logger   logging.Logger

	items   []models.Todo
	pending *models.Todo
}

func NewManager(gw remote.Gateway, clock clockx.Clock, opts Options) *Manager {
	if opts.UndoWindow <= 0 {
		opts.UndoWindow = DefaultUndoWindow
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	return &Manager{
		gw:       gw,
		undo:     deferred.New(clock, opts.Guard),
		window:   opts.UndoWindow,
		onCommit: opts.OnCommit,
		logger:   opts.Logger,
	}
}

// Load replaces the list with the store's todos. A todo waiting in the undo
// window stays hidden.
func (m *Manager) Load(ctx context.Context) error {
	q := models.From(models.CollectionTodos).
		Select(models.TodoColumns...).
		OrderBy(models.ColCreatedAt, true)
	rows, err := m.gw.Query(ctx, q)
	if err != nil {
		return err
	}
	items, err := models.Todos(rows)
	if err != nil {
		return apperr.Wrap(apperr.Unknown, err)
	}
	if m.pending != nil {
		items = slices.DeleteFunc(items, func(t models.Todo) bool { return t.ID == m.pending.ID })
	}
	m.items = items
	return nil
}

// Add creates a todo and appends the stored record to the list.
func (m *Manager) Add(ctx context.Context, content string, due *dates.Day) (models.Todo, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Todo{}, apperr.Invalid("Nothing to add.")
	}
	rec := models.Record{
		models.ColContent:   content,
		models.ColCompleted: false,
		models.ColDueDate:   due,
	}
	row, err := m.gw.Insert(ctx, models.CollectionTodos, rec)
	if err != nil {
		return models.Todo{}, err
	}
	t, err := models.TodoFromRecord(row)
	if err != nil {
		return models.Todo{}, apperr.Wrap(apperr.Unknown, err)
	}
	m.items = append(m.items, t)
	m.logger.Debug(ctx, "todo added", "todo_id", t.ID)
	return t, nil
}

// Toggle flips completion with one remote update and replaces the local
// item with what the store returned, so DoneAt is the store's.
func (m *Manager) Toggle(ctx context.Context, id string) (models.Todo, error) {
	i := m.index(id)
	if i < 0 {
		return models.Todo{}, apperr.Invalid("No such task.")
	}
	row, err := m.gw.Update(ctx, models.CollectionTodos, id, models.Record{
		models.ColCompleted: !m.items[i].Completed,
	})
	if err != nil {
		return models.Todo{}, err
	}
	t, err := models.TodoFromRecord(row)
	if err != nil {
		return models.Todo{}, apperr.Wrap(apperr.Unknown, err)
	}
	// The list may have been reloaded while the call was out.
	if i = m.index(id); i >= 0 {
		m.items[i] = t
	}
	return t, nil
}

// Delete hides the todo and arms the undo window. A delete already waiting
// is committed first.
func (m *Manager) Delete(ctx context.Context, id string) error {
	i := m.index(id)
	if i < 0 {
		return apperr.Invalid("No such task.")
	}
	if m.pending != nil {
		_ = m.commit(ctx)
		// The commit may have put an item back and shifted indexes.
		if i = m.index(id); i < 0 {
			return apperr.Invalid("No such task.")
		}
	}

	t := m.items[i]
	m.items = slices.Delete(m.items, i, i+1)
	m.pending = &t
	m.undo.Schedule(m.window, func() { _ = m.commit(context.Background()) })
	return nil
}

// Undo cancels the waiting delete without a remote call and puts the item
// back. It reports whether there was anything to undo.
func (m *Manager) Undo() bool {
	if m.pending == nil {
		return false
	}
	m.undo.Cancel()
	m.items = append(m.items, *m.pending)
	m.pending = nil
	return true
}

// Flush commits the waiting delete now.
func (m *Manager) Flush(ctx context.Context) error {
	if m.pending == nil {
		return nil
	}
	return m.commit(ctx)
}

// Reset drops the list and any waiting delete without committing it.
func (m *Manager) Reset() {
	m.undo.Cancel()
	m.items = nil
	m.pending = nil
}

func (m *Manager) commit(ctx context.Context) error {
	t := *m.pending
	m.pending = nil
	m.undo.Cancel()

	err := m.gw.Delete(ctx, models.CollectionTodos, t.ID)
	if err != nil {
		m.items = append(m.items, t)
		m.logger.Warn(ctx, "todo delete rolled back", "todo_id", t.ID, "error", err)
	}
	if m.onCommit != nil {
		m.onCommit(t, err)
	}
	return err
}

// Pending returns the todo waiting in the undo window, or nil.
func (m *Manager) Pending() *models.Todo {
	if m.pending == nil {
		return nil
	}
	t := *m.pending
	return &t
}

// Active returns open todos by due date, undated last, newest first on ties.
func (m *Manager) Active() []models.Todo {
	out := m.filter(false)
	slices.SortStableFunc(out, func(a, b models.Todo) int {
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return 1
		case a.DueDate != nil && b.DueDate == nil:
			return -1
		case a.DueDate != nil && b.DueDate != nil:
			if c := a.DueDate.Compare(*b.DueDate); c != 0 {
				return c
			}
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Completed returns done todos, most recently finished first.
func (m *Manager) Completed() []models.Todo {
	out := m.filter(true)
	slices.SortStableFunc(out, func(a, b models.Todo) int {
		return cmp.Or(
			compareDone(b.DoneAt, a.DoneAt),
			b.CreatedAt.Compare(a.CreatedAt),
		)
	})
	return out
}

// Len counts visible todos.
func (m *Manager) Len() int { return len(m.items) }

func compareDone(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func (m *Manager) filter(completed bool) []models.Todo {
	out := make([]models.Todo, 0, len(m.items))
	for _, t := range m.items {
		if t.Completed == completed {
			out = append(out, t)
		}
	}
	return out
}

func (m *Manager) index(id string) int {
	return slices.IndexFunc(m.items, func(t models.Todo) bool { return t.ID == id })
}
