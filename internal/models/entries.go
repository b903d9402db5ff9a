package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/dates"
)

// MaxTags bounds the tag list of a journal entry.
const MaxTags = 12

// JournalEntry is one dated note. ID and CreatedAt are assigned by the store.
type JournalEntry struct {
	ID        string
	OwnerID   string
	EntryDate dates.Day
	Content   string
	Mood      string
	Tags      []string
	CreatedAt time.Time
}

// Todo is a task. DoneAt is maintained by the store from Completed.
type Todo struct {
	ID        string
	OwnerID   string
	Content   string
	DueDate   *dates.Day
	Completed bool
	DoneAt    *time.Time
	CreatedAt time.Time
}

// JournalEntryFromRecord decodes a journal_entries row. Missing columns
// keep their zero values.
func JournalEntryFromRecord(r Record) (JournalEntry, error) {
	day, err := r.Day(ColEntryDate)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("journal entry %s: %w", r.String(ColID), err)
	}
	created, err := r.Time(ColCreatedAt)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("journal entry %s: %w", r.String(ColID), err)
	}
	tags := r.Strings(ColTags)
	if tags == nil {
		tags = []string{}
	}
	return JournalEntry{
		ID:        r.String(ColID),
		OwnerID:   r.String(ColOwnerID),
		EntryDate: day,
		Content:   r.String(ColContent),
		Mood:      r.String(ColMood),
		Tags:      tags,
		CreatedAt: created,
	}, nil
}

// TodoFromRecord decodes a todos row.
func TodoFromRecord(r Record) (Todo, error) {
	t := Todo{
		ID:        r.String(ColID),
		OwnerID:   r.String(ColOwnerID),
		Content:   r.String(ColContent),
		Completed: r.Bool(ColCompleted),
	}
	due, err := r.Day(ColDueDate)
	if err != nil {
		return Todo{}, fmt.Errorf("todo %s: %w", t.ID, err)
	}
	if !due.IsZero() {
		t.DueDate = &due
	}
	done, err := r.Time(ColDoneAt)
	if err != nil {
		return Todo{}, fmt.Errorf("todo %s: %w", t.ID, err)
	}
	if !done.IsZero() {
		t.DoneAt = &done
	}
	if t.CreatedAt, err = r.Time(ColCreatedAt); err != nil {
		return Todo{}, fmt.Errorf("todo %s: %w", t.ID, err)
	}
	return t, nil
}

// JournalEntries decodes a page of rows, stopping at the first bad one.
func JournalEntries(rows []Record) ([]JournalEntry, error) {
	out := make([]JournalEntry, 0, len(rows))
	for _, r := range rows {
		e, err := JournalEntryFromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func Todos(rows []Record) ([]Todo, error) {
	out := make([]Todo, 0, len(rows))
	for _, r := range rows {
		t, err := TodoFromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// NullableString maps "" to a JSON null.
func NullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
