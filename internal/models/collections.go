package models

// Collections owned by the hosted store.
const (
	CollectionJournal = "journal_entries"
	CollectionTodos   = "todos"
)

// Column names. Both collections share id, owner_id, content and created_at.
const (
	ColID        = "id"
	ColOwnerID   = "owner_id"
	ColContent   = "content"
	ColCreatedAt = "created_at"

	ColEntryDate = "entry_date"
	ColMood      = "mood"
	ColTags      = "tags"

	ColDueDate   = "due_date"
	ColCompleted = "completed"
	ColDoneAt    = "done_at"
)

// JournalColumns is the projection used by journal lists.
var JournalColumns = []string{ColID, ColEntryDate, ColContent, ColMood, ColTags, ColCreatedAt}

// TodoColumns is the projection used by the todo list.
var TodoColumns = []string{ColID, ColContent, ColDueDate, ColCompleted, ColDoneAt, ColCreatedAt}
