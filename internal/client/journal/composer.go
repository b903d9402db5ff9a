// Package journal implements the entry composer: a draft with mood, tags
// and date, saved explicitly or by an autosave debounce.
//
// A draft session starts with the first save of a fresh draft. Later
// autosaves of the same session update that entry instead of inserting
// another. An explicit save closes the session and clears the draft.
package journal

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/afterlog/internal/client/apperr"
	"github.com/dmitrijs2005/afterlog/internal/client/deferred"
	"github.com/dmitrijs2005/afterlog/internal/client/remote"
	"github.com/dmitrijs2005/afterlog/internal/clockx"
	"github.com/dmitrijs2005/afterlog/internal/dates"
	"github.com/dmitrijs2005/afterlog/internal/logging"
	"github.com/dmitrijs2005/afterlog/internal/models"
)

const (
	MaxContentRunes      = 160
	DefaultAutosaveDelay = 3 * time.Second
)

// Moods offered by the composer, in display order.
var Moods = []string{"calm", "good", "tired", "stressed", "low"}

const (
	HintBlank    = "Nothing written today. That’s okay."
	HintToday    = "Today."
	HintSaved    = "Saved."
	HintFailed   = "Save failed."
	HintTooLong  = "Keep it to 160 characters."
	HintBadMood  = "Unknown mood."
	HintNotSaved = "Nothing to save."
)

type Options struct {
	AutosaveDelay time.Duration
	Location      *time.Location
	// Guard serializes the autosave timer with the owner's handlers.
	Guard deferred.Guard
	// OnSaved runs after every successful save, explicit or silent, so the
	// owner can refresh the lists that show entries.
	OnSaved func(ctx context.Context, e models.JournalEntry, silent bool)
	// OnAutosaveError reports a failed silent save.
	OnAutosaveError func(err error)
	Logger          logging.Logger
}

// Composer is not safe for concurrent use; callers serialize through
// Options.Guard.
type Composer struct {
	gw     remote.Gateway
	clock  clockx.Clock
	loc    *time.Location
	timer  *deferred.Timer
	delay  time.Duration
	logger logging.Logger

	onSaved         func(context.Context, models.JournalEntry, bool)
	onAutosaveError func(error)

	draft   string
	mood    string
	tagsRaw string
	date    dates.Day
	hint    string

	entryID   string
	lastSaved string
}

func NewComposer(gw remote.Gateway, clock clockx.Clock, opts Options) *Composer {
	if opts.AutosaveDelay <= 0 {
		opts.AutosaveDelay = DefaultAutosaveDelay
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	return &Composer{
		gw:              gw,
		clock:           clock,
		loc:             opts.Location,
		timer:           deferred.New(clock, opts.Guard),
		delay:           opts.AutosaveDelay,
		logger:          opts.Logger,
		onSaved:         opts.OnSaved,
		onAutosaveError: opts.OnAutosaveError,
	}
}

// Edit replaces the draft text and restarts the autosave debounce.
func (c *Composer) Edit(text string) {
	c.draft = text
	c.timer.Schedule(c.delay, c.autosave)
}

// Append adds a keystroke batch to the draft, separated by a space.
func (c *Composer) Append(text string) {
	if c.draft != "" && text != "" && !strings.HasSuffix(c.draft, " ") && !strings.HasPrefix(text, " ") {
		text = " " + text
	}
	c.Edit(c.draft + text)
}

func (c *Composer) autosave() {
	if strings.TrimSpace(c.draft) == "" || c.draft == c.lastSaved {
		return
	}
	if _, err := c.Save(context.Background(), true); err != nil {
		c.logger.Warn(context.Background(), "autosave failed", "error", err)
		if c.onAutosaveError != nil {
			c.onAutosaveError(err)
		}
	}
}

// Save stores the draft. Blank and over-long drafts are rejected without a
// remote call. A failed save keeps the draft.
func (c *Composer) Save(ctx context.Context, silent bool) (models.JournalEntry, error) {
	c.timer.Cancel()

	text := c.draft
	if strings.TrimSpace(text) == "" {
		c.hint = HintBlank
		return models.JournalEntry{}, apperr.Invalid(HintBlank)
	}
	if utf8.RuneCountInString(text) > MaxContentRunes {
		c.hint = HintTooLong
		return models.JournalEntry{}, apperr.Invalid(HintTooLong)
	}

	day := c.Date()
	rec := models.Record{
		models.ColEntryDate: day,
		models.ColContent:   text,
		models.ColMood:      models.NullableString(c.mood),
		models.ColTags:      c.Tags(),
	}

	var (
		row models.Record
		err error
	)
	if c.entryID == "" {
		row, err = c.gw.Insert(ctx, models.CollectionJournal, rec)
	} else {
		row, err = c.gw.Update(ctx, models.CollectionJournal, c.entryID, rec)
	}
	if err != nil {
		c.hint = apperr.MessageOr(err, HintFailed)
		return models.JournalEntry{}, err
	}
	e, err := models.JournalEntryFromRecord(row)
	if err != nil {
		c.hint = HintFailed
		return models.JournalEntry{}, apperr.Wrap(apperr.Unknown, fmt.Errorf("decode saved entry: %w", err))
	}

	c.logger.Debug(ctx, "journal entry saved", "entry_id", e.ID, "silent", silent)

	if silent {
		c.entryID = e.ID
		c.lastSaved = text
	} else {
		c.clearDraft()
	}
	c.hint = HintSaved
	if day == c.Today() {
		c.hint = HintToday
	}

	if c.onSaved != nil {
		c.onSaved(ctx, e, silent)
	}
	return e, nil
}

// ToggleMood selects mood, or clears it if it is already selected. It
// returns the mood now in effect.
func (c *Composer) ToggleMood(mood string) (string, error) {
	mood = strings.ToLower(strings.TrimSpace(mood))
	if !slices.Contains(Moods, mood) {
		return c.mood, apperr.Invalid(HintBadMood)
	}
	if c.mood == mood {
		c.mood = ""
	} else {
		c.mood = mood
	}
	return c.mood, nil
}

// SetTags stores the raw comma-separated tag list.
func (c *Composer) SetTags(raw string) { c.tagsRaw = raw }

// Tags parses the tag list: trimmed, non-empty, at most models.MaxTags.
func (c *Composer) Tags() []string {
	tags := []string{}
	for _, t := range strings.Split(c.tagsRaw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > models.MaxTags {
		tags = tags[:models.MaxTags]
	}
	return tags
}

// SetDate sets the entry date. The zero Day means today.
func (c *Composer) SetDate(d dates.Day) { c.date = d }

// Date returns the entry date the next save will use.
func (c *Composer) Date() dates.Day {
	if c.date.IsZero() {
		return c.Today()
	}
	return c.date
}

func (c *Composer) Today() dates.Day {
	return dates.Today(c.clock.Now(), c.loc)
}

func (c *Composer) Draft() string   { return c.draft }
func (c *Composer) Mood() string    { return c.mood }
func (c *Composer) TagsRaw() string { return c.tagsRaw }
func (c *Composer) Hint() string    { return c.hint }

// Count renders the length counter, e.g. "12 / 160".
func (c *Composer) Count() string {
	return fmt.Sprintf("%d / %d", utf8.RuneCountInString(c.draft), MaxContentRunes)
}

// AutosavePending reports whether the debounce is armed.
func (c *Composer) AutosavePending() bool { return c.timer.Pending() }

// SessionEntryID is the entry the open draft session is bound to, or "".
func (c *Composer) SessionEntryID() string { return c.entryID }

// Reset discards the draft and everything around it.
func (c *Composer) Reset() {
	c.timer.Cancel()
	c.clearDraft()
	c.hint = ""
}

func (c *Composer) clearDraft() {
	c.draft = ""
	c.mood = ""
	c.tagsRaw = ""
	c.date = dates.Day{}
	c.entryID = ""
	c.lastSaved = ""
}
