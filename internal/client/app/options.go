package app

import (
	"time"

	"github.com/dmitrijs2005/afterlog/internal/client/config"
	"github.com/dmitrijs2005/afterlog/internal/client/journal"
	"github.com/dmitrijs2005/afterlog/internal/client/streak"
	"github.com/dmitrijs2005/afterlog/internal/client/todos"
	"github.com/dmitrijs2005/afterlog/internal/logging"
)

const DefaultToastDuration = 1200 * time.Millisecond

// Options tune the controller. Zero values take the defaults.
type Options struct {
	PageSize         int
	RecentDays       int
	StreakWindowDays int
	StreakPolicy     streak.Policy
	AutosaveDelay    time.Duration
	UndoWindow       time.Duration
	ToastDuration    time.Duration
	Location         *time.Location
	Logger           logging.Logger
}

// OptionsFromConfig maps the CLI configuration onto controller options.
func OptionsFromConfig(cfg *config.Config, logger logging.Logger) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, err
	}
	policy := streak.StrictToday
	if cfg.StreakGrace {
		policy = streak.GraceToday
	}
	return Options{
		PageSize:         cfg.PageSize,
		RecentDays:       cfg.RecentDays,
		StreakWindowDays: cfg.StreakWindowDays,
		StreakPolicy:     policy,
		AutosaveDelay:    cfg.AutosaveDelay,
		UndoWindow:       cfg.UndoWindow,
		ToastDuration:    cfg.ToastDuration,
		Location:         loc,
		Logger:           logger,
	}, nil
}

func (o Options) withDefaults() Options {
	if o.PageSize < 1 {
		o.PageSize = 10
	}
	if o.RecentDays < 1 {
		o.RecentDays = 3
	}
	if o.StreakWindowDays < 1 {
		o.StreakWindowDays = 60
	}
	if o.AutosaveDelay <= 0 {
		o.AutosaveDelay = journal.DefaultAutosaveDelay
	}
	if o.UndoWindow <= 0 {
		o.UndoWindow = todos.DefaultUndoWindow
	}
	if o.ToastDuration <= 0 {
		o.ToastDuration = DefaultToastDuration
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Logger == nil {
		o.Logger = logging.Nop{}
	}
	return o
}
