package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          address and port of the backend server
//	-i int             online check interval in seconds
//	-n int             page size of the journal lists
//	-autosave duration quiet period before an autosave (e.g. "3s")
//	-undo duration     undo window of a deleted todo
//	-toast duration    toast lifetime
//	-streak-window int streak lookback in days
//	-streak-grace      keep the streak alive until today is over
//	-recent int        days shown in the recent list
//	-tz string         IANA timezone for day keys
//	-db string         local sqlite file
//	-log string        log file
//	-demo              run against an in-memory store
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-i", "-n", "-autosave", "-undo", "-toast", "-streak-window",
		"-streak-grace", "-recent", "-tz", "-db", "-log", "-demo",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.IntVar(&cfg.PageSize, "n", cfg.PageSize, "page size of the journal lists")
	fs.DurationVar(&cfg.AutosaveDelay, "autosave", cfg.AutosaveDelay, "autosave delay")
	fs.DurationVar(&cfg.UndoWindow, "undo", cfg.UndoWindow, "undo window for deleted todos")
	fs.DurationVar(&cfg.ToastDuration, "toast", cfg.ToastDuration, "toast lifetime")
	fs.IntVar(&cfg.StreakWindowDays, "streak-window", cfg.StreakWindowDays, "streak lookback (days)")
	fs.BoolVar(&cfg.StreakGrace, "streak-grace", cfg.StreakGrace, "count the streak up to yesterday while today is empty")
	fs.IntVar(&cfg.RecentDays, "recent", cfg.RecentDays, "days shown in the recent list")
	fs.StringVar(&cfg.Timezone, "tz", cfg.Timezone, "timezone used for day keys")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "local database file")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file")
	fs.BoolVar(&cfg.Demo, "demo", cfg.Demo, "use an in-memory store")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
