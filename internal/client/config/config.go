package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the Afterlog CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - PageSize: rows per page of the recent and history lists.
//   - AutosaveDelay: quiet period after the last edit before a silent save.
//   - UndoWindow: how long a deleted todo can be restored.
//   - ToastDuration: how long a toast stays on screen.
//   - StreakWindowDays / StreakGrace: streak lookback and today policy.
//   - RecentDays: days covered by the recent list, today included.
//   - Timezone: IANA zone that decides what "today" is.
//   - DBPath / LogFile: local sqlite store and rotating log file.
//   - Demo: use the in-memory gateway instead of the server.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	PageSize            int
	AutosaveDelay       time.Duration
	UndoWindow          time.Duration
	ToastDuration       time.Duration
	StreakWindowDays    int
	StreakGrace         bool
	RecentDays          int
	Timezone            string
	DBPath              string
	LogFile             string
	Demo                bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.PageSize = 10
	c.AutosaveDelay = 3 * time.Second
	c.UndoWindow = 5 * time.Second
	c.ToastDuration = 1200 * time.Millisecond
	c.StreakWindowDays = 60
	c.StreakGrace = false
	c.RecentDays = 3
	c.Timezone = "UTC"
	c.DBPath = "afterlog.db"
	c.LogFile = "afterlog.log"
	c.Demo = false
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
