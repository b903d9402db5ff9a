package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/afterlog/internal/flagx"
	"github.com/dmitrijs2005/afterlog/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. Pointer fields tell an
// explicit false or zero apart from a missing key.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	PageSize            int            `json:"page_size"`
	AutosaveDelay       timex.Duration `json:"autosave_delay"`
	UndoWindow          timex.Duration `json:"undo_window"`
	ToastDuration       timex.Duration `json:"toast_duration"`
	StreakWindowDays    int            `json:"streak_window_days"`
	StreakGrace         *bool          `json:"streak_grace"`
	RecentDays          int            `json:"recent_days"`
	Timezone            string         `json:"timezone"`
	DBPath              string         `json:"db_path"`
	LogFile             string         `json:"log_file"`
	Demo                *bool          `json:"demo"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Keys missing from the file keep their current values.
// Panics on read or unmarshal errors.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.PageSize > 0 {
		cfg.PageSize = jc.PageSize
	}
	if jc.AutosaveDelay.Duration > 0 {
		cfg.AutosaveDelay = jc.AutosaveDelay.Duration
	}
	if jc.UndoWindow.Duration > 0 {
		cfg.UndoWindow = jc.UndoWindow.Duration
	}
	if jc.ToastDuration.Duration > 0 {
		cfg.ToastDuration = jc.ToastDuration.Duration
	}
	if jc.StreakWindowDays > 0 {
		cfg.StreakWindowDays = jc.StreakWindowDays
	}
	if jc.StreakGrace != nil {
		cfg.StreakGrace = *jc.StreakGrace
	}
	if jc.RecentDays > 0 {
		cfg.RecentDays = jc.RecentDays
	}
	if jc.Timezone != "" {
		cfg.Timezone = jc.Timezone
	}
	if jc.DBPath != "" {
		cfg.DBPath = jc.DBPath
	}
	if jc.LogFile != "" {
		cfg.LogFile = jc.LogFile
	}
	if jc.Demo != nil {
		cfg.Demo = *jc.Demo
	}
}
