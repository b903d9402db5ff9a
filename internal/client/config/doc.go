// Package config loads runtime configuration for the Afterlog CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "page_size": 10,
//	  "autosave_delay": "3s",
//	  "undo_window": "5s",
//	  "streak_window_days": 60,
//	  "streak_grace": false,
//	  "timezone": "Europe/Riga",
//	  "db_path": "afterlog.db"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
