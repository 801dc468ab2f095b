// Package config loads runtime configuration for the fieldsync engine.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the sync service
//	-f string   path to the local SQLite database file
//	-u string   user id the engine syncs for
//	-o string   organization id
//	-t string   bearer token for the sync service
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "database_path": "fieldsync.db",
//	  "user_id": "u1",
//	  "organization_id": "org1",
//	  "token": "...",
//	  "online_check_interval": "3s",
//	  "sync_ttl": "24h",
//	  "retry_ceiling": 5,
//	  "foreground_after": "15m"
//	}
//
// Primary API
//
//   - type Config                     — holds all engine settings
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
