package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/flagx"
	"github.com/dkrasnovs/fieldsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	DatabasePath        string         `json:"database_path"`
	UserID              string         `json:"user_id"`
	OrganizationID      string         `json:"organization_id"`
	Token               string         `json:"token"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	SyncTTL             timex.Duration `json:"sync_ttl"`
	RetryCeiling        int            `json:"retry_ceiling"`
	ForegroundAfter     timex.Duration `json:"foreground_after"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only fields actually present in the JSON override the current values, so a
// partial file keeps the defaults for everything it omits. Panics on read or
// unmarshal errors (caller should recover if desired).
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
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.UserID != "" {
		cfg.UserID = jc.UserID
	}
	if jc.OrganizationID != "" {
		cfg.OrganizationID = jc.OrganizationID
	}
	if jc.Token != "" {
		cfg.Token = jc.Token
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.SyncTTL.Duration != 0 {
		cfg.SyncTTL = time.Duration(jc.SyncTTL.Duration)
	}
	if jc.RetryCeiling != 0 {
		cfg.RetryCeiling = jc.RetryCeiling
	}
	if jc.ForegroundAfter.Duration != 0 {
		cfg.ForegroundAfter = time.Duration(jc.ForegroundAfter.Duration)
	}
}
