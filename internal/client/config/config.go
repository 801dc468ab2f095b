package config

import (
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/queue"
	"github.com/dkrasnovs/fieldsync/internal/client/sync"
	"github.com/dkrasnovs/fieldsync/internal/client/syncmeta"
)

// Config holds runtime settings for the fieldsync engine.
//
// Fields:
//   - ServerEndpointAddr: base URL of the sync service.
//   - DatabasePath: location of the local SQLite file.
//   - UserID, OrganizationID: the scope the engine syncs for.
//   - Token: bearer token presented to the sync service.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - SyncTTL: how long cached data is trusted without a fresh sync.
//   - RetryCeiling: failed upload attempts before a mutation goes terminal.
//   - ForegroundAfter: background gap that triggers a sync on foreground.
//
// Units: intervals are time.Duration (e.g., 3*time.Second).
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	UserID              string
	OrganizationID      string
	Token               string
	OnlineCheckInterval time.Duration
	SyncTTL             time.Duration
	RetryCeiling        int
	ForegroundAfter     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "fieldsync.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncTTL = syncmeta.DefaultTTL
	c.RetryCeiling = queue.DefaultRetryCeiling
	c.ForegroundAfter = sync.DefaultForegroundAfter
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
