package models

import "time"

// SyncScope identifies whose cached state a SyncMeta row describes. There is
// exactly one active SyncMeta per scope at a time.
type SyncScope struct {
	UserID         string
	DeviceID       string
	OrganizationID string
}

// Key renders the scope as the stable storage key.
func (s SyncScope) Key() string {
	return s.UserID + "|" + s.DeviceID + "|" + s.OrganizationID
}

// SyncMeta records the last successful download sync for a scope.
type SyncMeta struct {
	Scope SyncScope

	LastSyncAt time.Time

	// LastSyncVersion is the monotonically increasing cursor handed out by
	// the remote service; 0 means "never synced, full pull".
	LastSyncVersion int64
}

// ExpiresAt is a pure function of LastSyncAt and the configured TTL; it is
// derived on read and never stored independently.
func (m *SyncMeta) ExpiresAt(ttl time.Duration) time.Time {
	return m.LastSyncAt.Add(ttl)
}

// Expired reports whether cached data is past its trust window at now.
func (m *SyncMeta) Expired(now time.Time, ttl time.Duration) bool {
	return now.After(m.ExpiresAt(ttl))
}
