package syncmeta

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/google/uuid"
)

// DefaultTTL is how long cached safety-relevant data is trusted without a
// fresh sync.
const DefaultTTL = 24 * time.Hour

// Manager owns the SyncMeta for one (user, device, organization) scope.
// Only the download reconciler advances it.
type Manager struct {
	repo     Repository
	userID   string
	orgID    string
	deviceID string
	ttl      time.Duration
	now      func() time.Time
}

// NewManager builds the manager for userID/orgID, generating and persisting
// the device identity on first run so every subsequent sync call carries a
// stable device id.
func NewManager(ctx context.Context, repo Repository, userID, orgID string, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	deviceID, err := loadOrCreateDeviceID(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("bootstrap device id: %w", err)
	}

	return &Manager{
		repo:     repo,
		userID:   userID,
		orgID:    orgID,
		deviceID: deviceID,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

func loadOrCreateDeviceID(ctx context.Context, repo Repository) (string, error) {
	value, err := repo.GetValue(ctx, common.DeviceIDKey)
	if err != nil {
		return "", err
	}
	if len(value) > 0 {
		return string(value), nil
	}

	id := uuid.NewString()
	if err := repo.SetValue(ctx, common.DeviceIDKey, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

// DeviceID returns the persisted device identity.
func (m *Manager) DeviceID() string { return m.deviceID }

// Scope returns the scope this manager serves.
func (m *Manager) Scope() models.SyncScope {
	return models.SyncScope{UserID: m.userID, DeviceID: m.deviceID, OrganizationID: m.orgID}
}

// TTL returns the configured trust window.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Get returns the current SyncMeta, or common.ErrNotFound before the first
// successful sync.
func (m *Manager) Get(ctx context.Context) (*models.SyncMeta, error) {
	return m.repo.Get(ctx, m.Scope())
}

// LastVersion returns the sync cursor, 0 when the scope has never synced.
func (m *Manager) LastVersion(ctx context.Context) (int64, error) {
	meta, err := m.Get(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return meta.LastSyncVersion, nil
}

// Update atomically replaces the scope's SyncMeta after a successful
// download.
func (m *Manager) Update(ctx context.Context, lastSyncAt time.Time, version int64) error {
	return m.repo.Replace(ctx, models.SyncMeta{
		Scope:           m.Scope(),
		LastSyncAt:      lastSyncAt,
		LastSyncVersion: version,
	})
}

// IsExpired reports whether cached data is past its trust window. A scope
// that has never synced is treated as expired.
func (m *Manager) IsExpired(ctx context.Context) (bool, error) {
	meta, err := m.Get(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return meta.Expired(m.now(), m.ttl), nil
}
