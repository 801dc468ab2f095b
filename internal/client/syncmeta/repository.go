// Package syncmeta tracks, per (user, device, organization) scope, the last
// successful sync version and timestamp, plus the persisted device identity.
package syncmeta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/dkrasnovs/fieldsync/internal/dbx"
)

// Repository persists SyncMeta rows and small metadata key/value pairs
// (the generated device id lives there).
type Repository interface {
	// Get returns the SyncMeta for scope, or common.ErrNotFound.
	Get(ctx context.Context, scope models.SyncScope) (*models.SyncMeta, error)

	// Replace atomically swaps in meta as the single active row for its
	// scope.
	Replace(ctx context.Context, meta models.SyncMeta) error

	// GetValue reads a metadata value; nil when absent.
	GetValue(ctx context.Context, key string) ([]byte, error)

	// SetValue writes a metadata value.
	SetValue(ctx context.Context, key string, value []byte) error
}

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, scope models.SyncScope) (*models.SyncMeta, error) {
	query := `SELECT user_id, device_id, organization_id, last_sync_at, last_sync_version
		FROM sync_meta WHERE scope = ?`
	row := r.db.QueryRowContext(ctx, query, scope.Key())

	var meta models.SyncMeta
	err := row.Scan(&meta.Scope.UserID, &meta.Scope.DeviceID, &meta.Scope.OrganizationID,
		&meta.LastSyncAt, &meta.LastSyncVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.NewStorageError("get sync meta", err)
	}
	return &meta, nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, meta models.SyncMeta) error {
	query := `INSERT INTO sync_meta (scope, user_id, device_id, organization_id, last_sync_at, last_sync_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			last_sync_version = excluded.last_sync_version`
	_, err := r.db.ExecContext(ctx, query,
		meta.Scope.Key(), meta.Scope.UserID, meta.Scope.DeviceID, meta.Scope.OrganizationID,
		meta.LastSyncAt, meta.LastSyncVersion)
	if err != nil {
		return common.NewStorageError("replace sync meta", err)
	}
	return nil
}

func (r *SQLiteRepository) GetValue(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewStorageError(fmt.Sprintf("get metadata[%s]", key), err)
	}
	return value, nil
}

func (r *SQLiteRepository) SetValue(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return common.NewStorageError(fmt.Sprintf("set metadata[%s]", key), err)
	}
	return nil
}
