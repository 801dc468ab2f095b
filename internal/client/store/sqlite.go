package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/dkrasnovs/fieldsync/internal/dbx"
)

// SQLiteStore implements Store over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteStore struct {
	db dbx.DBTX
}

// NewSQLiteStore returns a SQLiteStore bound to the given DBTX. Bind it to a
// transaction from dbx.WithTx to make a group of writes atomic.
func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// storageErr tags err with the failing operation, additionally marking
// quota exhaustion so callers can distinguish it with errors.Is.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "database or disk is full") {
		err = errors.Join(common.ErrQuota, err)
	}
	return common.NewStorageError(op, err)
}

func (s *SQLiteStore) Get(ctx context.Context, entityType models.EntityType, id string) (*models.Record, error) {
	query := `SELECT key, server_id, offline_id, payload, updated_at FROM entities
		WHERE entity_type = ? AND (key = ? OR server_id = ? OR offline_id = ?) LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, string(entityType), id, id, id)

	var rec models.Record
	var key string
	var serverID sql.NullString
	if err := row.Scan(&key, &serverID, &rec.OfflineID, &rec.Payload, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, storageErr("get", err)
	}
	rec.ServerID = serverID.String
	return &rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, entityType models.EntityType, rec models.Record) error {
	// A server-confirmed record supersedes the offline-keyed copy of the
	// same entity: drop the stale row before upserting under the server key.
	if rec.ServerID != "" && rec.OfflineID != "" {
		query := `DELETE FROM entities
			WHERE entity_type = ? AND key = ? AND (server_id IS NULL OR server_id = '')`
		if _, err := s.db.ExecContext(ctx, query, string(entityType), rec.OfflineID); err != nil {
			return storageErr("put rekey", err)
		}
	}

	query := `INSERT INTO entities (entity_type, key, server_id, offline_id, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, key) DO UPDATE SET
			server_id = excluded.server_id,
			offline_id = excluded.offline_id,
			payload = excluded.payload,
			updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		string(entityType), rec.Key(), nullable(rec.ServerID), rec.OfflineID, rec.Payload, rec.UpdatedAt)
	if err != nil {
		return storageErr("put", err)
	}
	return nil
}

func (s *SQLiteStore) BulkPut(ctx context.Context, entityType models.EntityType, recs []models.Record) error {
	for _, rec := range recs {
		if err := s.Put(ctx, entityType, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, entityType models.EntityType, id string) error {
	query := `DELETE FROM entities
		WHERE entity_type = ? AND (key = ? OR server_id = ? OR offline_id = ?)`
	res, err := s.db.ExecContext(ctx, query, string(entityType), id, id, id)
	if err != nil {
		return storageErr("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, entityType models.EntityType) ([]models.Record, error) {
	query := `SELECT server_id, offline_id, payload, updated_at FROM entities
		WHERE entity_type = ? ORDER BY key`
	rows, err := s.db.QueryContext(ctx, query, string(entityType))
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		var rec models.Record
		var serverID sql.NullString
		if err := rows.Scan(&serverID, &rec.OfflineID, &rec.Payload, &rec.UpdatedAt); err != nil {
			return nil, storageErr("list scan", err)
		}
		rec.ServerID = serverID.String
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list rows", err)
	}
	return result, nil
}

func (s *SQLiteStore) Query(ctx context.Context, entityType models.EntityType, pred func(models.Record) bool) ([]models.Record, error) {
	all, err := s.List(ctx, entityType)
	if err != nil {
		return nil, err
	}
	var result []models.Record
	for _, rec := range all {
		if pred(rec) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	// Queued mutations are owned by the mutation queue and survive a clear;
	// the device identity in the metadata table survives too.
	for _, stmt := range []string{`DELETE FROM entities`, `DELETE FROM sync_meta`} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return storageErr("clear all", err)
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
