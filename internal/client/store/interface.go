// Package store implements the device-local entity store: one logical
// collection per entity type, addressable by a stable string key, backed by
// SQLite. Every other engine component reads and writes through it.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
)

// Store describes the local entity collections.
//
// All operations return the committed result; a batch of related writes is
// made atomic by running it inside WithTx on the owning DB. Persistence
// failures surface as *common.StorageError and are never swallowed.
type Store interface {
	// Get returns the record stored under id, which may be either a server
	// id or an offline id. common.ErrNotFound when absent.
	Get(ctx context.Context, entityType models.EntityType, id string) (*models.Record, error)

	// Put upserts one record, keyed by server id when present, else offline
	// id. A later write always overwrites an earlier one for the same key.
	Put(ctx context.Context, entityType models.EntityType, rec models.Record) error

	// BulkPut upserts a batch of records of one entity type.
	BulkPut(ctx context.Context, entityType models.EntityType, recs []models.Record) error

	// Delete removes the record stored under id.
	Delete(ctx context.Context, entityType models.EntityType, id string) error

	// List returns every record of the given type.
	List(ctx context.Context, entityType models.EntityType) ([]models.Record, error)

	// Query returns the records of the given type matching pred.
	Query(ctx context.Context, entityType models.EntityType, pred func(models.Record) bool) ([]models.Record, error)

	// ClearAll wipes every entity collection and the sync metadata. It is
	// destructive and only ever invoked by an explicit user action.
	ClearAll(ctx context.Context) error
}

// NewRecord marshals v into a storage envelope.
func NewRecord(serverID, offlineID string, v any) (models.Record, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return models.Record{}, fmt.Errorf("encode record payload: %w", err)
	}
	return models.Record{
		ServerID:  serverID,
		OfflineID: offlineID,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals a record payload into T.
func Decode[T any](rec models.Record) (*T, error) {
	var v T
	if err := json.Unmarshal(rec.Payload, &v); err != nil {
		return nil, fmt.Errorf("decode record payload %s: %w", rec.Key(), err)
	}
	return &v, nil
}
