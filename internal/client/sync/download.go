// Package sync implements the download and upload reconcilers and the
// orchestration that keeps exactly one reconciliation run active at a time.
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/api"
	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/client/queue"
	"github.com/dkrasnovs/fieldsync/internal/client/store"
	"github.com/dkrasnovs/fieldsync/internal/client/syncmeta"
	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/dkrasnovs/fieldsync/internal/dbx"
	"github.com/dkrasnovs/fieldsync/internal/logging"
)

// Downloader pulls authoritative state from the remote service using the
// scope's version cursor and merges it into the local store.
type Downloader struct {
	db     *sql.DB
	client api.Client
	meta   *syncmeta.Manager
	log    logging.Logger
	now    func() time.Time
}

func NewDownloader(db *sql.DB, client api.Client, meta *syncmeta.Manager, log logging.Logger) *Downloader {
	return &Downloader{db: db, client: client, meta: meta, log: log, now: time.Now}
}

// Run performs one download sync. The merge of every entity type is applied
// in a single transaction (all-or-nothing per call), and the sync cursor
// advances only after the merge committed. On any error the cursor is left
// untouched, so the same changes are simply pulled again next time.
func (d *Downloader) Run(ctx context.Context) error {
	version, err := d.meta.LastVersion(ctx)
	if err != nil {
		return fmt.Errorf("read sync cursor: %w", err)
	}

	scope := d.meta.Scope()
	resp, err := d.client.Download(ctx, api.DownloadRequest{
		UserID:          scope.UserID,
		DeviceID:        scope.DeviceID,
		LastSyncVersion: version,
	})
	if err != nil {
		return err
	}

	applied := 0
	err = dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := store.NewSQLiteStore(tx)
		pending, err := pendingOfflineIDs(ctx, tx)
		if err != nil {
			return err
		}

		byType := resp.ByType()
		for _, entityType := range models.EntityTypes {
			recs := byType[entityType]
			if len(recs) == 0 {
				continue
			}
			merge := make([]models.Record, 0, len(recs))
			for _, rec := range recs {
				if shadowedByPending(ctx, st, entityType, rec, pending) {
					continue
				}
				merge = append(merge, rec)
			}
			if err := st.BulkPut(ctx, entityType, merge); err != nil {
				return err
			}
			applied += len(merge)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := d.meta.Update(ctx, d.now().UTC(), resp.SyncVersion); err != nil {
		return err
	}

	d.log.Info(ctx, "download sync applied", "version", resp.SyncVersion, "records", applied)
	return nil
}

// pendingOfflineIDs collects the offline ids of every queued mutation,
// terminal ones included: a failed-terminal edit still represents local
// intent the server must not clobber.
func pendingOfflineIDs(ctx context.Context, tx dbx.DBTX) (map[string]struct{}, error) {
	q := queue.NewSQLiteQueue(tx, 0)
	ids := make(map[string]struct{})
	for _, list := range []func(context.Context) ([]models.Mutation, error){q.ListPending, q.ListFailed} {
		ms, err := list(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range ms {
			ids[m.OfflineID] = struct{}{}
		}
	}
	return ids, nil
}

// shadowedByPending reports whether an incoming server record must be
// skipped because the matching local entity exists only as a pending
// mutation with no confirmed server id yet. Once the entity has a server id
// the server copy wins (last write by server-accepted order) and any queued
// update will re-assert the local edit on the next upload.
func shadowedByPending(ctx context.Context, st store.Store, entityType models.EntityType, rec models.Record, pending map[string]struct{}) bool {
	if rec.OfflineID == "" {
		return false
	}
	if _, ok := pending[rec.OfflineID]; !ok {
		return false
	}
	local, err := st.Get(ctx, entityType, rec.OfflineID)
	if errors.Is(err, common.ErrNotFound) {
		return false
	}
	if err != nil {
		// unreadable local state: do not let the server copy overwrite it
		return true
	}
	return local.ServerID == ""
}
