package sync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/api"
	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_MergesAndAdvancesCursor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.client.downloadResp = &api.DownloadResponse{
		SyncVersion: 7,
		Tickets: []models.Record{
			{ServerID: "t-1", OfflineID: "off-t-1", Payload: json.RawMessage(`{"serverId":"t-1"}`), UpdatedAt: time.Now()},
		},
		Projects: []models.Record{
			{ServerID: "p-1", OfflineID: "off-p-1", Payload: json.RawMessage(`{"name":"Main St"}`), UpdatedAt: time.Now()},
		},
	}

	d := NewDownloader(h.db, h.client, h.meta, logging.NewDefault())
	require.NoError(t, d.Run(ctx))

	version, err := h.meta.LastVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), version)

	_, err = h.store.Get(ctx, models.EntityTicket, "t-1")
	assert.NoError(t, err)
	_, err = h.store.Get(ctx, models.EntityProject, "p-1")
	assert.NoError(t, err)

	// the cursor is sent on the next pull
	require.NoError(t, d.Run(ctx))
}

func TestDownloader_ErrorLeavesCursorUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.client.downloadErr = errors.New("boom")

	d := NewDownloader(h.db, h.client, h.meta, logging.NewDefault())
	require.Error(t, d.Run(ctx))

	version, err := h.meta.LastVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, version, "a failed pull must not advance the cursor")
}

func TestDownloader_PendingMutationShadowsServerCopy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// an offline-created entity with a queued mutation and no server id yet
	local := models.Record{OfflineID: "off-1", Payload: json.RawMessage(`{"hours":6}`), UpdatedAt: time.Now()}
	require.NoError(t, h.store.Put(ctx, models.EntityTimeEntry, local))
	require.NoError(t, h.queue.Enqueue(ctx, models.Mutation{
		OfflineID:       "off-1",
		EntityType:      models.EntityTimeEntry,
		Operation:       models.OpCreate,
		Payload:         local.Payload,
		ClientCreatedAt: time.Now(),
	}))

	h.client.downloadResp = &api.DownloadResponse{
		SyncVersion: 3,
		TimeEntries: []models.Record{
			{ServerID: "srv-1", OfflineID: "off-1", Payload: json.RawMessage(`{"hours":8}`), UpdatedAt: time.Now()},
		},
	}

	d := NewDownloader(h.db, h.client, h.meta, logging.NewDefault())
	require.NoError(t, d.Run(ctx))

	got, err := h.store.Get(ctx, models.EntityTimeEntry, "off-1")
	require.NoError(t, err)
	assert.Empty(t, got.ServerID, "the unconfirmed local copy survives the pull")
	assert.JSONEq(t, `{"hours":6}`, string(got.Payload))

	// once the mutation is confirmed the server copy wins on the next pull
	require.NoError(t, h.queue.DequeueConfirmed(ctx, "off-1"))
	require.NoError(t, d.Run(ctx))

	got, err = h.store.Get(ctx, models.EntityTimeEntry, "off-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", got.ServerID)
	assert.JSONEq(t, `{"hours":8}`, string(got.Payload))
}

func TestDownloader_TerminalMutationStillShadows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	local := models.Record{OfflineID: "off-1", Payload: json.RawMessage(`{"v":"local"}`), UpdatedAt: time.Now()}
	require.NoError(t, h.store.Put(ctx, models.EntityDailyReport, local))
	require.NoError(t, h.queue.Enqueue(ctx, models.Mutation{
		OfflineID:       "off-1",
		EntityType:      models.EntityDailyReport,
		Operation:       models.OpCreate,
		Payload:         local.Payload,
		ClientCreatedAt: time.Now(),
	}))
	for i := 0; i < 5; i++ {
		require.NoError(t, h.queue.IncrementRetry(ctx, "off-1", "rejected"))
	}
	failed, err := h.queue.ListFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1, "precondition: the mutation is failed-terminal")

	h.client.downloadResp = &api.DownloadResponse{
		SyncVersion:  1,
		DailyReports: []models.Record{{ServerID: "srv-1", OfflineID: "off-1", Payload: json.RawMessage(`{"v":"server"}`), UpdatedAt: time.Now()}},
	}

	d := NewDownloader(h.db, h.client, h.meta, logging.NewDefault())
	require.NoError(t, d.Run(ctx))

	got, err := h.store.Get(ctx, models.EntityDailyReport, "off-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"local"}`, string(got.Payload), "terminal local intent is never clobbered")
}
