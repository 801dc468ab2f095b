package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/api"
	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enqueueN(t *testing.T, h *harness, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("off-%d", i+1)
		require.NoError(t, h.queue.Enqueue(context.Background(), models.Mutation{
			OfflineID:       id,
			EntityType:      models.EntityTimeEntry,
			Operation:       models.OpCreate,
			Payload:         json.RawMessage(`{}`),
			ClientCreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
		ids = append(ids, id)
	}
	return ids
}

func TestUploader_DrainsInCreationOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ids := enqueueN(t, h, 3)

	u := NewUploader(h.queue, h.client, h.meta, logging.NewDefault())
	require.NoError(t, u.Run(ctx))

	require.Equal(t, 1, h.client.uploadCalls)
	require.Len(t, h.client.lastUpload.Items, 3)
	for i, item := range h.client.lastUpload.Items {
		assert.Equal(t, ids[i], item.OfflineID, "items replay in creation order")
	}

	n, err := h.queue.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUploader_PartialFailureIsolation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	enqueueN(t, h, 3)

	h.client.uploadFn = func(req api.UploadRequest) (*api.UploadResponse, error) {
		resp := &api.UploadResponse{}
		for _, item := range req.Items {
			res := api.UploadResult{OfflineID: item.OfflineID, Success: true, ServerID: item.OfflineID + "-srv"}
			if item.OfflineID == "off-2" {
				res = api.UploadResult{OfflineID: item.OfflineID, Error: "validation failed"}
			}
			resp.Results = append(resp.Results, res)
		}
		return resp, nil
	}

	u := NewUploader(h.queue, h.client, h.meta, logging.NewDefault())
	require.NoError(t, u.Run(ctx))

	pending, err := h.queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "items 1 and 3 are confirmed, item 2 stays")
	assert.Equal(t, "off-2", pending[0].OfflineID)
	assert.Equal(t, 1, pending[0].RetryCount)
	assert.Equal(t, "validation failed", pending[0].LastError)
}

func TestUploader_RetryCeilingMarksTerminal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	enqueueN(t, h, 1)

	h.client.uploadFn = func(req api.UploadRequest) (*api.UploadResponse, error) {
		resp := &api.UploadResponse{}
		for _, item := range req.Items {
			resp.Results = append(resp.Results, api.UploadResult{OfflineID: item.OfflineID, Error: "rejected"})
		}
		return resp, nil
	}

	u := NewUploader(h.queue, h.client, h.meta, logging.NewDefault())
	for i := 0; i < 5; i++ {
		require.NoError(t, u.Run(ctx))
	}

	pending, err := h.queue.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending, "a terminal mutation leaves the automatic upload set")

	failed, err := h.queue.ListFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1, "but it is never dropped")
	assert.Equal(t, 5, failed[0].RetryCount)

	// further runs have nothing to send
	require.NoError(t, u.Run(ctx))
	assert.Equal(t, 5, h.client.uploadCalls)
}

func TestUploader_WholeCallFailureLeavesQueueUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	enqueueN(t, h, 2)

	h.client.uploadFn = func(req api.UploadRequest) (*api.UploadResponse, error) {
		return nil, errors.New("connection reset")
	}

	u := NewUploader(h.queue, h.client, h.meta, logging.NewDefault())
	require.Error(t, u.Run(ctx))

	pending, err := h.queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, m := range pending {
		assert.Zero(t, m.RetryCount, "an interrupted call is neither success nor failure")
	}
}

func TestUploader_MissingResultCountsAsFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	enqueueN(t, h, 2)

	h.client.uploadFn = func(req api.UploadRequest) (*api.UploadResponse, error) {
		// only the first item gets a result
		return &api.UploadResponse{Results: []api.UploadResult{
			{OfflineID: req.Items[0].OfflineID, Success: true, ServerID: "srv-1"},
		}}, nil
	}

	u := NewUploader(h.queue, h.client, h.meta, logging.NewDefault())
	require.NoError(t, u.Run(ctx))

	pending, err := h.queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "off-2", pending[0].OfflineID)
	assert.Equal(t, "no result returned for item", pending[0].LastError)
}

func TestUploader_EmptyQueueSkipsRemoteCall(t *testing.T) {
	h := newHarness(t)

	u := NewUploader(h.queue, h.client, h.meta, logging.NewDefault())
	require.NoError(t, u.Run(context.Background()))
	assert.Zero(t, h.client.uploadCalls)
}
