package sync

import (
	"context"

	"github.com/dkrasnovs/fieldsync/internal/client/api"
	"github.com/dkrasnovs/fieldsync/internal/client/queue"
	"github.com/dkrasnovs/fieldsync/internal/client/syncmeta"
	"github.com/dkrasnovs/fieldsync/internal/logging"
)

// Uploader drains the mutation queue against the remote service.
type Uploader struct {
	queue  queue.Queue
	client api.Client
	meta   *syncmeta.Manager
	log    logging.Logger
}

func NewUploader(q queue.Queue, client api.Client, meta *syncmeta.Manager, log logging.Logger) *Uploader {
	return &Uploader{queue: q, client: client, meta: meta, log: log}
}

// Run submits every pending mutation in creation order. Per-item outcomes
// are applied independently: a confirmed item is dequeued, a failed item
// gets its retry count bumped and the rest of the batch continues. A
// whole-call failure (network down, cancellation) leaves the queue exactly
// as it was — cancellation is neither success nor failure.
func (u *Uploader) Run(ctx context.Context) error {
	pending, err := u.queue.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	scope := u.meta.Scope()
	req := api.UploadRequest{
		UserID:         scope.UserID,
		DeviceID:       scope.DeviceID,
		OrganizationID: scope.OrganizationID,
		Items:          make([]api.UploadItem, 0, len(pending)),
	}
	for _, m := range pending {
		req.Items = append(req.Items, api.UploadItem{
			OperationType: m.Operation,
			EntityType:    m.EntityType,
			OfflineID:     m.OfflineID,
			Payload:       m.Payload,
			CreatedAt:     m.ClientCreatedAt,
			RetryCount:    m.RetryCount,
		})
	}

	resp, err := u.client.Upload(ctx, req)
	if err != nil {
		return err
	}

	// results correlate by offline id, not by position
	byID := make(map[string]api.UploadResult, len(resp.Results))
	for _, res := range resp.Results {
		byID[res.OfflineID] = res
	}

	confirmed, failed := 0, 0
	for _, m := range pending {
		res, ok := byID[m.OfflineID]
		switch {
		case ok && res.Success:
			if err := u.queue.DequeueConfirmed(ctx, m.OfflineID); err != nil {
				return err
			}
			confirmed++
		case ok:
			if err := u.queue.IncrementRetry(ctx, m.OfflineID, res.Error); err != nil {
				return err
			}
			u.log.Warn(ctx, "mutation rejected", "offline_id", m.OfflineID, "error", res.Error)
			failed++
		default:
			if err := u.queue.IncrementRetry(ctx, m.OfflineID, "no result returned for item"); err != nil {
				return err
			}
			failed++
		}
	}

	u.log.Info(ctx, "upload sync finished", "confirmed", confirmed, "failed", failed)
	return nil
}
