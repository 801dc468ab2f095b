package sync

import (
	"context"
	"errors"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/metrics"
	"github.com/dkrasnovs/fieldsync/internal/client/queue"
	"github.com/dkrasnovs/fieldsync/internal/client/syncmeta"
	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/dkrasnovs/fieldsync/internal/logging"
	"golang.org/x/sync/singleflight"
)

// DefaultForegroundAfter is how long the app may sit backgrounded before a
// foreground transition triggers a fresh sync.
const DefaultForegroundAfter = 15 * time.Minute

// Syncer runs a full reconciliation: download first (authoritative state
// in), then upload (local changes out). Concurrent trigger sources — manual
// action, connectivity watcher, foreground timer — collapse into a single
// active run via singleflight; the guard is released on every exit path.
type Syncer struct {
	downloader *Downloader
	uploader   *Uploader
	queue      queue.Queue
	meta       *syncmeta.Manager
	log        logging.Logger

	foregroundAfter time.Duration
	group           singleflight.Group
	now             func() time.Time
	onSuccess       func()
}

func NewSyncer(d *Downloader, u *Uploader, q queue.Queue, meta *syncmeta.Manager, log logging.Logger) *Syncer {
	return &Syncer{
		downloader:      d,
		uploader:        u,
		queue:           q,
		meta:            meta,
		log:             log,
		foregroundAfter: DefaultForegroundAfter,
		now:             time.Now,
	}
}

// OnSuccess registers fn to run after every successful reconciliation,
// whichever trigger started it. The safety resolver hooks its verdict-cache
// purge here: fresh server state may change any memoized answer.
func (s *Syncer) OnSuccess(fn func()) {
	s.onSuccess = fn
}

// Sync performs one reconciliation run. Callers arriving while a run is in
// flight share its outcome instead of starting another.
func (s *Syncer) Sync(ctx context.Context) error {
	_, err, shared := s.group.Do("sync", func() (any, error) {
		start := s.now()
		err := s.run(ctx)

		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		} else if s.onSuccess != nil {
			s.onSuccess()
		}
		metrics.ObserveSync(result, s.now().Sub(start))
		s.publishQueueDepth(ctx)
		return nil, err
	})
	if shared {
		s.log.Debug(ctx, "sync trigger coalesced into running reconciliation")
	}
	return err
}

func (s *Syncer) run(ctx context.Context) error {
	if err := s.downloader.Run(ctx); err != nil {
		if errors.Is(err, common.ErrAuth) {
			s.log.Error(ctx, "sync suspended, re-authentication required", "error", err)
			return err
		}
		s.log.Warn(ctx, "download sync failed", "error", err)
		return err
	}
	if err := s.uploader.Run(ctx); err != nil {
		s.log.Warn(ctx, "upload sync failed", "error", err)
		return err
	}
	return nil
}

// OnForeground is the app-visibility trigger: it syncs only when the last
// successful sync is older than the configured threshold.
func (s *Syncer) OnForeground(ctx context.Context) error {
	meta, err := s.meta.Get(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return s.Sync(ctx)
	}
	if err != nil {
		return err
	}
	if s.now().Sub(meta.LastSyncAt) < s.foregroundAfter {
		return nil
	}
	return s.Sync(ctx)
}

// PendingCount reports how many mutations await upload.
func (s *Syncer) PendingCount(ctx context.Context) (int, error) {
	return s.queue.PendingCount(ctx)
}

func (s *Syncer) publishQueueDepth(ctx context.Context) {
	pending, err := s.queue.PendingCount(ctx)
	if err != nil {
		return
	}
	failed, err := s.queue.FailedCount(ctx)
	if err != nil {
		return
	}
	metrics.SetQueueDepth(pending, failed)
}
