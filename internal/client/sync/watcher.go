package sync

import (
	"context"
	"sync"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/api"
	"github.com/dkrasnovs/fieldsync/internal/client/metrics"
	"github.com/dkrasnovs/fieldsync/internal/logging"
)

const pingTimeout = 3 * time.Second

// ConnectivityWatcher observes reachability of the remote service and fires
// a reconciliation on every offline-to-online transition. It stands in for
// the platform's connectivity events so the engine never depends on a
// specific delivery mechanism.
type ConnectivityWatcher struct {
	client   api.Client
	syncer   *Syncer
	interval time.Duration
	log      logging.Logger

	mu     sync.Mutex
	online bool
}

func NewConnectivityWatcher(client api.Client, syncer *Syncer, interval time.Duration, log logging.Logger) *ConnectivityWatcher {
	return &ConnectivityWatcher{client: client, syncer: syncer, interval: interval, log: log}
}

// Online reports the last observed connectivity state.
func (w *ConnectivityWatcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// Run probes the service on a ticker until ctx is cancelled.
func (w *ConnectivityWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.probe(ctx)
	for {
		select {
		case <-ticker.C:
			w.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *ConnectivityWatcher) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := w.client.Ping(pingCtx)
	cancel()

	up := err == nil
	w.mu.Lock()
	wasOnline := w.online
	w.online = up
	w.mu.Unlock()

	metrics.SetOnline(up)

	switch {
	case up && !wasOnline:
		w.log.Info(ctx, "connectivity restored, reconciling")
		if err := w.syncer.Sync(ctx); err != nil {
			w.log.Warn(ctx, "reconciliation after reconnect failed", "error", err)
		}
	case !up && wasOnline:
		w.log.Info(ctx, "connectivity lost, operating offline")
	}
}
