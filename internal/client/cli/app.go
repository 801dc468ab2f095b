package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"

	"github.com/dkrasnovs/fieldsync/internal/client/api"
	"github.com/dkrasnovs/fieldsync/internal/client/config"
	"github.com/dkrasnovs/fieldsync/internal/client/entities"
	"github.com/dkrasnovs/fieldsync/internal/client/location"
	"github.com/dkrasnovs/fieldsync/internal/client/queue"
	"github.com/dkrasnovs/fieldsync/internal/client/safety"
	"github.com/dkrasnovs/fieldsync/internal/client/store"
	"github.com/dkrasnovs/fieldsync/internal/client/sync"
	"github.com/dkrasnovs/fieldsync/internal/client/syncmeta"
	"github.com/dkrasnovs/fieldsync/internal/logging"

	_ "modernc.org/sqlite"
)

// App owns the engine components behind the REPL.
type App struct {
	config   *config.Config
	db       *sql.DB
	store    *store.SQLiteStore
	queue    *queue.SQLiteQueue
	meta     *syncmeta.Manager
	client   api.Client
	entities *entities.Service
	syncer   *sync.Syncer
	watcher  *sync.ConnectivityWatcher
	resolver *safety.Resolver
	log      logging.Logger
	reader   *bufio.Reader

	// device position source; set by the "setloc" command until a platform
	// provider is plugged in
	loc location.Provider
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	log := logging.NewDefault()

	db, err := store.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	meta, err := syncmeta.NewManager(ctx, syncmeta.NewSQLiteRepository(db), c.UserID, c.OrganizationID, c.SyncTTL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	st := store.NewSQLiteStore(db)
	q := queue.NewSQLiteQueue(db, c.RetryCeiling)
	client := api.NewHTTPClient(c.ServerEndpointAddr, api.NewStaticTokenSource(c.Token), log)

	syncer := sync.NewSyncer(
		sync.NewDownloader(db, client, meta, log),
		sync.NewUploader(q, client, meta, log),
		q, meta, log,
	)

	resolver := safety.NewResolver(st, meta, log)
	syncer.OnSuccess(resolver.InvalidateCache)

	return &App{
		config:   c,
		db:       db,
		store:    st,
		queue:    q,
		meta:     meta,
		client:   client,
		entities: entities.NewService(db, c.RetryCeiling, log),
		syncer:   syncer,
		watcher:  sync.NewConnectivityWatcher(client, syncer, c.OnlineCheckInterval, log),
		resolver: resolver,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the connectivity watcher and the REPL, blocking until exit.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	go a.watcher.Run(ctx)
	a.Root(ctx)
}

func (a *App) close() {
	_ = a.client.Close()
	_ = a.db.Close()
}
