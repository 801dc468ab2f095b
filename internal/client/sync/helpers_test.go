package sync

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dkrasnovs/fieldsync/internal/client/api"
	"github.com/dkrasnovs/fieldsync/internal/client/queue"
	"github.com/dkrasnovs/fieldsync/internal/client/store"
	"github.com/dkrasnovs/fieldsync/internal/client/syncmeta"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakeClient scripts the remote side of a reconciliation.
type fakeClient struct {
	pingErr error

	downloadResp  *api.DownloadResponse
	downloadErr   error
	downloadCalls int
	downloadHook  func() // runs on entry, before the response is returned

	uploadFn    func(api.UploadRequest) (*api.UploadResponse, error)
	uploadCalls int
	lastUpload  api.UploadRequest
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) Download(ctx context.Context, req api.DownloadRequest) (*api.DownloadResponse, error) {
	f.downloadCalls++
	if f.downloadHook != nil {
		f.downloadHook()
	}
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	if f.downloadResp != nil {
		return f.downloadResp, nil
	}
	return &api.DownloadResponse{}, nil
}

func (f *fakeClient) Upload(ctx context.Context, req api.UploadRequest) (*api.UploadResponse, error) {
	f.uploadCalls++
	f.lastUpload = req
	if f.uploadFn != nil {
		return f.uploadFn(req)
	}
	// confirm everything
	resp := &api.UploadResponse{}
	for i, item := range req.Items {
		resp.Results = append(resp.Results, api.UploadResult{
			OfflineID: item.OfflineID,
			Success:   true,
			ServerID:  req.Items[i].OfflineID + "-srv",
		})
	}
	return resp, nil
}

func (f *fakeClient) Close() error { return nil }

type harness struct {
	db     *sql.DB
	store  *store.SQLiteStore
	queue  *queue.SQLiteQueue
	meta   *syncmeta.Manager
	client *fakeClient
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	meta, err := syncmeta.NewManager(ctx, syncmeta.NewSQLiteRepository(db), "u1", "org1", 0)
	require.NoError(t, err)

	return &harness{
		db:     db,
		store:  store.NewSQLiteStore(db),
		queue:  queue.NewSQLiteQueue(db, 0),
		meta:   meta,
		client: &fakeClient{},
	}
}
