package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/dkrasnovs/fieldsync/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, url, token string) *HTTPClient {
	t.Helper()
	c := NewHTTPClient(url, NewStaticTokenSource(token), logging.NewDefault())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPing_OnlineOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "")
	require.NoError(t, c.Ping(context.Background()))

	srv.Close()
	err := c.Ping(context.Background())
	var netErr *common.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestDownload_AuthRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "tok")
	_, err := c.Download(context.Background(), DownloadRequest{UserID: "u", DeviceID: "d"})
	assert.ErrorIs(t, err, common.ErrAuth)
}

func TestDownload_RetriesTransientServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"syncVersion": 7}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "tok")
	resp, err := c.Download(context.Background(), DownloadRequest{UserID: "u", DeviceID: "d"})
	require.NoError(t, err)
	assert.EqualValues(t, 7, resp.SyncVersion)
	assert.EqualValues(t, 3, calls.Load())
}

func TestUpload_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "tok")
	_, err := c.Upload(context.Background(), UploadRequest{UserID: "u", DeviceID: "d"})
	var netErr *common.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.EqualValues(t, 1, calls.Load(), "upload must not auto-retry at the transport level")
}

func TestPost_LocallyExpiredTokenShortCircuits(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	token, err := expired.SignedString([]byte("test-key"))
	require.NoError(t, err)

	c := newClient(t, srv.URL, token)
	_, err = c.Download(context.Background(), DownloadRequest{UserID: "u", DeviceID: "d"})
	assert.ErrorIs(t, err, common.ErrAuth)
	assert.Zero(t, calls.Load(), "no round trip for a token that is already stale")
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	assert.False(t, tokenExpired("opaque-token", now), "opaque tokens are the remote's problem")

	live := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	s, err := live.SignedString([]byte("k"))
	require.NoError(t, err)
	assert.False(t, tokenExpired(s, now))

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{})
	s, err = noExp.SignedString([]byte("k"))
	require.NoError(t, err)
	assert.False(t, tokenExpired(s, now))
}
