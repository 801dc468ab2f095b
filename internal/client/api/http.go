package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/dkrasnovs/fieldsync/internal/logging"
	"github.com/sethvargo/go-retry"
)

const (
	downloadPath = "/api/v1/sync/download"
	uploadPath   = "/api/v1/sync/upload"
	healthPath   = "/healthz"

	defaultTimeout = 15 * time.Second
)

// HTTPClient implements Client over the JSON sync API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger
	now     func() time.Time
}

// NewHTTPClient builds a client for the service at baseURL (scheme://host).
func NewHTTPClient(baseURL string, tokens TokenSource, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		log:     log,
		now:     time.Now,
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return common.NewNetworkError("ping", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return common.NewNetworkError("ping", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return common.NewNetworkError("ping", fmt.Errorf("unexpected status %s", resp.Status))
	}
	return nil
}

// Download retries transient failures with a short fibonacci backoff; auth
// rejections and payload errors are returned immediately.
func (c *HTTPClient) Download(ctx context.Context, req DownloadRequest) (*DownloadResponse, error) {
	var out DownloadResponse

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.post(ctx, downloadPath, req, &out); err != nil {
			var netErr *common.NetworkError
			if errors.As(err, &netErr) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload is a single attempt: per-item retry accounting belongs to the
// mutation queue, and a repeated offline id is a no-op server-side anyway.
func (c *HTTPClient) Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	var out UploadResponse
	if err := c.post(ctx, uploadPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	if tokenExpired(token, c.now()) {
		return fmt.Errorf("token expired locally: %w", common.ErrAuth)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return common.NewNetworkError(path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return common.NewNetworkError(path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", path, common.ErrAuth)
	case resp.StatusCode >= http.StatusInternalServerError:
		return common.NewNetworkError(path, fmt.Errorf("server error %s", resp.Status))
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: unexpected status %s: %s", path, resp.Status, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return common.NewNetworkError(path, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
