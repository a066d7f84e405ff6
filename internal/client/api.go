// Package client is the Go client for the sync protocol: an HTTP API
// client, a pending-operation queue with debounced batching, a
// websocket connector with reconnect backoff, and a reconciliation
// poller that catches up when realtime delivery is unavailable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/katachi/katachi/internal/domain"
	batch "github.com/katachi/katachi/internal/sync"
)

// ErrUnauthenticated reports a request rejected with 401. The queue
// treats it as "stop syncing until a new token arrives", not a retry.
var ErrUnauthenticated = errors.New("client: unauthenticated")

// API is the server surface the client needs. *HTTPClient satisfies it.
type API interface {
	SyncBatch(ctx context.Context, ops []batch.Operation) (*batch.Result, error)
	ListBoards(ctx context.Context) ([]*domain.Board, error)
}

// HTTPClient talks to the sync server over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetAuthToken installs the bearer token used on subsequent requests.
func (c *HTTPClient) SetAuthToken(token string) {
	c.token = token
}

// Authenticated reports whether a token has been installed.
func (c *HTTPClient) Authenticated() bool {
	return c.token != ""
}

type syncRequest struct {
	Operations []batch.Operation `json:"operations"`
}

// SyncBatch submits one batch of operations and returns the per-op
// outcome. A non-nil error means the batch as a whole did not reach the
// server and should be retried in full.
func (c *HTTPClient) SyncBatch(ctx context.Context, ops []batch.Operation) (*batch.Result, error) {
	var res batch.Result
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/boards/sync", syncRequest{Operations: ops}, &res); err != nil {
		return nil, fmt.Errorf("client.SyncBatch: %w", err)
	}
	return &res, nil
}

// ListBoards fetches every board the user can see, with full contents.
func (c *HTTPClient) ListBoards(ctx context.Context) ([]*domain.Board, error) {
	var boards []*domain.Board
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/boards", nil, &boards); err != nil {
		return nil, fmt.Errorf("client.ListBoards: %w", err)
	}
	return boards, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("join url: %w", err)
	}

	var body io.Reader
	if in != nil {
		raw, marshalErr := json.Marshal(in)
		if marshalErr != nil {
			return fmt.Errorf("encode request: %w", marshalErr)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
