package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgnsrekt/share_explorer/internal/types"
)

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 512

// Client talks to the share-token analytics API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for baseURL. A zero timeout leaves the
// http.Client without a deadline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTP lets callers supply their own transport.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// ListDatasets returns the datasets a share token can query.
func (c *Client) ListDatasets(ctx context.Context, token string) ([]types.Dataset, error) {
	var out []types.Dataset
	path := "/share/" + url.PathEscape(token) + "/datasets"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.Dataset{}
	}
	return out, nil
}

// GetFields returns the dimension and measure names of one dataset.
func (c *Client) GetFields(ctx context.Context, token, datasetID string) (types.FieldCatalog, error) {
	var out types.FieldCatalog
	path := "/share/" + url.PathEscape(token) + "/dataset/" + url.PathEscape(datasetID) + "/fields"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return types.FieldCatalog{}, err
	}
	if out.Dimensions == nil {
		out.Dimensions = []string{}
	}
	if out.Measures == nil {
		out.Measures = []string{}
	}
	return out, nil
}

// Query runs an aggregation and returns its rows.
func (c *Client) Query(ctx context.Context, token string, req types.QueryRequest) (types.QueryResponse, error) {
	var out types.QueryResponse
	path := "/share/" + url.PathEscape(token) + "/query"
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return types.QueryResponse{}, err
	}
	if out.Rows == nil {
		out.Rows = []types.Row{}
	}
	return out, nil
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (types.HealthStatus, error) {
	var out types.HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return types.HealthStatus{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return types.NewError(types.CodeValidation, "encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return types.NewError(types.CodeBackendUnavailable, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Share tokens never reach logs or error text.
	shown := redactToken(path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return types.NewError(types.CodeBackendUnavailable, fmt.Sprintf("%s %s", method, shown), redactURLError(err, c.baseURL+path, c.baseURL+shown))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	slog.Debug("backend request",
		"method", method,
		"path", shown,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_, _ = io.Copy(io.Discard, resp.Body)
		return types.NewError(types.CodeBackendStatus,
			fmt.Sprintf("%s %s: status=%d", method, shown, resp.StatusCode),
			errors.New(strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewError(types.CodeBackendDecode, fmt.Sprintf("%s %s: decode response", method, shown), err)
	}
	return nil
}

// redactToken masks the token segment of a /share/{token}/... path.
func redactToken(path string) string {
	const prefix = "/share/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := path[len(prefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return prefix + "***" + rest[i:]
	}
	return prefix + "***"
}

// redactURLError rewrites the URL inside a transport error.
func redactURLError(err error, full, shown string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: shown, Err: ue.Err}
	}
	return errors.New(strings.ReplaceAll(err.Error(), full, shown))
}
