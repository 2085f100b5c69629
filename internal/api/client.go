// Package api is the HTTP client for the hosted task service.
//
// The cache core only needs the delta-sync endpoint; the handful of
// mutation calls here exist for commands that push a write and then
// mirror it into the cache.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jfeld/taskdeck/internal/cache/delta"
	"github.com/jfeld/taskdeck/internal/model"
)

// FullResync is the cursor sentinel requesting a complete snapshot.
const FullResync = "*"

// Client talks to the task service REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for baseURL authenticating with token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests and
// by callers with their own timeout policy.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// SyncResponse is the delta-sync payload: a new cursor plus, per
// resource kind, a flat array of loosely-typed rows mixing upserts and
// deletion markers.
type SyncResponse struct {
	SyncToken string                 `json:"sync_token"`
	FullSync  bool                   `json:"full_sync"`
	Resources map[string][]delta.Row `json:"resources"`
	Error     string                 `json:"error,omitempty"`
}

type syncRequest struct {
	SyncToken     string   `json:"sync_token"`
	ResourceTypes []string `json:"resource_types"`
}

// Sync fetches the changes since cursor for the given kinds. Pass
// FullResync (or "") as the cursor to request a complete snapshot.
// A non-2xx status or an embedded error field is a hard failure.
func (c *Client) Sync(ctx context.Context, cursor string, kinds []model.Kind) (*SyncResponse, error) {
	if cursor == "" {
		cursor = FullResync
	}
	req := syncRequest{
		SyncToken:     cursor,
		ResourceTypes: model.KindNames(kinds),
	}

	var resp SyncResponse
	if err := c.post(ctx, "/sync", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("sync rejected by server: %s", resp.Error)
	}
	if resp.SyncToken == "" {
		return nil, fmt.Errorf("sync response missing sync_token")
	}
	return &resp, nil
}

// AddTaskRequest carries the fields for a task create.
type AddTaskRequest struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// AddTask creates a task remotely and returns the created wire row, so
// the caller can mirror it into the cache without waiting for a resync.
func (c *Client) AddTask(ctx context.Context, req AddTaskRequest) (delta.Row, error) {
	var row delta.Row
	if err := c.post(ctx, "/tasks", req, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// ListTasks fetches the active tasks directly from the remote. Used as
// the fallback read path when no cache is available.
func (c *Client) ListTasks(ctx context.Context) ([]delta.Row, error) {
	var rows []delta.Row
	if err := c.get(ctx, "/tasks", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Me returns the current user's wire row, used to resolve "me" in
// assignment filters.
func (c *Client) Me(ctx context.Context) (delta.Row, error) {
	var row delta.Row
	if err := c.get(ctx, "/user", &row); err != nil {
		return nil, err
	}
	return row, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
