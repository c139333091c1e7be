package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codrutul/roster/internal/domain/model"
)

// Client wraps http.Client with JSON helpers for the roster API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client for the service at base.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, client: &http.Client{Timeout: timeout}}
}

// Healthy checks that /healthz answers 200.
func (c *Client) Healthy(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check answered %d", resp.StatusCode)
	}
	return nil
}

// List fetches the roster.
func (c *Client) List(ctx context.Context) ([]model.Character, error) {
	var out []model.Character
	return out, c.call(ctx, http.MethodGet, "/api/characters", nil, http.StatusOK, &out)
}

// Stats fetches the class summaries.
func (c *Client) Stats(ctx context.Context) ([]model.ClassSummary, error) {
	var out []model.ClassSummary
	return out, c.call(ctx, http.MethodGet, "/api/stats", nil, http.StatusOK, &out)
}

// Create posts one character.
func (c *Client) Create(ctx context.Context, in model.CharacterInput) (model.Character, error) {
	var out model.Character
	return out, c.call(ctx, http.MethodPost, "/api/characters", in, http.StatusCreated, &out)
}

// Delete removes one character.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/characters/"+id, nil, http.StatusNoContent, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body any, want int, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
