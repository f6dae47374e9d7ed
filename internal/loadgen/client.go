package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/fundineed/internal/adapters/http/api"
	"github.com/okian/fundineed/internal/auth"
)

// client wraps http.Client with the base URL and an optional bearer token.
type client struct {
	http    *http.Client
	baseURL string
	token   string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends body as JSON (when non-nil) and returns the status code. When
// out is non-nil and the response is 2xx, the body is decoded into it.
func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *client) health(ctx context.Context) error {
	code, err := c.do(ctx, http.MethodGet, "/readyz", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if code != http.StatusOK {
		return fmt.Errorf("service not ready: status %d", code)
	}
	return nil
}

func (c *client) login(ctx context.Context, username, password string) error {
	var tok auth.Token
	code, err := c.do(ctx, http.MethodPost, "/api/admin/login",
		map[string]string{"username": username, "password": password}, &tok)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("login failed: status %d", code)
	}
	c.token = tok.AccessToken
	return nil
}

func (c *client) summary(ctx context.Context) (api.Summary, error) {
	var s api.Summary
	code, err := c.do(ctx, http.MethodGet, "/api/admin/summary", nil, &s)
	if err != nil {
		return s, err
	}
	if code != http.StatusOK {
		return s, fmt.Errorf("summary failed: status %d", code)
	}
	return s, nil
}
