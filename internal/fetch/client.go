// Package fetch talks to the upstream WordPress-family REST APIs. Each
// source either returns a complete record list or a SourceError; partial
// results never leave this package.
package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gtevents/internal/config"
)

type Client struct {
	source   string
	baseURL  string
	username string
	password string
	apiKey   string
	pageSize int
	attempts int
	delay    time.Duration
	http     *http.Client
	logger   *slog.Logger
}

func NewClient(source string, src config.SourceConfig, shared config.SourcesConfig, logger *slog.Logger) *Client {
	return &Client{
		source:   source,
		baseURL:  strings.TrimRight(src.BaseURL, "/"),
		username: src.Username,
		password: src.Password,
		apiKey:   src.APIKey,
		pageSize: src.PageSize,
		attempts: shared.Attempts,
		delay:    shared.RetryDelay,
		http:     &http.Client{Timeout: shared.Timeout},
		logger:   logger,
	}
}

// GetList fetches a JSON array endpoint with a fixed attempt count and
// linear backoff between attempts.
func (c *Client) GetList(ctx context.Context, path string, query url.Values) ([]map[string]any, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		list, err := c.getOnce(ctx, endpoint)
		if err == nil {
			return list, nil
		}
		lastErr = err
		if c.logger != nil {
			c.logger.Warn("source request failed",
				"source", c.source,
				"endpoint", path,
				"attempt", attempt,
				"attempts", c.attempts,
				"err", err,
			)
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < c.attempts {
			if !backoffSleep(ctx, c.delay*time.Duration(attempt)) {
				break
			}
		}
	}
	return nil, &SourceError{Source: c.source, Endpoint: path, Err: lastErr}
}

func (c *Client) getOnce(ctx context.Context, endpoint string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, resp.Status)
	}

	var list []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return list, nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.username != "" && c.password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
		req.Header.Set("Authorization", "Basic "+credentials)
		return
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

func backoffSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
