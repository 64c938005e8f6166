// Package client talks to a running innerself API server.
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
	"strings"
	"time"

	"github.com/papercomputeco/innerself/api"
	"github.com/papercomputeco/innerself/pkg/config"
	"github.com/papercomputeco/innerself/pkg/eventstream"
	"github.com/papercomputeco/innerself/pkg/innerself"
	"github.com/papercomputeco/innerself/pkg/mind"
	"github.com/papercomputeco/innerself/pkg/sse"
)

// ErrNotFound is returned when the server has no brain for a character.
var ErrNotFound = errors.New("brain not found")

const defaultTimeout = 10 * time.Second

// Client is an HTTP client for the innerself API.
type Client struct {
	target string
	http   *http.Client
}

// New creates a client for the API at target. A nil httpClient uses a
// client with a 10 second timeout.
func New(target string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API target URL: %q", target)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{target: strings.TrimRight(target, "/"), http: httpClient}, nil
}

// TargetFromListen turns a server listen address such as ":8082" into a
// local base URL.
func TargetFromListen(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "http://localhost" + listen
	}
	if strings.Contains(listen, "://") {
		return listen
	}
	return "http://" + listen
}

// Target returns the API base URL.
func (c *Client) Target() string {
	return c.target
}

// FromConfig creates a client for target, or for the server configured in
// config.toml when target is empty.
func FromConfig(configDir, target string) (*Client, error) {
	if target == "" {
		cfger, err := config.NewConfiger(configDir)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg, err := cfger.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		target = TargetFromListen(cfg.API.Listen)
	}
	return New(target, nil)
}

// Brains lists summaries of every tracked character.
func (c *Client) Brains(ctx context.Context) (*api.BrainsResponse, error) {
	var out api.BrainsResponse
	if err := c.do(ctx, http.MethodGet, "/brains", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Brain fetches the full record for name.
func (c *Client) Brain(ctx context.Context, name string) (*mind.Record, error) {
	var out mind.Record
	if err := c.do(ctx, http.MethodGet, "/brains/"+url.PathEscape(name), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBrain removes the record for name.
func (c *Client) DeleteBrain(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/brains/"+url.PathEscape(name), nil, http.StatusNoContent, nil)
}

// Context returns the rendered prompt context for name. Unknown characters
// yield an empty string.
func (c *Client) Context(ctx context.Context, name string) (string, error) {
	var out api.ContextResponse
	if err := c.do(ctx, http.MethodGet, "/context/"+url.PathEscape(name), nil, http.StatusOK, &out); err != nil {
		return "", err
	}
	return out.Context, nil
}

// Snapshot asks the server to persist every mind immediately.
func (c *Client) Snapshot(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/snapshot", nil, http.StatusNoContent, nil)
}

// SendEvent posts a chat event and returns how the engine handled it.
func (c *Client) SendEvent(ctx context.Context, ev innerself.Event) (*innerself.Result, error) {
	var out innerself.Result
	if err := c.do(ctx, http.MethodPost, "/events", ev, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Watch follows the server's live event stream, calling fn for each mind
// event. A non-empty character limits the stream to that character. Watch
// returns nil when ctx is done or the server ends the stream, and returns
// the first error from fn.
func (c *Client) Watch(ctx context.Context, character string, fn func(*eventstream.Event) error) error {
	u := c.target + "/stream"
	if character != "" {
		u += "?character=" + url.QueryEscape(character)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any request timeout.
	streamClient := *c.http
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to connect to innerself API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.New("event stream is not enabled on this server")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream request failed (HTTP %d)", resp.StatusCode)
	}

	r := sse.NewReader(resp.Body)
	for {
		msg, err := r.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}
		if msg == nil {
			return nil
		}

		var ev eventstream.Event
		if err := json.Unmarshal([]byte(msg.Data), &ev); err != nil {
			return fmt.Errorf("failed to parse stream event: %w", err)
		}
		if err := fn(&ev); err != nil {
			return err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to innerself API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != want {
		var apiErr api.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
