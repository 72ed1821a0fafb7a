package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sperrystudios/screenrecorder/internal/httpServer"
	"github.com/sperrystudios/screenrecorder/internal/library"
)

// Client talks to the HTTP API of a running screenrecorder.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Status(ctx context.Context) (httpServer.StatusResponse, error) {
	var out httpServer.StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &out)
	return out, err
}

func (c *Client) Toggle(ctx context.Context) (httpServer.StatusResponse, error) {
	var out httpServer.StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/toggle", nil, &out)
	return out, err
}

func (c *Client) SetOptions(ctx context.Context, req httpServer.OptionsRequest) (httpServer.OptionsResponse, error) {
	var out httpServer.OptionsResponse
	err := c.do(ctx, http.MethodPut, "/api/options", req, &out)
	return out, err
}

func (c *Client) Recordings(ctx context.Context) ([]library.Recording, error) {
	var out []library.Recording
	err := c.do(ctx, http.MethodGet, "/api/recordings", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("screenrecorder not reachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
