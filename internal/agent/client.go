package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/framelight/framelight/internal/domain/settings"
	syncapi "github.com/framelight/framelight/internal/domain/sync"
)

// Client talks the sync protocol to the catalog server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// FetchConfig retrieves the display settings.
func (c *Client) FetchConfig(ctx context.Context) (*settings.Settings, error) {
	var cfg settings.Settings
	if err := c.getJSON(ctx, "/api/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sync posts the local inventory and returns the server's plan.
func (c *Client) Sync(ctx context.Context, req *syncapi.SyncRequest) (*syncapi.SyncResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode sync request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/sync", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sync: server returned %d", resp.StatusCode)
	}

	var plan syncapi.SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, fmt.Errorf("decode sync response: %w", err)
	}
	return &plan, nil
}

// FetchPhoto streams one photo's bytes. The caller closes the reader.
func (c *Client) FetchPhoto(ctx context.Context, id int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/photos/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch photo %d: %w", id, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch photo %d: server returned %d", id, resp.StatusCode)
	}
	return resp.Body, nil
}

// FetchVersions retrieves the published release manifest.
func (c *Client) FetchVersions(ctx context.Context) (map[string]string, error) {
	manifest := map[string]string{}
	if err := c.getJSON(ctx, "/api/client/version", &manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FetchArtifact streams a release archive. The caller closes the reader.
func (c *Client) FetchArtifact(ctx context.Context, component string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/client/code/"+component, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact %s: %w", component, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch artifact %s: server returned %d", component, resp.StatusCode)
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: server returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
