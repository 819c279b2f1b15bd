// Package opensearch adapts the OpenSearch client to the engine boundary.
package opensearch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	opensearch "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

// Config for the OpenSearch client.
type Config struct {
	Addresses    []string
	APIKey       string
	APIKeyHeader string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Client wraps *opensearchapi.Client.
type Client struct {
	api *opensearchapi.Client
	// keyHeader is set globally on the transport when an API key is configured.
	keyHeader string
}

// New creates a client. Retries are disabled: every call is attempted once.
func New(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("opensearch address is required")
	}
	osCfg := opensearch.Config{
		Addresses:    cfg.Addresses,
		DisableRetry: true,
		Transport:    cfg.Transport,
	}
	var keyHeader string
	if cfg.APIKey != "" && cfg.APIKeyHeader != "" {
		keyHeader = cfg.APIKeyHeader
		osCfg.Header = http.Header{cfg.APIKeyHeader: []string{cfg.APIKey}}
	}
	api, err := opensearchapi.NewClient(opensearchapi.Config{Client: osCfg})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}
	return &Client{api: api, keyHeader: keyHeader}, nil
}

// Perform sends a raw request through the client transport.
func (c *Client) Perform(req *http.Request) (*http.Response, error) {
	// The transport appends global headers, so a caller copy would duplicate the key.
	if c.keyHeader != "" {
		req.Header.Del(c.keyHeader)
	}
	return c.api.Client.Perform(req) //nolint:wrapcheck // relayed verbatim
}

// Ping checks the cluster health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.Cluster.Health(ctx, &opensearchapi.ClusterHealthReq{}); err != nil {
		return fmt.Errorf("opensearch health: %w", err)
	}
	return nil
}

// IndexExists reports whether index exists.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	status, _, err := c.raw(ctx, http.MethodHead, "/"+index, nil)
	if err != nil {
		return false, fmt.Errorf("index exists: %w", err)
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("index exists: HTTP %d", status)
	}
}

// CreateIndex creates index with the given settings/mappings body.
// An index that already exists is not an error.
func (c *Client) CreateIndex(ctx context.Context, index string, body []byte) error {
	status, msg, err := c.raw(ctx, http.MethodPut, "/"+index, body)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if status < 300 || strings.Contains(string(msg), "resource_already_exists_exception") {
		return nil
	}
	return fmt.Errorf("create index: HTTP %d: %s", status, strings.TrimSpace(string(msg)))
}

func (c *Client) raw(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, path, r)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.Perform(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, data, nil
}
