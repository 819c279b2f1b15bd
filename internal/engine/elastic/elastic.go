// Package elastic adapts the Elasticsearch client to the engine boundary.
package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Config for the Elasticsearch client.
type Config struct {
	Addresses    []string
	APIKey       string
	APIKeyHeader string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Client wraps *elasticsearch.Client.
type Client struct {
	es *elasticsearch.Client
	// keyHeader is set globally on the transport when an API key is configured.
	keyHeader string
}

// New creates a client. Retries are disabled: every call is attempted once.
func New(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch address is required")
	}
	esCfg := elasticsearch.Config{
		Addresses:    cfg.Addresses,
		DisableRetry: true,
		Transport:    cfg.Transport,
	}
	var keyHeader string
	if cfg.APIKey != "" && cfg.APIKeyHeader != "" {
		keyHeader = cfg.APIKeyHeader
		esCfg.Header = http.Header{cfg.APIKeyHeader: []string{cfg.APIKey}}
	}
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: es, keyHeader: keyHeader}, nil
}

// Perform sends a raw request through the transport, without the product check,
// so gateways in front of the cluster are relayed untouched.
func (c *Client) Perform(req *http.Request) (*http.Response, error) {
	// The transport appends global headers, so a caller copy would duplicate the key.
	if c.keyHeader != "" {
		req.Header.Del(c.keyHeader)
	}
	return c.es.Transport.Perform(req) //nolint:wrapcheck // relayed verbatim
}

// Ping checks the cluster via the info endpoint.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return nil
}

// IndexExists reports whether index exists.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, c.es)
	if err != nil {
		return false, fmt.Errorf("indices exists: %w", err)
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("indices exists: %s", res.Status())
	}
}

// CreateIndex creates index with the given settings/mappings body.
// An index that already exists is not an error.
func (c *Client) CreateIndex(ctx context.Context, index string, body []byte) error {
	res, err := esapi.IndicesCreateRequest{Index: index, Body: bytes.NewReader(body)}.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("indices create: %w", err)
	}
	defer res.Body.Close()
	if !res.IsError() {
		return nil
	}
	msg, _ := io.ReadAll(res.Body)
	if strings.Contains(string(msg), "resource_already_exists_exception") {
		return nil
	}
	return fmt.Errorf("indices create: %s: %s", res.Status(), strings.TrimSpace(string(msg)))
}
