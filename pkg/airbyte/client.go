// Package airbyte is a thin client for the Airbyte Cloud REST API (v1),
// covering the operations a provisioning run needs: source and destination
// creation and validation, schema discovery, and connection management.
//
// Every call is bounded by the HTTP client's request timeout and is made
// exactly once; there are no retries. Failures collapse into the structured
// error taxonomy from pkg/errors: transport and non-2xx responses are
// ErrorTypeAPI, undecodable bodies are ErrorTypeDecode.
package airbyte

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/skylift/pkg/clients"
	"github.com/ajitpratap0/skylift/pkg/errors"
)

// ClientConfig configures the API client.
type ClientConfig struct {
	// BaseURL of the API, e.g. "https://api.airbyte.com/v1"
	BaseURL string
	// APIToken sent as a bearer token with every request
	APIToken string
	// WorkspaceID owning all created resources
	WorkspaceID string
	// HTTP overrides transport settings; nil selects defaults
	HTTP *clients.HTTPConfig
}

// Client talks to the Airbyte API. It is stateless and safe for reuse
// across calls within a run.
type Client struct {
	baseURL     string
	token       string
	workspaceID string
	http        *clients.HTTPClient
	logger      *zap.Logger
}

// NewClient creates an API client from the given configuration.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	httpCfg := cfg.HTTP
	if httpCfg == nil {
		httpCfg = clients.DefaultHTTPConfig()
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.APIToken,
		workspaceID: cfg.WorkspaceID,
		http:        clients.NewHTTPClient(httpCfg, logger),
		logger:      logger.With(zap.String("component", "airbyte_client")),
	}
}

// Close releases the underlying HTTP transport.
func (c *Client) Close() error {
	return c.http.Close()
}

// CreateSource creates a source connector and returns its id.
func (c *Client) CreateSource(ctx context.Context, name, definitionID string, config map[string]interface{}) (string, error) {
	req := createSourceRequest{
		Name:                    name,
		SourceDefinitionID:      definitionID,
		WorkspaceID:             c.workspaceID,
		ConnectionConfiguration: config,
	}

	var resp createSourceResponse
	if err := c.post(ctx, "/sources/create", req, &resp); err != nil {
		return "", err
	}
	if resp.SourceID == "" {
		return "", errors.New(errors.ErrorTypeDecode, "create source response missing sourceId")
	}

	c.logger.Info("source created", zap.String("source_id", resp.SourceID), zap.String("name", name))
	return resp.SourceID, nil
}

// CheckSource validates a source. It returns true only when the platform
// reports status "succeeded"; any other status is false without error.
func (c *Client) CheckSource(ctx context.Context, sourceID string) (bool, error) {
	var resp checkResponse
	if err := c.post(ctx, "/sources/check_connection", checkRequest{SourceID: sourceID}, &resp); err != nil {
		return false, err
	}
	return resp.Status == StatusSucceeded, nil
}

// DeleteSource removes a source. Used for best-effort cleanup of a
// partially completed run.
func (c *Client) DeleteSource(ctx context.Context, sourceID string) error {
	return c.post(ctx, "/sources/delete", deleteSourceRequest{SourceID: sourceID}, nil)
}

// CreateDestination creates a destination connector and returns its id.
func (c *Client) CreateDestination(ctx context.Context, name, definitionID string, config map[string]interface{}) (string, error) {
	req := createDestinationRequest{
		Name:                    name,
		DestinationDefinitionID: definitionID,
		WorkspaceID:             c.workspaceID,
		ConnectionConfiguration: config,
	}

	var resp createDestinationResponse
	if err := c.post(ctx, "/destinations/create", req, &resp); err != nil {
		return "", err
	}
	if resp.DestinationID == "" {
		return "", errors.New(errors.ErrorTypeDecode, "create destination response missing destinationId")
	}

	c.logger.Info("destination created", zap.String("destination_id", resp.DestinationID), zap.String("name", name))
	return resp.DestinationID, nil
}

// CheckDestination validates a destination. Semantics match CheckSource.
func (c *Client) CheckDestination(ctx context.Context, destinationID string) (bool, error) {
	var resp checkResponse
	if err := c.post(ctx, "/destinations/check_connection", checkRequest{DestinationID: destinationID}, &resp); err != nil {
		return false, err
	}
	return resp.Status == StatusSucceeded, nil
}

// DeleteDestination removes a destination. Used for best-effort cleanup of
// a partially completed run.
func (c *Client) DeleteDestination(ctx context.Context, destinationID string) error {
	return c.post(ctx, "/destinations/delete", deleteDestinationRequest{DestinationID: destinationID}, nil)
}

// DiscoverSchema inspects a source and returns its available streams.
// database, schema and tables scope the discovery; the filter object is
// sent only when at least one of them is non-empty.
func (c *Client) DiscoverSchema(ctx context.Context, sourceID, database, schema string, tables []string) (*DiscoverResult, error) {
	req := discoverRequest{
		SourceID:      sourceID,
		ConnectorType: connectorTypeSource,
	}
	if database != "" || schema != "" || len(tables) > 0 {
		req.Schema = &discoverFilter{
			Database: database,
			Schema:   schema,
			Tables:   tables,
		}
	}

	var resp DiscoverResult
	if err := c.post(ctx, "/connections/discover_schema", req, &resp); err != nil {
		return nil, err
	}

	c.logger.Info("schema discovered",
		zap.String("source_id", sourceID),
		zap.Int("streams", len(resp.Streams)))
	return &resp, nil
}

// CreateConnection creates a connection and returns its id.
func (c *Client) CreateConnection(ctx context.Context, spec ConnectionSpec) (string, error) {
	var resp createConnectionResponse
	if err := c.post(ctx, "/connections/create", spec, &resp); err != nil {
		return "", err
	}
	if resp.ConnectionID == "" {
		return "", errors.New(errors.ErrorTypeDecode, "create connection response missing connectionId")
	}

	c.logger.Info("connection created",
		zap.String("connection_id", resp.ConnectionID),
		zap.String("name", spec.Name))
	return resp.ConnectionID, nil
}

// GetConnection fetches a connection record by id.
func (c *Client) GetConnection(ctx context.Context, connectionID string) (*Connection, error) {
	var resp Connection
	query := url.Values{"connectionId": []string{connectionID}}
	if err := c.get(ctx, "/connections/get", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// headers returns the authenticated request headers.
func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.token,
		"Content-Type":  "application/json",
	}
}

// post submits a JSON payload and decodes the response into out (skipped
// when out is nil, for endpoints that return no body).
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := gojson.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode request payload").
			WithDetail("path", path)
	}

	resp, err := c.http.Post(ctx, c.baseURL+path, bytes.NewReader(body), c.headers())
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeAPI, fmt.Sprintf("POST %s failed", path)).
			WithDetail("method", http.MethodPost).
			WithDetail("path", path)
	}

	return c.decodeResponse(resp, http.MethodPost, path, out)
}

// get submits a GET request with query parameters and decodes the response.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	resp, err := c.http.Get(ctx, fullURL, c.headers())
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeAPI, fmt.Sprintf("GET %s failed", path)).
			WithDetail("method", http.MethodGet).
			WithDetail("path", path)
	}

	return c.decodeResponse(resp, http.MethodGet, path, out)
}

// decodeResponse enforces the status/decode error policy: a non-2xx status
// is an API error carrying method, path, status code and the body's message
// field (or the whole body); a body that fails to decode is a decode error
// wrapping the raw response text.
func (c *Client) decodeResponse(resp *http.Response, method, path string, out interface{}) error {
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeAPI, fmt.Sprintf("failed to read response from %s %s", method, path)).
			WithDetail("method", method).
			WithDetail("path", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(errors.ErrorTypeAPI,
			fmt.Sprintf("airbyte API %s %s returned HTTP %d: %s", method, path, resp.StatusCode, errorMessage(raw))).
			WithDetail("method", method).
			WithDetail("path", path).
			WithDetail("status_code", resp.StatusCode)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := gojson.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, errors.ErrorTypeDecode,
			fmt.Sprintf("non-JSON response from %s %s: %s", method, path, string(raw))).
			WithDetail("method", method).
			WithDetail("path", path)
	}

	return nil
}

// errorMessage extracts the structured message field from an error body,
// falling back to the body text.
func errorMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := gojson.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return string(raw)
}
