// Package api wraps the DataVault control-plane HTTP API: one shared client
// with retries, bearer injection and the unified error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/datavault/dvcli/internal/config"
	"github.com/datavault/dvcli/internal/constants"
	dvhttp "github.com/datavault/dvcli/internal/http"
)

// TokenProvider supplies the Authorization header for authenticated calls.
// auth.Session implements it; a nil provider leaves requests anonymous
// (public share endpoints).
type TokenProvider interface {
	AuthorizationHeader(ctx context.Context) (string, error)
}

// retryLogger routes retryablehttp's warnings into zerolog and drops the
// per-request noise.
type retryLogger struct{}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Msgf("retry: %s %v", msg, keysAndValues)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Msgf("retry: %s %v", msg, keysAndValues)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Client is the shared control-plane HTTP client. Safe for concurrent use.
type Client struct {
	httpClient *nethttp.Client
	config     *config.Config
	baseURL    string
	tokens     TokenProvider
}

// NewClient creates an API client for the configured target. tokens may be
// nil for anonymous (public share) access.
func NewClient(cfg *config.Config, tokens TokenProvider) (*Client, error) {
	base, err := dvhttp.NewBaseClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.RetryMax = 5
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = &retryLogger{}

	return &Client{
		httpClient: retryClient.StandardClient(),
		config:     cfg,
		baseURL:    strings.TrimSuffix(cfg.TargetURL, "/") + constants.APIPrefix,
		tokens:     tokens,
	}, nil
}

// WithTokens returns a copy of the client that authenticates with the given
// provider. The underlying HTTP client and its connection pool are shared.
func (c *Client) WithTokens(tokens TokenProvider) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

// Config returns the configuration this client was built with.
func (c *Client) Config() *config.Config {
	return c.config
}

// BaseURL returns the API base, e.g. https://host/api/v4.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient exposes the underlying retrying HTTP client for callers that
// stream raw bodies (downloads).
func (c *Client) HTTPClient() *nethttp.Client {
	return c.httpClient
}

// Do performs an API request. path is relative to /api/v4; query may be nil;
// body is JSON-marshalled when non-nil. The caller owns the response body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.UserAgent)

	if c.tokens != nil {
		header, err := c.tokens.AuthorizationHeader(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", header)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// DoForm posts form-encoded data, used only by the OAuth endpoints.
func (c *Client) DoForm(ctx context.Context, path string, form url.Values) (*nethttp.Response, error) {
	u := strings.TrimSuffix(c.config.TargetURL, "/") + path

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// JSON performs a request and decodes a JSON response into out. A nil out
// discards the body. Non-2xx responses come back as the typed error model;
// malformed success bodies surface as HTTPError with a decode detail.
func (c *Client) JSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resp, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DecodeAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode response body: %v", err),
		}
	}
	return nil
}

// Get is shorthand for JSON with method GET and no request body.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.JSON(ctx, nethttp.MethodGet, path, query, nil, out)
}

// Post is shorthand for JSON with method POST.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.JSON(ctx, nethttp.MethodPost, path, nil, body, out)
}

// Put is shorthand for JSON with method PUT.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.JSON(ctx, nethttp.MethodPut, path, nil, body, out)
}

// Delete is shorthand for JSON with method DELETE.
func (c *Client) Delete(ctx context.Context, path string, body interface{}) error {
	return c.JSON(ctx, nethttp.MethodDelete, path, nil, body, nil)
}
