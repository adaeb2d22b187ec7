// Package api is the typed client for the remote storefront REST API.
//
// All calls share one transport policy: JSON bodies, a fixed request timeout,
// bearer injection from a TokenSource, and central interception of
// authorization-denied responses. A 401 from ANY endpoint fires the
// registered OnUnauthorized hook before the call returns, so no feature can
// keep operating on a rejected credential.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RequestTimeout bounds every remote call.
const RequestTimeout = 10 * time.Second

// TokenSource supplies the current bearer credential, or "" when
// unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the storefront API.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets the bearer credential source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: RequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized registers the hook fired on every authorization-denied
// response. The session store registers itself here exactly once.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// errorBody is the wire shape of a remote rejection.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}

	if resp.StatusCode >= 400 {
		var remote errorBody
		_ = json.NewDecoder(resp.Body).Decode(&remote)
		return newError(resp.StatusCode, remote.Code, remote.Message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
