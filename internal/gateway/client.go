// Package gateway is the HTTP client for the authenticated resume API:
// bearer attachment, one refresh-and-retry on 401, and typed errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRefreshPath = "/auth/refresh/"
	maxResponseBody    = 4 << 20
)

type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokens      TokenStore
	limiter     *rate.Limiter
	refreshPath string
	onExpired   func()
	refreshes   singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// WithLimiter throttles outbound requests.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithRefreshPath(p string) Option {
	return func(c *Client) { c.refreshPath = p }
}

// OnSessionExpired registers the hook run after credentials are cleared,
// typically a redirect to login.
func OnSessionExpired(fn func()) Option {
	return func(c *Client) { c.onExpired = fn }
}

func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenStore(nil)
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: defaultTimeout},
		tokens:      tokens,
		refreshPath: defaultRefreshPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Tokens() TokenStore { return c.tokens }

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one JSON request and decodes a 2xx body into out (when non-nil).
//
// A 401 on a request made while credentials are stored triggers exactly one
// refresh followed by one retry. Requests sent without any stored token get
// the 401 back as an APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	tok := c.tokens.Token()
	status, respBody, err := c.send(ctx, method, path, payload, tok)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && canRefresh(tok) {
		fresh, err := c.refresh(ctx, tok)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isContextErr(err) {
				return err
			}
			return c.expire()
		}

		status, respBody, err = c.send(ctx, method, path, payload, fresh)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return c.expire()
		}
	}

	if status < 200 || status >= 300 {
		return &APIError{Status: status, Message: errorMessage(status, respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, tok *oauth2.Token) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if hasCredentials(tok) {
		tok.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, &NetworkError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, &NetworkError{BaseURL: c.baseURL, Err: err}
	}
	return resp.StatusCode, data, nil
}

func hasCredentials(tok *oauth2.Token) bool {
	return tok != nil && tok.AccessToken != ""
}

// canRefresh is true whenever something is stored: a refresh token to use,
// or an access token whose session must be cleared on failure.
func canRefresh(tok *oauth2.Token) bool {
	return tok != nil && (tok.AccessToken != "" || tok.RefreshToken != "")
}

func (c *Client) expire() error {
	c.tokens.Clear()
	if c.onExpired != nil {
		c.onExpired()
	}
	return ErrSessionExpired
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if raw, ok := body.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
}
