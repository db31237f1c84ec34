// Package client talks to the simdash server over HTTP and websocket and
// implements dashboard.Backend.
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
	"sync"
	"time"

	"simdash/internal/dashboard"
	"simdash/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20 // 8 MB, room for xlsx exports

	apiPrefix = "/api/v1"
)

var _ dashboard.Backend = (*Client)(nil)

// Client is safe for concurrent use. The access token obtained by SignIn is
// kept in memory only.
type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
	log    *logger.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken starts the client already signed in.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = logger.OrNop(l) }
}

// New returns a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: want http(s)://host[:port]", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: defaultTimeout},
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		log:    logger.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// APIError is a non-2xx answer from the server. A 401 matches
// dashboard.ErrNotAuthenticated with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return dashboard.ErrNotAuthenticated
	}
	return nil
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// send performs a request and returns the status code and body without
// interpreting either.
func (c *Client) send(ctx context.Context, method, path string, q url.Values, in any) (int, []byte, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.log.Debugw("http_call", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start).String())
	return resp.StatusCode, raw, nil
}

// do is send plus error mapping and JSON decoding of a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	status, raw, err := c.send(ctx, method, path, q, in)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return apiError(status, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func apiError(status int, raw []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	return &APIError{StatusCode: status, Message: body.Error}
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}
