// Package api is the HTTP client for the AI Dashboard backend.
//
// Every call returns either a decoded response or one of the typed errors in
// errors.go; Classify turns those into the NormalizedError taxonomy that the
// sync layer branches on.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rileyhilliard/aidash/internal/logger"
)

const (
	// DefaultBaseURL is the backend served by `manage.py runserver`.
	DefaultBaseURL = "http://localhost:8000"

	// SessionCookie is the Django session cookie name.
	SessionCookie = "sessionid"
	// CSRFCookie is the Django CSRF cookie name.
	CSRFCookie = "csrftoken"

	maxBodyBytes = 8 << 20
)

// Endpoint paths.
const (
	PathRoot          = "/"
	PathServers       = "/api/servers/"
	PathMetricsLatest = "/api/metrics/latest/"
	PathHistory       = "/api/metrics/history/"
	PathNotifications = "/api/notifications/"
	PathMarkRead      = "/api/notifications/mark-read/"
	PathLogin         = "/api/auth/login/"
)

// Client talks to the backend. It is safe for concurrent use; the cookie
// jar carries the session between calls.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	userAgent  string
	log        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Jar is replaced by
// the client's own jar so cookies keep working.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithSession seeds the cookie jar with a stored session id.
func WithSession(sessionID string) Option {
	return func(c *Client) {
		if sessionID != "" {
			c.SetSession(sessionID)
		}
	}
}

// New creates a client for baseURL. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:   u,
		jar:       jar,
		userAgent: "aidash",
		log:       logger.WithPrefix(logger.Default(), "[api]"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Jar = c.jar
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Session returns the current session id from the cookie jar.
func (c *Client) Session() string {
	return c.cookie(SessionCookie)
}

// SetSession stores a session id in the cookie jar.
func (c *Client) SetSession(sessionID string) {
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:  SessionCookie,
		Value: sessionID,
		Path:  "/",
	}})
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Servers lists the registered servers.
func (c *Client) Servers(ctx context.Context) (*ServersResponse, error) {
	var out ServersResponse
	if err := c.do(ctx, http.MethodGet, PathServers, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MetricsLatest fetches the newest snapshot. An empty server lets the
// backend pick its default.
func (c *Client) MetricsLatest(ctx context.Context, server string) (*LatestResponse, error) {
	q := url.Values{}
	if server != "" {
		q.Set("server", server)
	}
	var out LatestResponse
	if err := c.do(ctx, http.MethodGet, PathMetricsLatest, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MetricsHistory fetches downsampled history for the last minutes.
// minutes <= 0 lets the backend apply its default window.
func (c *Client) MetricsHistory(ctx context.Context, server string, minutes int) (*HistoryResponse, error) {
	q := url.Values{}
	if server != "" {
		q.Set("server", server)
	}
	if minutes > 0 {
		q.Set("minutes", strconv.Itoa(minutes))
	}
	var out HistoryResponse
	if err := c.do(ctx, http.MethodGet, PathHistory, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Notifications fetches the notification feed.
func (c *Client) Notifications(ctx context.Context) (*NotificationsResponse, error) {
	var out NotificationsResponse
	if err := c.do(ctx, http.MethodGet, PathNotifications, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkNotificationsRead marks the given notifications as read.
func (c *Client) MarkNotificationsRead(ctx context.Context, ids []int64) (*MarkReadResponse, error) {
	if ids == nil {
		ids = []int64{}
	}
	var out MarkReadResponse
	if err := c.do(ctx, http.MethodPost, PathMarkRead, nil, MarkReadRequest{IDs: ids}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates with username and password. On success the session
// cookie is in the jar and can be read with Session.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, PathLogin, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ensureCSRF fetches the API root when the jar holds no CSRF token. The
// backend sets the cookie on any response from the root view.
func (c *Client) ensureCSRF(ctx context.Context) string {
	if tok := c.cookie(CSRFCookie); tok != "" {
		return tok
	}
	req, err := c.newRequest(ctx, http.MethodGet, PathRoot, nil, nil)
	if err != nil {
		return ""
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("csrf bootstrap failed: %v", err)
		return ""
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	return c.cookie(CSRFCookie)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setRequestHeaders(req)
	return req, nil
}

func (c *Client) setRequestHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		body = bytes.NewReader(buf)
	}

	var csrf string
	if method != http.MethodGet && method != http.MethodHead {
		csrf = c.ensureCSRF(ctx)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrf != "" {
		req.Header.Set("X-CSRFToken", csrf)
		req.Header.Set("Referer", c.baseURL.String()+"/")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	c.log.Debug("%s %s -> %d (%s)", method, req.URL.RequestURI(), resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(method, path, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}
