// Package api talks to the poll backend over HTTP. Every call resolves to a
// domain.Envelope; nothing here returns a Go error to its callers.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	_ ports.PollAPI = (*Client)(nil)
	_ ports.VoteAPI = (*Client)(nil)
	_ ports.UserAPI = (*Client)(nil)
)

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	tokens  ports.TokenStore
	log     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenStore sets where the bearer token is read from on every call.
func WithTokenStore(store ports.TokenStore) Option {
	return func(c *Client) { c.tokens = store }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout bounds every call. It never modifies a client passed with
// WithHTTPClient; the client is copied instead.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(parsed.String(), "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 && c.http.Timeout != c.timeout {
		h := *c.http
		h.Timeout = c.timeout
		c.http = &h
	}
	return c, nil
}

// For returns a copy of the client that reads its bearer token from store.
// The gateway uses it to call the backend on behalf of each browser.
func (c *Client) For(store ports.TokenStore) *Client {
	clone := *c
	clone.tokens = store
	return &clone
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// token overrides the stored bearer token when set.
	token string
}

type errorBody struct {
	Detail jsoniter.RawMessage `json:"detail"`
}

type validationDetail struct {
	Msg string `json:"msg"`
}

// call performs one request and collapses every outcome into an envelope.
// Methods cannot be generic, hence the free function.
func call[T any](ctx context.Context, c *Client, req request) domain.Envelope[T] {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			c.log.Error().Err(err).Str("path", req.path).Msg("Failed to encode request body.")
			return domain.Unreachable[T]()
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		c.log.Error().Err(err).Str("path", req.path).Msg("Failed to build request.")
		return domain.Unreachable[T]()
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token := c.bearer(ctx, req.token); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug().Str("method", req.method).Str("url", endpoint).Msg("Calling poll api...")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn().Err(err).Str("method", req.method).Str("path", req.path).Msg("Poll api unreachable.")
		return domain.Unreachable[T]()
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn().Err(err).Str("path", req.path).Msg("Failed to read response body.")
		return domain.Unreachable[T]()
	}

	if resp.StatusCode >= http.StatusBadRequest {
		message, errs := parseErrorBody(raw)
		c.log.Debug().Int("status", resp.StatusCode).Str("path", req.path).Str("detail", message).Msg("Poll api rejected request.")
		return domain.Fail[T](resp.StatusCode, message, errs)
	}

	var data T
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			c.log.Warn().Err(err).Str("path", req.path).Msg("Failed to decode response body.")
			return domain.Unreachable[T]()
		}
	}
	return domain.Ok(resp.StatusCode, data)
}

func (c *Client) bearer(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c.tokens == nil {
		return ""
	}
	tokens, err := c.tokens.Load(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("No stored tokens.")
		return ""
	}
	return tokens.AccessToken
}

// parseErrorBody extracts the backend's "detail". A plain string becomes the
// message; a validation list becomes the errors with the first as message.
func parseErrorBody(raw []byte) (string, []string) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return "", nil
	}

	var message string
	if err := json.Unmarshal(body.Detail, &message); err == nil {
		return message, nil
	}

	var details []validationDetail
	if err := json.Unmarshal(body.Detail, &details); err == nil && len(details) > 0 {
		errs := make([]string, 0, len(details))
		for _, d := range details {
			errs = append(errs, d.Msg)
		}
		return errs[0], errs
	}

	return "", nil
}
