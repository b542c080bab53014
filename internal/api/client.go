// Package api is the HTTP client for the self-care portal backend: catalog
// fetch, assessment submission, chat, appointment booking, mood and ask.
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
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindful/internal/config"
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the portal backend. Cookies persist across requests and the
// csrf token is sent on every POST.
type Client struct {
	base      *url.URL
	endpoints config.EndpointsConfig
	http      *http.Client
	logger    *zap.Logger

	mu        sync.RWMutex
	csrfToken string
}

// NewClient creates a client from cfg.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Server.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:      base,
		endpoints: cfg.Endpoints,
		http: &http.Client{
			Timeout: cfg.GetTimeout(),
			Jar:     jar,
		},
		logger:    logger,
		csrfToken: cfg.Server.CSRFToken,
	}, nil
}

// SetCSRFToken replaces the token sent as X-CSRFToken.
func (c *Client) SetCSRFToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrfToken = token
}

// CSRFToken returns the current token.
func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrfToken
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}
	// JoinPath takes escaped segments; keep escapes such as %2F intact.
	return c.base.JoinPath(ref.EscapedPath()).String()
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

// get performs a GET and reads the whole body.
func (c *Client) get(ctx context.Context, op, path string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(op, req)
}

// postJSON marshals body and POSTs it with the csrf header.
func (c *Client) postJSON(ctx context.Context, op, path string, body any) (response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), bytes.NewReader(data))
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CSRFToken", c.CSRFToken())
	return c.do(op, req)
}

type requestIDKey struct{}

// WithRequestID makes requests made with ctx carry id as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func (c *Client) do(op string, req *http.Request) (response, error) {
	requestID, _ := req.Context().Value(requestIDKey{}).(string)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	log := c.logger.With(zap.String("op", op), zap.String("request_id", requestID))
	log.Debug("request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return response{}, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("failed to read response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return response{}, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	log.Debug("response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))
	return response{status: resp.StatusCode, body: body}, nil
}

// =============================================================================
// CATALOG
// =============================================================================

// FetchCatalog returns the raw catalog document.
func (c *Client) FetchCatalog(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, "catalog", c.endpoints.Catalog)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, newError("catalog", resp)
	}
	return resp.body, nil
}
