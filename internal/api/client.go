// Package api wraps HTTP access to the finance tracker backend. The
// client attaches the persisted bearer token to every request, assigns
// request IDs for tracing, retries idempotent reads once, and on a 401
// clears the stored session and fires a one-shot unauthorized callback
// so the application returns to the login flow exactly once.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"contas/internal/log"
)

// TokenSource yields the persisted access token, if any.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// SessionClearer destroys the persisted session. Wired to the storage
// layer; invoked by the client when the backend answers 401.
type SessionClearer interface {
	ClearSession(ctx context.Context) error
}

type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	tokens     TokenSource
	sessions   SessionClearer
	logger     *log.Logger

	// onUnauthorized runs at most once per expired session; the latch
	// resets on the next successful login. This is what prevents a
	// storm of 401s from triggering the logout path repeatedly.
	onUnauthorized   func()
	unauthorizedSent atomic.Bool
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, sessions SessionClearer, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    u,
		tokens:     tokens,
		sessions:   sessions,
		logger:     logger.WithComponent(log.ComponentAPI),
	}, nil
}

// SetUnauthorizedHandler registers the callback fired when a request
// is rejected with 401.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

// ResetUnauthorized re-arms the one-shot unauthorized callback. Called
// by the auth layer after a successful login.
func (c *Client) ResetUnauthorized() {
	c.unauthorizedSent.Store(false)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	// One retry for idempotent reads; everything else is sent once.
	attempts := 1
	if method == http.MethodGet {
		attempts = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		retryable, err := c.send(ctx, method, path, query, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == attempts {
			break
		}
		c.logger.WarnContext(ctx, "Retrying request",
			log.FieldMethod, method, log.FieldPath, path, log.FieldError, err.Error())
	}
	return lastErr
}

// send performs one round trip. retryable reports whether the failure
// is safe to retry for an idempotent request.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, out any) (retryable bool, err error) {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.tokens.AccessToken(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Request failed",
			log.FieldRequestID, requestID,
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldError, err.Error())
		return true, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("read response: %w", err)
	}

	c.logger.DebugContext(ctx, "Request completed",
		log.FieldRequestID, requestID,
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx)
		var p errorPayload
		_ = json.Unmarshal(respBody, &p)
		return false, normalizeError(resp.StatusCode, p)
	}

	if resp.StatusCode >= 400 {
		var p errorPayload
		_ = json.Unmarshal(respBody, &p)
		return resp.StatusCode >= 500, normalizeError(resp.StatusCode, p)
	}

	if out == nil || len(respBody) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}

// handleUnauthorized destroys the persisted session and notifies the
// application once. Subsequent 401s are silent until the latch is
// re-armed by a successful login.
func (c *Client) handleUnauthorized(ctx context.Context) {
	if c.sessions != nil {
		if err := c.sessions.ClearSession(ctx); err != nil {
			c.logger.ErrorContext(ctx, "Failed clearing session after 401",
				log.FieldError, err.Error())
		}
	}
	if c.unauthorizedSent.CompareAndSwap(false, true) {
		c.logger.InfoContext(ctx, "Session rejected by server, returning to login")
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}
}
