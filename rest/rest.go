// Package rest is the request/response transport of the client: typed
// routes, an error hierarchy mirroring the API's status codes, and a
// per-bucket rate limiter that every outbound request passes through.
package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/context"

	"github.com/fuad-daoud/ferrisgo/logger/dlog"
)

const (
	// APIBaseURL is the production API base.
	APIBaseURL = "https://api.ferris.chat/v0"

	// MaxTries bounds the automatic retry loop for rate limits and 5xx.
	MaxTries = 3

	// Version is the library version reported in the User-Agent.
	Version = "0.1.0"
)

var defaultUserAgent = fmt.Sprintf("ferrisgo (https://github.com/fuad-daoud/ferrisgo, v%s)", Version)

// Client talks to the FerrisChat REST API. The zero value is not usable;
// construct with New.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	Token     string
	UserAgent string
	Limiter   *RateLimiter
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) { c.BaseURL = base }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

func WithRateLimiter(l *RateLimiter) Option {
	return func(c *Client) { c.Limiter = l }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.UserAgent = ua }
}

func New(token string, opts ...Option) *Client {
	c := &Client{
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		BaseURL:   APIBaseURL,
		Token:     token,
		UserAgent: defaultUserAgent,
		Limiter:   NewRateLimiter(0, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends a request through the rate limiter and decodes the 2xx response
// body into out (skipped when out is nil). Rate-limit rejections put the
// bucket into cooldown and retry; 5xx retries up to MaxTries then surfaces
// as *UnavailableError; other 4xx map to their typed error immediately.
func (c *Client) Do(ctx context.Context, route CompiledRoute, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("rest: encode body: %w", err)
		}
	}

	var lastErr error
	for tries := 0; tries < MaxTries; tries++ {
		if err := c.Limiter.Acquire(ctx, route.Bucket); err != nil {
			// a timeout while waiting out a 429 keeps its retryable
			// classification alongside the context error
			if lastErr != nil {
				return errors.Join(lastErr, err)
			}
			return err
		}

		status, content, header, requestID, err := c.send(ctx, route, payload)
		c.Limiter.Release(route.Bucket, header)
		if err != nil {
			return err
		}

		switch {
		case status >= 200 && status < 400:
			if out != nil && len(content) > 0 {
				if err := json.Unmarshal(content, out); err != nil {
					return fmt.Errorf("rest: decode response: %w", err)
				}
			}
			return nil

		case status == http.StatusTooManyRequests:
			retryAfter := retryAfterOf(header, content)
			c.Limiter.Cooldown(route.Bucket, retryAfter)
			lastErr = &RateLimitedError{
				APIError:   APIError{StatusCode: status, Message: "rate limited", RequestID: requestID},
				RetryAfter: retryAfter,
			}

		case status >= 500 && status < 600:
			lastErr = newStatusError(status, content, requestID)
			dlog.Warn("Server error, retrying", "bucket", route.Bucket, "status", status, "try", tries+1)

		default:
			return newStatusError(status, content, requestID)
		}
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, route CompiledRoute, payload []byte) (status int, content []byte, header http.Header, requestID string, err error) {
	req, err := http.NewRequestWithContext(ctx, route.Method, route.URL(c.BaseURL), bytes.NewReader(payload))
	if err != nil {
		return 0, nil, nil, "", fmt.Errorf("rest: build request: %w", err)
	}

	requestID = uuid.NewString()
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.Token != "" {
		req.Header.Set("Authorization", c.Token)
	}
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range route.Header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	dlog.Debug("Request", "method", route.Method, "path", route.Path, "request_id", requestID)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, nil, requestID, fmt.Errorf("rest: %s %s: %w", route.Method, route.Path, err)
	}
	defer resp.Body.Close()

	content, err = io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, resp.Header, requestID, fmt.Errorf("rest: read response: %w", err)
	}
	return resp.StatusCode, content, resp.Header, requestID, nil
}

// retryAfterOf reads the retry delay from the Retry-After header, falling
// back to the body's retry_after field, falling back to one second.
func retryAfterOf(h http.Header, body []byte) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return time.Duration(f * float64(time.Second))
		}
	}
	var parsed struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.RetryAfter > 0 {
		return time.Duration(parsed.RetryAfter * float64(time.Second))
	}
	return time.Second
}
