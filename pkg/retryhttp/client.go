package retryhttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps an http.Client with a bounded retry policy: every attempt is
// capped by a per-attempt timeout, attempts are separated by a linearly
// increasing delay, and a non-2xx status counts as a failed attempt.
type Client struct {
	inner      *http.Client
	maxRetries int
	timeout    time.Duration
	baseDelay  time.Duration
}

type Option func(*Client)

func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		inner:      &http.Client{},
		maxRetries: 2,
		timeout:    15 * time.Second,
		baseDelay:  time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request with the retry policy. The request body, if any,
// must be rewindable; callers pass raw bytes via DoBytes for that reason.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = b
	}
	return c.doBytes(req.Context(), req, body)
}

func (c *Client) doBytes(ctx context.Context, template *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)

		req := template.Clone(attemptCtx)
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}

		resp, err := c.inner.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			// The caller owns the body; releasing the attempt context here
			// would abort the in-flight read.
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		}
		cancel()

		if err != nil {
			lastErr = err
		} else {
			errText, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(errText))
		}

		// Delay only between attempts, never after the last one.
		if attempt < c.maxRetries-1 {
			select {
			case <-time.After(c.baseDelay * time.Duration(attempt+1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("failed to fetch after %d attempts", c.maxRetries)
	}
	return nil, lastErr
}

// RoundTrip lets the client stand in as an http.RoundTripper, so it can back
// an oauth2 token exchange via the oauth2.HTTPClient context override.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.Do(req)
}

// HTTPClient returns an http.Client whose transport applies the retry policy.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{Transport: c}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
