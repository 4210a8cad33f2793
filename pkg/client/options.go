package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout. It bounds a single
// request end to end; per-call context deadlines still apply.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.httpClient.Timeout = d
		return nil
	}
}

// WithRetryMaxElapsed bounds how long idempotent GETs are retried on
// 408/429/500 responses. Zero disables retries.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("retry max elapsed must be >= 0")
		}
		c.retryMaxElapsed = d
		return nil
	}
}

// WithLogger sets the logger used for retries and debug dumps.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithDebugLogging wraps the transport so each request/response is dumped at
// debug level. Dumps include the Authorization header; keep it off in shared logs.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			base := c.httpClient.Transport
			if base == nil {
				base = http.DefaultTransport
			}
			c.httpClient.Transport = &debugTransport{base: base, log: &c.log}
		}
		return nil
	}
}
