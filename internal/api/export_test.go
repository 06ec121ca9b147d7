package api

import (
	"time"
)

// WithMaxAttempts overrides the retry budget of the client.
func WithMaxAttempts(n int) Options {
	return func(o *options) {
		o.maxAttempts = n
	}
}

// WithSleep overrides the sleep function used for 429 backoff.
func WithSleep(f func(time.Duration)) Options {
	return func(o *options) {
		o.sleep = f
	}
}

// Token returns the session token the client currently holds.
func (c *Client) Token() string {
	return c.token
}
