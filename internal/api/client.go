// Package api implements the authenticated client for the pokemon REST API.
// The client component is responsible for login, session token handling and
// the retry policy wrapping every request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pokeapi-lab/pokemon-insights/internal/constants"
)

var (
	// ErrMissingBaseURL is returned when the configuration has no base URL set.
	ErrMissingBaseURL = errors.New("base URL is not set")
	// ErrNoToken is returned when the login response carries no recognized token field.
	ErrNoToken = errors.New("no access token in login response")
	// ErrUnexpectedStatus is returned when a request still has a failure status
	// after the retry budget has been spent.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Record is a single untyped entity as returned by the API.
type Record map[string]any

// ID returns the numeric identity of the record, if it has one.
// The API is inconsistent about number encodings, so strings and JSON numbers
// are both accepted.
func (r Record) ID() (int, bool) {
	v, ok := r["id"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Config represents the settings needed to access the API.
// It is immutable after Sanitize.
type Config struct {
	BaseURL  string
	Username string
	Password string

	LoginTimeout   time.Duration
	RequestTimeout time.Duration
}

// Sanitize sets defaults and checks that the Config is properly configured.
func (c *Config) Sanitize(l *slog.Logger) error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.LoginTimeout <= 0 {
		c.LoginTimeout = constants.DefaultLoginTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = constants.DefaultRequestTimeout
	}
	if c.Username == "" {
		l.Warn("No API username configured, authentication will likely fail")
	}

	return nil
}

// Client is an authenticated HTTP client for the pokemon API.
//
// The session token is owned exclusively by the client. It starts absent, is
// acquired on the first request (or an explicit Login), and is invalidated and
// re-acquired whenever the API answers 401. Not safe for concurrent use.
type Client struct {
	cfg   Config
	token string

	login *http.Client
	data  *http.Client

	maxAttempts int
	sleep       func(time.Duration)

	log *slog.Logger
}

type options struct {
	// Private members exported for tests.
	maxAttempts int
	sleep       func(time.Duration)
}

var defaultOptions = options{
	maxAttempts: constants.DefaultMaxAttempts,
	sleep:       time.Sleep,
}

// Options represents an optional function to override Client default values.
type Options func(*options)

// New returns a new Client for the given configuration.
// The configuration must have been sanitized beforehand.
func New(l *slog.Logger, cfg Config, args ...Options) *Client {
	opts := defaultOptions
	for _, opt := range args {
		opt(&opts)
	}

	return &Client{
		cfg:         cfg,
		login:       &http.Client{Timeout: cfg.LoginTimeout},
		data:        &http.Client{Timeout: cfg.RequestTimeout},
		maxAttempts: opts.maxAttempts,
		sleep:       opts.sleep,
		log:         l,
	}
}

// Login exchanges the configured credentials for a session token.
// The stored token is overwritten on success.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("could not encode login payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.login.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("login failed: %w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
		JWT         string `json:"jwt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("could not decode login response: %v", err)
	}

	token := payload.AccessToken
	if token == "" {
		token = payload.Token
	}
	if token == "" {
		token = payload.JWT
	}
	if token == "" {
		return ErrNoToken
	}

	c.token = token
	c.log.Debug("Logged in", "user", c.cfg.Username)
	return nil
}

// Request issues an HTTP call against the API with the bearer token attached,
// logging in implicitly if no token is held yet.
//
// Retry policy, bounded at maxAttempts:
//   - 401: re-login and retry with the fresh token.
//   - 429: sleep for the Retry-After header value if present, else an
//     exponential 2^attempt seconds, then retry.
//   - anything else, or budget spent: the response is returned as-is and the
//     caller is responsible for acting on a failure status.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values) (*http.Response, error) {
	if c.token == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var resp *http.Response
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, u, nil)
		if err != nil {
			return nil, fmt.Errorf("could not create request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err = c.data.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt < c.maxAttempts-1 {
			// Token expired or invalid, renew it and retry.
			resp.Body.Close()
			c.log.Debug("Got 401, renewing session token", "path", path, "attempt", attempt)
			if err := c.Login(ctx); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxAttempts-1 {
			resp.Body.Close()
			delay := retryAfter(resp.Header, attempt)
			c.log.Debug("Rate limited, backing off", "path", path, "attempt", attempt, "seconds", delay.Seconds())
			c.sleep(delay)
			continue
		}

		return resp, nil
	}

	return resp, nil
}

// retryAfter returns the wait imposed by a 429 response: the Retry-After
// header value when present, else 2^attempt seconds.
func retryAfter(h http.Header, attempt int) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Duration(1<<attempt) * time.Second
}

// getJSON performs a GET request and decodes the body into v.
// A failure status surviving the retry policy is converted into
// ErrUnexpectedStatus here; this is the single place the "eventually raises"
// contract lives.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	resp, err := c.Request(ctx, http.MethodGet, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("GET %s: %w %d", path, ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("could not decode response of GET %s: %v", path, err)
	}
	return nil
}
