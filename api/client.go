package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kleeedolinux/datesync/debug"
	"github.com/kleeedolinux/datesync/model"

	"github.com/matryer/try"
	"github.com/rs/zerolog"
)

const DefaultTimeout = 30 * time.Second

// Credentials supplies the bearer token and is cleared when the backend
// rejects it.
type Credentials interface {
	Token() string
	Clear() error
}

// StatusSink receives the connectivity changes the REST client observes.
type StatusSink interface {
	SetConnectionStatus(connected bool)
	SetSystemStatus(status string)
}

type Notifier interface {
	Notify(severity model.Severity, title, message string)
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials Credentials
	status      StatusSink
	notifier    Notifier
	maxAttempts int
	backoff     func(attempt int) time.Duration
	logger      zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithCredentials(credentials Credentials) Option {
	return func(c *Client) {
		c.credentials = credentials
	}
}

func WithStatusSink(status StatusSink) Option {
	return func(c *Client) {
		c.status = status
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(c *Client) {
		c.notifier = notifier
	}
}

// WithMaxAttempts bounds how many times a GET is tried, between 1 and
// try.MaxRetries. Other methods are never retried.
func WithMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		if attempts > try.MaxRetries {
			attempts = try.MaxRetries
		}
		c.maxAttempts = attempts
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a client for the backend rooted at baseURL, which already
// includes the path prefix (for example http://localhost:8000/api).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		maxAttempts: 3,
		backoff:     exponentialBackoff,
		logger:      debug.Component("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type call struct {
	method      string
	path        string
	query       url.Values
	body        interface{}
	out         interface{}
	requireData bool
	failure     string
}

type networkError struct {
	err error
}

func (e *networkError) Error() string { return e.err.Error() }
func (e *networkError) Unwrap() error { return e.err }

func (c *Client) do(ctx context.Context, rc call) error {
	var payload []byte
	if rc.body != nil {
		b, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	attempts := 1
	if rc.method == http.MethodGet {
		attempts = c.maxAttempts
	}

	var (
		status   int
		respBody []byte
	)

	// try keeps going while the callback asks for a retry and returns an error
	err := try.Do(func(attempt int) (bool, error) {
		req, err := c.newRequest(ctx, rc, payload)
		if err != nil {
			return false, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			retry := attempt < attempts && ctx.Err() == nil
			if retry {
				c.wait(ctx, attempt)
			}
			return retry, &networkError{err: err}
		}

		respBody, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		status = resp.StatusCode
		if err != nil {
			return false, &networkError{err: err}
		}

		if status >= http.StatusInternalServerError && attempt < attempts {
			c.logger.Debug().Int("status", status).Int("attempt", attempt).Str("path", rc.path).Msg("retrying request")
			c.wait(ctx, attempt)
			return true, fmt.Errorf("%d response", status)
		}
		return false, nil
	})
	if err != nil {
		var ne *networkError
		if errors.As(err, &ne) && ctx.Err() == nil {
			c.offline(rc, ne.err)
			return fmt.Errorf("%w: %s %s: %v", ErrOffline, rc.method, rc.path, ne.err)
		}
		c.logger.Error().Err(err).Str("path", rc.path).Msg("request failed")
		return err
	}

	if status == http.StatusUnauthorized {
		c.unauthorized()
	}

	var env envelope
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			if status >= 200 && status < 300 {
				return fmt.Errorf("decode response: %w", err)
			}
		}
	}

	if status < 200 || status >= 300 {
		apiErr := &Error{
			StatusCode: status,
			Message:    firstNonEmpty(env.Error, env.Message, http.StatusText(status)),
			body:       respBody,
		}
		c.logger.Error().Int("status", status).Str("path", rc.path).Msg(apiErr.Message)
		return apiErr
	}

	if !env.Success {
		return &Error{
			StatusCode: status,
			Message:    firstNonEmpty(env.Error, rc.failure),
			body:       respBody,
		}
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		if rc.requireData {
			return &Error{StatusCode: status, Message: rc.failure, body: respBody}
		}
		return nil
	}

	if rc.out != nil {
		if err := json.Unmarshal(env.Data, rc.out); err != nil {
			return fmt.Errorf("decode %s data: %w", rc.path, err)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, rc call, payload []byte) (*http.Request, error) {
	u := c.baseURL + rc.path
	if len(rc.query) > 0 {
		u += "?" + rc.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, u, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.credentials != nil {
		if token := c.credentials.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) unauthorized() {
	c.logger.Warn().Msg("credentials rejected, clearing token")
	if c.credentials != nil {
		if err := c.credentials.Clear(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to clear token")
		}
	}
	if c.status != nil {
		c.status.SetConnectionStatus(false)
	}
}

func (c *Client) offline(rc call, err error) {
	c.logger.Error().Err(err).Str("method", rc.method).Str("path", rc.path).Msg("backend unreachable")
	if c.status != nil {
		c.status.SetSystemStatus("offline")
	}
	if c.notifier != nil {
		c.notifier.Notify(model.SeverityError, "Connection Error",
			"Unable to connect to the server. Please check your internet connection.")
	}
}

func (c *Client) wait(ctx context.Context, attempt int) {
	d := c.backoff(attempt)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func exponentialBackoff(attempt int) time.Duration {
	delay := math.Pow(2, float64(attempt)) * 100
	randomSum := delay * 0.2 * rand.Float64()
	return time.Duration(delay+randomSum) * time.Millisecond
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
