// Package ringcentral is a small typed client for the RingCentral call-log
// API: one method per page read or record delete, each throttled and retried.
package ringcentral

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/rc-tools/rccalllog/internal/buildinfo"
	"github.com/rc-tools/rccalllog/internal/clock"
	"github.com/rc-tools/rccalllog/internal/metrics"
	"github.com/rc-tools/rccalllog/internal/models"
)

// Client calls the call-log endpoints of one platform server.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	throttle  *Throttle
	retry     RetryPolicy
	clock     clock.Clock
	logger    *zap.Logger
	metrics   *metrics.Metrics
	userAgent string
}

// Option customises a Client.
type Option func(*Client)

// WithThrottle spaces every outbound call through t.
func WithThrottle(t *Throttle) Option {
	return func(c *Client) { c.throttle = t }
}

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithClock sets the clock used for retry waits and Retry-After dates.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records requests and retries into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for server. httpClient is expected to authenticate
// requests, typically Session.HTTPClient().
func New(server string, httpClient *http.Client, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", server)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL:   base,
		http:      httpClient,
		retry:     DefaultRetryPolicy(),
		clock:     clock.System{},
		logger:    zap.NewNop(),
		userAgent: "rccalllog/" + buildinfo.Version,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.throttle == nil {
		c.throttle = NewThrottle(0, c.clock)
	}
	return c, nil
}

// ListCallLog fetches one page of call-log records.
func (c *Client) ListCallLog(ctx context.Context, req ListCallLogRequest) (*models.Page, error) {
	target, err := c.listURL(req)
	if err != nil {
		return nil, err
	}

	var resp callLogResponse
	if err := c.call(ctx, http.MethodGet, target, &resp); err != nil {
		return nil, err
	}
	return resp.page(), nil
}

// DeleteCallLog deletes one call-log record by id.
func (c *Client) DeleteCallLog(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete call log: empty record id")
	}
	target := c.baseURL.ResolveReference(&url.URL{Path: CallLogPath + "/" + id})
	return c.call(ctx, http.MethodDelete, target, nil)
}

// listURL resolves a request to a URL on the configured server. Continuation
// tokens are absolute URIs; only their path and query are kept so the bearer
// token is never sent to another host.
func (c *Client) listURL(req ListCallLogRequest) (*url.URL, error) {
	if req.PageToken != "" {
		u, err := url.Parse(req.PageToken)
		if err != nil {
			return nil, fmt.Errorf("invalid page token %q: %w", req.PageToken, err)
		}
		return c.baseURL.ResolveReference(&url.URL{Path: u.Path, RawPath: u.RawPath, RawQuery: u.RawQuery}), nil
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: CallLogPath})
	u.RawQuery = req.Values().Encode()
	return u, nil
}

// call runs one logical request: every attempt waits on the throttle, and
// rate-limited or transient failures are retried per the retry policy.
func (c *Client) call(ctx context.Context, method string, target *url.URL, out any) error {
	b := newRetryBackOff(c.retry, c.throttle.Interval())
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retry.MaxRetries)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		if err := c.throttle.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := c.do(ctx, method, target, out)
		if err == nil {
			return nil
		}
		if !retryable(err) || isContextErr(err) {
			return backoff.Permanent(err)
		}
		b.observe(err)
		return err
	}

	notify := func(err error, wait time.Duration) {
		reason := "transient"
		if IsRateLimited(err) {
			reason = "rate_limited"
		}
		c.metrics.ObserveRetry(reason)
		c.logger.Warn("retrying request",
			zap.String("method", method),
			zap.String("path", target.Path),
			zap.Int("attempt", attempt),
			zap.String("reason", reason),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotifyWithTimer(op, policy, notify, newClockTimer(ctx, c.clock))
	if err != nil && attempt > 1 && retryable(err) {
		return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, 0)
		return err
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest(method, resp.StatusCode)
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", target.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("rc_request_id", resp.Header.Get("RCRequestId")),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(req, resp, c.clock.Now())
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", target.Path, err)
	}
	return nil
}
