// Package fetch issues single HTTP requests while keeping the shared loading
// state accurate.
//
// Every Execute call begins a unit of work on the loader before the request
// and ends it exactly once on every exit path. Non-2xx responses are turned
// into *StatusError so callers see transport and HTTP failures through the
// same error return.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/panelkit/panelkit/internal/loader"
	"github.com/panelkit/panelkit/internal/metrics"
	"github.com/panelkit/panelkit/internal/observability"
)

// maxDrainBytes bounds how much of a failed response body is read before
// closing so the connection can be reused.
const maxDrainBytes = 64 << 10

// Doer is the underlying transport. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials mirrors the browser credentials mode.
type Credentials string

const (
	CredentialsInclude    Credentials = "include"
	CredentialsSameOrigin Credentials = "same-origin"
	CredentialsOmit       Credentials = "omit"
)

// ParseCredentials validates a credentials mode. Empty means same-origin.
func ParseCredentials(value string) (Credentials, error) {
	switch Credentials(strings.ToLower(strings.TrimSpace(value))) {
	case "", CredentialsSameOrigin:
		return CredentialsSameOrigin, nil
	case CredentialsInclude:
		return CredentialsInclude, nil
	case CredentialsOmit:
		return CredentialsOmit, nil
	default:
		return "", fmt.Errorf("unknown credentials mode %q", value)
	}
}

// Options are passed through to the transport as-is.
type Options struct {
	Method      string
	Header      http.Header
	Body        io.Reader
	Credentials Credentials
}

// Client executes guarded requests.
type Client struct {
	doer      Doer
	state     *loader.State
	limiter   *rate.Limiter
	userAgent string
	clock     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the default *http.Client.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithRateLimit paces requests. The wait happens while the loader is busy so
// queued work is visible. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets a User-Agent on requests that do not carry one.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// New returns a Client bound to state.
func New(state *loader.State, opts ...Option) *Client {
	c := &Client{
		doer:  &http.Client{Timeout: 30 * time.Second},
		state: state,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Loader returns the loading state the client drives.
func (c *Client) Loader() *loader.State {
	return c.state
}

// Execute performs one request against target.
//
// On a 2xx status the raw response is returned and the caller owns its body.
// A non-2xx status yields *StatusError and the body is closed. Transport
// errors, including context cancellation, are returned unchanged.
func (c *Client) Execute(ctx context.Context, target string, opts Options) (*http.Response, error) {
	if c == nil || c.state == nil {
		return nil, errors.New("fetch client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	release := c.state.Acquire()
	defer release()

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	start := c.clock()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			err = waitError(ctx, err)
			c.record(method, target, metrics.FetchOutcomeTransportError, 0, start, err)
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, opts.Body)
	if err != nil {
		c.record(method, target, metrics.FetchOutcomeTransportError, 0, start, err)
		return nil, err
	}
	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	doer := c.doer
	if opts.Credentials == CredentialsOmit {
		doer = withoutCredentials(doer, req)
	}

	resp, err := doer.Do(req)
	if err != nil {
		c.record(method, target, metrics.FetchOutcomeTransportError, 0, start, err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Method:     method,
			URL:        target,
		}
		discard(resp)
		c.record(method, target, metrics.FetchOutcomeHTTPError, resp.StatusCode, start, statusErr)
		return nil, statusErr
	}

	c.record(method, target, metrics.FetchOutcomeOK, resp.StatusCode, start, nil)
	return resp, nil
}

func (c *Client) record(method, target, outcome string, status int, start time.Time, err error) {
	elapsed := c.clock().Sub(start)
	metrics.RecordFetch(method, outcome, elapsed)

	logger := observability.Logger()
	if logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", target),
		zap.String("outcome", outcome),
		zap.Duration("duration", elapsed),
	}
	if status != 0 {
		fields = append(fields, zap.Int("status", status))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.Debug("Guarded fetch completed", fields...)
}

// withoutCredentials drops cookies and authorization for the call. A
// *http.Client with a cookie jar is shallow-copied without it.
func withoutCredentials(doer Doer, req *http.Request) Doer {
	req.Header.Del("Cookie")
	req.Header.Del("Authorization")

	if hc, ok := doer.(*http.Client); ok && hc.Jar != nil {
		copied := *hc
		copied.Jar = nil
		return &copied
	}
	return doer
}

// waitError reports a failed limiter wait as a context error. The limiter
// refuses early when the deadline cannot be met, before ctx.Err is set.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}
