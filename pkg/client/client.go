// Package client talks to an irscope backend over HTTP.
//
// It is used by the explorer when a --server URL is given, and decodes the
// same [pipeline.Response] the backend produces in-process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/irscope/pkg/diagnostics"
	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/httputil"
	"github.com/matzehuels/irscope/pkg/observability"
	"github.com/matzehuels/irscope/pkg/pipeline"
)

const httpTimeout = 30 * time.Second

// Client is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	policy httputil.Policy
}

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry replaces the retry policy.
func WithRetry(p httputil.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// New returns a client for the backend at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse server URL")
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: httpTimeout},
		policy: httputil.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request selects what [Client.Convert] asks for.
type Request struct {
	// Language is sent as lang; empty uses the server's default.
	Language string
	Offsets  bool
	// Format is mermaid (default) or class.
	Format string
}

// IsAlive probes GET /api/isalive.
func (c *Client) IsAlive(ctx context.Context) error {
	err := c.policy.Do(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, "/api/isalive", nil, nil)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err := io.ReadAll(body)
		if err != nil {
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read response")}
		}
		if strings.TrimSpace(string(data)) != "OK" {
			return errors.New(errors.ErrCodeNetwork, "unexpected liveness answer %q", data)
		}
		return nil
	})
	return c.finish(ctx, err)
}

// Convert posts src to /api/convert. Analysis failures come back as a
// response with a nil MermaidGraph, not as an error.
func (c *Client) Convert(ctx context.Context, src []byte, req Request) (*pipeline.Response, error) {
	q := url.Values{}
	q.Set("withOffsetComment", strconv.FormatBool(req.Offsets))
	if req.Language != "" {
		q.Set("lang", req.Language)
	}
	if req.Format != "" {
		q.Set("format", req.Format)
	}

	var resp pipeline.Response
	err := c.policy.Do(ctx, func() error {
		body, err := c.do(ctx, http.MethodPost, "/api/convert", q, src)
		if err != nil {
			return err
		}
		defer body.Close()
		resp = pipeline.Response{}
		if err := json.NewDecoder(body).Decode(&resp); err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "decode response")
		}
		return nil
	})
	if err := c.finish(ctx, err); err != nil {
		return nil, err
	}
	if resp.Messages == nil {
		resp.Messages = []diagnostics.Diagnostic{}
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload []byte) (io.ReadCloser, error) {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = q.Encode()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, u.Host, u.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return nil, contextError(ctx)
		}
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, u.Path)}
	}
	hooks.OnResponse(ctx, method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp.StatusCode); err != nil {
		defer resp.Body.Close()
		return nil, statusError(resp, err)
	}
	return resp.Body, nil
}

// statusError turns the server's {"error","code"} body into a coded error,
// keeping the retry marker of cause.
func statusError(resp *http.Response, cause error) error {
	var body struct {
		Error string      `json:"error"`
		Code  errors.Code `json:"code"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var err error
	if json.Unmarshal(data, &body) == nil && body.Code != "" {
		err = errors.Wrap(body.Code, cause, "%s", body.Error)
	} else {
		err = errors.Wrap(errors.ErrCodeNetwork, cause, "server answered %d", resp.StatusCode)
	}
	if stderrors.As(cause, new(*httputil.RetryableError)) {
		return &httputil.RetryableError{Err: err}
	}
	return err
}

// finish strips the retry marker and codes a finished context.
func (c *Client) finish(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.GetCode(err) == "" {
		return contextError(ctx)
	}
	var re *httputil.RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}

func contextError(ctx context.Context) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "request timed out")
	}
	return errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "request canceled")
}

// String returns the base URL.
func (c *Client) String() string { return c.base.String() }
