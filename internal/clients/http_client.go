package clients

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

const (
	defaultHTTPTimeout      = 9 * time.Second
	defaultMaxResponseBytes = 2 * 1024 * 1024
)

// HTTPClient performs script HTTP requests and buffers their responses.
type HTTPClient struct {
	httpClient       *http.Client
	timeout          time.Duration
	maxResponseBytes int64
}

// NewHTTPClient creates a client with the default 9s timeout and 2 MiB response cap.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		httpClient:       &http.Client{},
		timeout:          defaultHTTPTimeout,
		maxResponseBytes: defaultMaxResponseBytes,
	}
}

// WithTimeout overrides the per-request timeout.
func (c *HTTPClient) WithTimeout(d time.Duration) *HTTPClient {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// WithMaxResponseBytes overrides the response body cap.
func (c *HTTPClient) WithMaxResponseBytes(n int64) *HTTPClient {
	if n > 0 {
		c.maxResponseBytes = n
	}
	return c
}

// MakeHTTPRequest issues a single request. Transport failures are wrapped in
// domain.ErrNetworkFailure; any status code is returned as a response.
func (c *HTTPClient) MakeHTTPRequest(ctx context.Context, r entity.HTTPRequest) (*entity.HTTPResponse, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse url %q", r.URL)
	}
	if len(r.Params) > 0 {
		q := u.Query()
		for k, v := range r.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	timeout := c.timeout
	if r.Timeout > 0 && r.Timeout < timeout {
		timeout = r.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrNetworkFailure, "%s %s: %v", method, u.Redacted(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		return nil, errors.Wrapf(domain.ErrNetworkFailure, "read response body: %v", err)
	}
	if int64(len(data)) > c.maxResponseBytes {
		return nil, errors.Wrapf(domain.ErrLimitExceeded, "response body exceeds %d bytes", c.maxResponseBytes)
	}

	return &entity.HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Data:       data,
	}, nil
}
