package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default client settings. Overridable via options.
const (
	// DefaultTimeout bounds one fetch attempt, not the whole run.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	// 10MB covers ordinary HTML pages with a wide margin.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultUserAgent identifies the crawler in request logs.
	DefaultUserAgent = "scuttle/1.0 (+https://github.com/scuttlekit/scuttle)"
)

// Response is one fetched page: status, headers, and a size-capped
// body. It carries no interpretation; acceptance is the validator's
// decision and extraction is the rules'.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Headers are the response headers.
	Headers http.Header

	// Body is the response body, truncated at the client's body cap.
	Body string
}

// ContentType returns the response Content-Type header value.
func (r Response) ContentType() string {
	return r.Headers.Get("Content-Type")
}

// TransportError is a transient network failure: DNS, connect, TLS,
// timeout, or a broken body read. These are the only errors the
// crawler retries.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client fetches pages with a per-attempt timeout and a response body
// cap. Safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	timeout     time.Duration
	maxBodySize int64
	userAgent   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxBodySize caps the response body size in bytes.
func WithMaxBodySize(size int64) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client, mainly for
// tests and proxy setups.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs one GET attempt. Network failures come back as
// *TransportError; any received HTTP response, success or error
// status, is returned as a Response for the validator to judge.
func (c *Client) Fetch(ctx context.Context, url string) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return Response{}, &TransportError{URL: url, Err: err}
	}

	return Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    string(body),
	}, nil
}
