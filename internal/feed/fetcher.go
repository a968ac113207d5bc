// Package feed downloads source payloads and extracts entries from them,
// tolerating the malformed documents that official outlets like to publish.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "ResilientOps-Watchdog/1.0"

// FetchKind classifies why a fetch failed.
type FetchKind string

const (
	FetchTimeout     FetchKind = "timeout"
	FetchHTTPStatus  FetchKind = "http_error"
	FetchTooLarge    FetchKind = "too_large"
	FetchUnreachable FetchKind = "unreachable"
)

// FetchError is returned for any failed source download. It is recoverable
// per source: the next poll cycle is the retry.
type FetchError struct {
	Kind   FetchKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	case FetchTooLarge:
		return fmt.Sprintf("fetch %s: payload exceeds byte cap", e.URL)
	default:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client performs bounded HTTP GETs against configured sources.
type Client struct {
	rest *resty.Client
}

// NewClient creates a feed client. Timeouts and byte caps are per call
// because the config is hot-reloaded between cycles.
func NewClient() *Client {
	rest := resty.New().
		SetHeader("User-Agent", userAgent).
		SetDoNotParseResponse(true)
	return &Client{rest: rest}
}

// HTTPClient exposes the underlying transport client for test interception.
func (c *Client) HTTPClient() *http.Client {
	return c.rest.GetClient()
}

// Fetch downloads up to maxBytes from url within timeout. There are no
// retries; a failed source is simply retried on the next cycle.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration, maxBytes int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.rest.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, classifyFetchErr(url, err)
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{Kind: FetchHTTPStatus, URL: url, Status: resp.StatusCode()}
	}

	data, err := io.ReadAll(io.LimitReader(body, int64(maxBytes)+1))
	if err != nil {
		return nil, classifyFetchErr(url, err)
	}
	if len(data) > maxBytes {
		return nil, &FetchError{Kind: FetchTooLarge, URL: url}
	}
	return data, nil
}

func classifyFetchErr(url string, err error) *FetchError {
	kind := FetchUnreachable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = FetchTimeout
	}
	return &FetchError{Kind: kind, URL: url, Err: err}
}
