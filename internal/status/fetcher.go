// Package status fetches the countdown status page and interprets its contents.
package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

const maxBodySize = 1 << 20 // 1MB

var (
	// ErrTransport wraps any failure to obtain a response at all.
	ErrTransport = errors.New("status fetch failed")
	// ErrMarkerNotFound is returned by ExtractStatus when the page has no status heading.
	ErrMarkerNotFound = errors.New("countdown status marker not found")
)

var markerRe = regexp.MustCompile(`<h1>COUNTDOWN STATUS: ([^<]+)</h1>`)

// Kind classifies a completed HTTP exchange.
type Kind int

const (
	// KindOK is a 200 response with a non-empty body.
	KindOK Kind = iota
	// KindEmptyBody is a 200 response with nothing in it.
	KindEmptyBody
	// KindHTTPError is any non-200 response.
	KindHTTPError
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindEmptyBody:
		return "empty_body"
	case KindHTTPError:
		return "http_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of a fetch that produced an HTTP response.
type Result struct {
	Kind       Kind
	Body       string
	StatusCode int
	// Reason is the standard text for StatusCode, e.g. "Service Unavailable".
	Reason string
	// Truncated reports that Body was cut at maxBodySize.
	Truncated bool
}

// Fetcher performs a single GET against the status page. It never retries.
type Fetcher struct {
	url        string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher for url. A non-positive timeout disables the
// per-request deadline.
func NewFetcher(url string, timeout time.Duration) *Fetcher {
	c := &http.Client{}
	if timeout > 0 {
		c.Timeout = timeout
	}
	return &Fetcher{url: url, httpClient: c}
}

// URL returns the status page address.
func (f *Fetcher) URL() string { return f.url }

// Fetch requests the status page. Transport-level failures are returned as an
// error wrapping ErrTransport; every received response is classified in Result.
func (f *Fetcher) Fetch(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return Result{Kind: KindHTTPError, StatusCode: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	if len(body) == 0 {
		return Result{Kind: KindEmptyBody, StatusCode: resp.StatusCode}, nil
	}
	truncated := len(body) > maxBodySize
	if truncated {
		body = body[:maxBodySize]
	}
	return Result{Kind: KindOK, Body: string(body), StatusCode: resp.StatusCode, Truncated: truncated}, nil
}

// ExtractStatus returns the text inside the first <h1>COUNTDOWN STATUS: ...</h1>
// heading of body.
func ExtractStatus(body string) (string, error) {
	m := markerRe.FindStringSubmatch(body)
	if m == nil {
		return "", ErrMarkerNotFound
	}
	return m[1], nil
}
