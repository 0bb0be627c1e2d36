// Package probe implements the HTTP probe step (spec.md section 4.2): a
// zero-length ranged GET that determines a Task's total size, whether the
// server honors byte ranges, and the final URL after redirects.
// Grounded on the teacher's internal/engine/probe.go, generalized to the
// spec's 10-hop redirect cap and 5-attempt/500ms-base backoff schedule.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tthsd/engine/internal/backoff"
	"github.com/tthsd/engine/internal/config"
	"github.com/tthsd/engine/internal/tthsderr"
)

// Result holds everything the Task runtime needs to decide how to plan and
// fetch the download.
type Result struct {
	FinalURL      string
	TotalSize     int64 // -1 when unknown
	SupportsRange bool
	StatusCode    int
	Header        http.Header
}

// Client is the transport a probe runs over; tests inject an *http.Client
// pointed at an httptest.Server, built via NewClient.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

var errTooManyRedirects = errors.New("probe: redirect cap exceeded")

// NewClient builds an *http.Client that caps redirect following at
// config.MaxRedirects hops, surfacing errTooManyRedirects when exceeded.
func NewClient(base *http.Transport) *http.Client {
	return &http.Client{
		Transport: base,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > config.MaxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}
}

// Probe issues a zero-length ranged GET (Range: bytes=0-0); retries every
// failed attempt other than an exceeded redirect cap (connect error, 5xx and
// timeout, but also 4xx and 416 responses) with the shared backoff schedule
// up to config.DefaultMaxTaskRetries attempts before giving up with
// tthsderr.ErrProbeFailed (spec.md section 4.2).
func Probe(ctx context.Context, client Client, rawurl, userAgent string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < config.DefaultMaxTaskRetries; attempt++ {
		if attempt > 0 {
			backoff.Default.Sleep(attempt, ctx.Done())
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}

		res, err := doProbe(ctx, client, rawurl, userAgent)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, errTooManyRedirects) {
			return nil, tthsderr.ErrTooManyRedirects
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", tthsderr.ErrProbeFailed, lastErr)
}

func doProbe(ctx context.Context, client Client, rawurl, userAgent string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("Range", "bytes=0-0")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, errTooManyRedirects) {
			return nil, errTooManyRedirects
		}
		return nil, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	finalURL := rawurl
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	result := &Result{FinalURL: finalURL, StatusCode: resp.StatusCode, Header: resp.Header, TotalSize: -1}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		result.SupportsRange = true
		if cr := resp.Header.Get("Content-Range"); cr != "" {
			if idx := strings.LastIndex(cr, "/"); idx != -1 {
				sizeStr := cr[idx+1:]
				if sizeStr != "*" {
					if n, err := strconv.ParseInt(sizeStr, 10, 64); err == nil {
						result.TotalSize = n
					}
				}
			}
		}
	case http.StatusOK:
		// Server ignored the Range header and sent the full body: range
		// support is absent, triggering the single-stream fallback
		// (spec.md section 4.2).
		result.SupportsRange = false
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
				result.TotalSize = n
			}
		}
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, fmt.Errorf("range not satisfiable")
	default:
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("server error: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("unexpected probe status: %d", resp.StatusCode)
	}

	if ar := resp.Header.Get("Accept-Ranges"); ar == "bytes" {
		result.SupportsRange = true
	}

	return result, nil
}
