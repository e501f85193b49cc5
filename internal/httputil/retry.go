// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP request core shared by every
// provider adapter: bounded retries with exponential backoff and
// rate-limit awareness.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
)

// Options configures the retry behavior of a single request.
type Options struct {
	// MaxRetries bounds how many times a request is reissued after a
	// transport failure or HTTP 429 (default 3).
	MaxRetries int

	// BaseDelay is the backoff base. Transport retries wait BaseDelay,
	// 2×BaseDelay, 4×BaseDelay, …; a 429 without a Retry-After header
	// waits 2×BaseDelay. Default 1s. Tests use a tiny value to avoid
	// real sleeps.
	BaseDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = defaultBaseDelay
	}
	return o
}

// DoWithRetry executes an HTTP request with bounded retries.
//
// Transport-level failures (timeout, connection refused) are retried up
// to MaxRetries times with the delay doubling after each attempt; after
// the final attempt the transport error is returned. On HTTP 429 the
// Retry-After header is honored when present (else 2×BaseDelay), the
// body is drained, and the request is retried against the same
// MaxRetries ceiling; an exhausted 429 is returned as-is for the caller
// to inspect. Any other non-2xx status is a definite provider answer
// and is returned immediately without retrying.
//
// The request's own context bounds every attempt and every backoff
// wait; on cancellation the context error is returned.
func DoWithRetry(client *http.Client, req *http.Request, opts Options) (*http.Response, error) {
	opts = opts.withDefaults()
	ctx := req.Context()

	transportFailures := 0
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if attempt >= opts.MaxRetries {
				return nil, fmt.Errorf("request failed after %d retries: %w", opts.MaxRetries, err)
			}
			delay := opts.BaseDelay << transportFailures
			transportFailures++
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Exhausted retries: hand the 429 back to the caller.
		if attempt >= opts.MaxRetries {
			return resp, nil
		}

		wait := retryAfter(resp, 2*opts.BaseDelay)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// retryAfter returns the server-requested wait from a 429 response, or
// fallback when the header is absent or unparseable.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return fallback
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
