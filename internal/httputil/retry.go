// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across pipeline stages.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RetryPolicy bounds retries of transient HTTP failures. A transient
// failure is a network error or a 5xx response; everything else is
// returned to the caller as-is. Rate-limit responses (429) are never
// retried here; the acquisition coordinator treats them as a failover
// signal, so they must surface immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first
	// (default 2: one call plus one retry).
	MaxAttempts int

	// Delay is the fixed wait before each retry (default 5s).
	Delay time.Duration
}

const (
	defaultMaxAttempts = 2
	defaultRetryDelay  = 5 * time.Second
)

// Do executes an HTTP request under the retry policy. On a transient
// failure it drains the response body, waits the fixed delay, and retries
// until attempts are exhausted; the last error or 5xx response is then
// returned. If the context is cancelled during the wait, ctx.Err() is
// returned.
func Do(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	delay := policy.Delay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 1; ; attempt++ {
		resp, err = client.Do(req.Clone(ctx))
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		if attempt >= maxAttempts {
			return resp, err
		}

		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
