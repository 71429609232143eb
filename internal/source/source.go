// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source queries scholarly-metadata providers and normalizes their
// results into PaperRecords. Two clients exist: Semantic Scholar (primary)
// and OpenAlex (fallback). Each client paces its own requests, retries a
// transient failure once, and surfaces rate limiting as a distinct
// condition so the coordinator can fail over.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/research-tracker/pkg/types"
)

// ErrRateLimited reports that the provider signalled request-quota
// exhaustion (HTTP 429). It triggers failover in the coordinator and is
// never a hard error by itself.
var ErrRateLimited = errors.New("provider rate limited")

// ErrUnavailable reports a transient failure (network error or 5xx) that
// persisted through the single bounded retry. The provider is considered
// down for the rest of this run.
var ErrUnavailable = errors.New("provider unavailable")

// Client searches a single metadata provider. Implementations normalize
// provider responses into PaperRecords carrying at least ProviderID,
// Source, Title, and CitationCount; optional fields are best effort and
// never fabricated.
type Client interface {
	Name() string
	Search(ctx context.Context, keyword string, minYear, limit int) ([]types.PaperRecord, error)
}

// validateQuery rejects malformed search input before any request is made.
func validateQuery(keyword string, minYear int) error {
	if strings.TrimSpace(keyword) == "" {
		return fmt.Errorf("keyword is empty")
	}
	if minYear < 1000 || minYear > 9999 {
		return fmt.Errorf("min year %d is not a four-digit year", minYear)
	}
	return nil
}

// clampLimit applies the default page size and the provider's page cap.
func clampLimit(limit, cap int) int {
	if limit <= 0 {
		limit = 100
	}
	if limit > cap {
		limit = cap
	}
	return limit
}

// pacer enforces a minimum interval between consecutive requests of one
// client. The wait is a blocking sleep, serializing that client's own
// traffic; it is a property of the client, not of the caller.
type pacer struct {
	interval time.Duration
	last     time.Time
}

func (p *pacer) wait(ctx context.Context) error {
	defer func() { p.last = time.Now() }()

	if p.interval <= 0 || p.last.IsZero() {
		return nil
	}
	remaining := p.interval - time.Since(p.last)
	if remaining <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
		return nil
	}
}

// classifyStatus maps a non-200 provider response to the error taxonomy:
// 429 is rate limiting, 5xx is transient exhaustion (the retry already
// happened below this point), anything else is permanent.
func classifyStatus(provider string, status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", provider, ErrRateLimited)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w: HTTP %d", provider, ErrUnavailable, status)
	default:
		return fmt.Errorf("%s returned HTTP %d", provider, status)
	}
}
