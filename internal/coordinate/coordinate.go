// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coordinate drives the source clients in priority order, ranks
// the gathered candidates by citation count, and stores the first one not
// already present. One acquisition run yields at most one new paper.
package coordinate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/research-tracker/internal/source"
	"github.com/pdiddy/research-tracker/internal/store"
	"github.com/pdiddy/research-tracker/pkg/types"
)

// Status classifies the outcome of an acquisition run.
type Status string

const (
	// StatusSelected means a new paper was chosen and stored.
	StatusSelected Status = "selected"

	// StatusNoNewPapers means every gathered candidate is already stored.
	// A normal outcome, not an error.
	StatusNoNewPapers Status = "no_new_papers"

	// StatusFailed means no candidates could be gathered because the
	// providers were unavailable, or storage itself failed.
	StatusFailed Status = "failed"
)

// Result is the outcome of one acquisition run.
type Result struct {
	// Selected is the stored paper, nil unless Status is StatusSelected.
	Selected *types.PaperRecord

	// SourceUsed names the provider that supplied the selection.
	SourceUsed types.Source

	// Status classifies the run outcome.
	Status Status

	// Notes collects provider failures observed along the way, for logs.
	Notes []string
}

// PaperStore is the slice of the store contract the coordinator needs.
type PaperStore interface {
	Exists(ctx context.Context, providerID string, source types.Source) (bool, error)
	Insert(ctx context.Context, rec *types.PaperRecord) error
}

// Coordinator gathers candidates from the primary client, failing over to
// the fallback when the primary signals rate limiting or unavailability
// while the pool is still empty.
type Coordinator struct {
	Primary  source.Client
	Fallback source.Client
	Store    PaperStore

	// Limit is the page size requested per keyword query.
	Limit int
}

// AcquireOne runs one acquisition cycle over the keyword set. Selection
// and insert happen in the same call, so a selection is always durably
// recorded. The returned error covers misconfiguration only; operational
// failures are reported through Result.Status.
func (c *Coordinator) AcquireOne(ctx context.Context, keywords []string, minYear int, w io.Writer) (Result, error) {
	if c.Primary == nil || c.Fallback == nil || c.Store == nil {
		return Result{}, fmt.Errorf("coordinator is missing a client or store")
	}
	if len(keywords) == 0 {
		return Result{}, fmt.Errorf("no keywords configured")
	}

	res := Result{}
	pool, anySucceeded := c.gatherPool(ctx, keywords, minYear, &res, w)

	if res.Status == StatusFailed {
		return res, nil
	}
	if len(pool) == 0 && !anySucceeded {
		// Every query errored and nothing was gathered.
		res.Status = StatusFailed
		return res, nil
	}

	return c.selectAndStore(ctx, pool, res, w), nil
}

// gatherPool queries the keyword set, switching the entire remaining set
// to the fallback client on the first rate-limit or transient signal seen
// while the pool is empty. Zero results is not a failure trigger.
func (c *Coordinator) gatherPool(ctx context.Context, keywords []string, minYear int, res *Result, w io.Writer) (pool []types.PaperRecord, anySucceeded bool) {
	client := c.Primary
	failedOver := false

	for i := 0; i < len(keywords); i++ {
		kw := keywords[i]
		records, err := client.Search(ctx, kw, minYear, c.Limit)
		if err == nil {
			anySucceeded = true
			pool = append(pool, records...)
			fmt.Fprintf(w, "%s: %q returned %d candidates\n", client.Name(), kw, len(records))
			continue
		}

		note := fmt.Sprintf("%s: %q: %v", client.Name(), kw, err)
		res.Notes = append(res.Notes, note)
		fmt.Fprintf(w, "warning: %s\n", note)

		if !isFailoverSignal(err) {
			// Permanent failure: skip this keyword only.
			continue
		}

		if len(pool) > 0 {
			// Failover is pool-level; with candidates in hand the run
			// proceeds and the failed keyword is skipped.
			continue
		}

		if failedOver {
			// The fallback is down too and no third provider exists.
			res.Status = StatusFailed
			return nil, anySucceeded
		}

		// Switch the remaining keyword set, this one included, to the
		// fallback client.
		failedOver = true
		client = c.Fallback
		fmt.Fprintf(w, "failing over to %s for the rest of this run\n", client.Name())
		i--
	}

	return pool, anySucceeded
}

// selectAndStore ranks the pool by citation count (stable: first-seen
// wins ties) and stores the first candidate whose dedup key is absent.
func (c *Coordinator) selectAndStore(ctx context.Context, pool []types.PaperRecord, res Result, w io.Writer) Result {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].CitationCount > pool[j].CitationCount
	})

	for i := range pool {
		candidate := pool[i]

		exists, err := c.Store.Exists(ctx, candidate.ProviderID, candidate.Source)
		if err != nil {
			res.Notes = append(res.Notes, fmt.Sprintf("store: %v", err))
			res.Status = StatusFailed
			return res
		}
		if exists {
			continue
		}

		if err := c.Store.Insert(ctx, &candidate); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				// A concurrent run won the race for this key. Benign:
				// keep scanning.
				fmt.Fprintf(w, "duplicate insert for %s/%s, skipping\n", candidate.Source, candidate.ProviderID)
				continue
			}
			res.Notes = append(res.Notes, fmt.Sprintf("store: %v", err))
			res.Status = StatusFailed
			return res
		}

		fmt.Fprintf(w, "selected %q (%s/%s, %d citations)\n",
			candidate.Title, candidate.Source, candidate.ProviderID, candidate.CitationCount)
		res.Selected = &candidate
		res.SourceUsed = candidate.Source
		res.Status = StatusSelected
		return res
	}

	fmt.Fprintln(w, "no new papers: every candidate is already stored")
	res.Status = StatusNoNewPapers
	return res
}

// isFailoverSignal reports whether the error should trigger pool-level
// failover: rate limiting or a transient failure that outlived its retry.
func isFailoverSignal(err error) bool {
	return errors.Is(err, source.ErrRateLimited) || errors.Is(err, source.ErrUnavailable)
}
