// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coordinate

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-tracker/internal/source"
	"github.com/pdiddy/research-tracker/internal/store"
	"github.com/pdiddy/research-tracker/pkg/types"
)

// scriptedClient returns canned records or errors per keyword and records
// the keywords it was asked for.
type scriptedClient struct {
	name    string
	records map[string][]types.PaperRecord
	errs    map[string]error
	calls   []string
}

func (c *scriptedClient) Name() string { return c.name }

func (c *scriptedClient) Search(_ context.Context, keyword string, _, _ int) ([]types.PaperRecord, error) {
	c.calls = append(c.calls, keyword)
	if err, ok := c.errs[keyword]; ok && err != nil {
		return nil, err
	}
	return c.records[keyword], nil
}

func paper(id string, src types.Source, citations int) types.PaperRecord {
	return types.PaperRecord{
		ProviderID:    id,
		Source:        src,
		Title:         "Paper " + id,
		CitationCount: citations,
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "papers.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAcquireOne_RankingAndDedup(t *testing.T) {
	// Pool: A(500), B(900), C(900), B discovered before C, A already
	// stored. Expected selection: B.
	st := newTestStore(t)
	ctx := context.Background()

	preexisting := paper("A", types.SourceSemanticScholar, 500)
	require.NoError(t, st.Insert(ctx, &preexisting))

	primary := &scriptedClient{
		name: "semantic_scholar",
		records: map[string][]types.PaperRecord{
			"robotics": {
				paper("A", types.SourceSemanticScholar, 500),
				paper("B", types.SourceSemanticScholar, 900),
				paper("C", types.SourceSemanticScholar, 900),
			},
		},
	}
	fallback := &scriptedClient{name: "openalex"}

	c := &Coordinator{Primary: primary, Fallback: fallback, Store: st}
	res, err := c.AcquireOne(ctx, []string{"robotics"}, 2024, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, StatusSelected, res.Status)
	require.NotNil(t, res.Selected)
	assert.Equal(t, "B", res.Selected.ProviderID, "highest citations, first tie-winner, duplicate excluded")
	assert.Equal(t, types.SourceSemanticScholar, res.SourceUsed)
	assert.Empty(t, fallback.calls, "no failover on success")

	ok, err := st.Exists(ctx, "B", types.SourceSemanticScholar)
	require.NoError(t, err)
	assert.True(t, ok, "selection stored in the same call")
}

func TestAcquireOne_FailoverOnRateLimit(t *testing.T) {
	// Primary rate-limits on the first keyword with the pool empty; the
	// whole remaining run must use the fallback.
	st := newTestStore(t)

	primary := &scriptedClient{
		name: "semantic_scholar",
		errs: map[string]error{
			"robotics": fmt.Errorf("semantic_scholar: %w", source.ErrRateLimited),
		},
	}
	fallback := &scriptedClient{
		name: "openalex",
		records: map[string][]types.PaperRecord{
			"robotics": {paper("W1", types.SourceOpenAlex, 10)},
			"battery":  {paper("W2", types.SourceOpenAlex, 99)},
		},
	}

	c := &Coordinator{Primary: primary, Fallback: fallback, Store: st}
	res, err := c.AcquireOne(context.Background(), []string{"robotics", "battery"}, 2024, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"robotics"}, primary.calls, "primary abandoned after the signal")
	assert.Equal(t, []string{"robotics", "battery"}, fallback.calls, "remaining set dispatched to fallback")
	assert.Equal(t, StatusSelected, res.Status)
	assert.Equal(t, types.SourceOpenAlex, res.SourceUsed)
	require.NotNil(t, res.Selected)
	assert.Equal(t, "W2", res.Selected.ProviderID)
}

func TestAcquireOne_ZeroResultsIsNotAFailoverTrigger(t *testing.T) {
	st := newTestStore(t)

	primary := &scriptedClient{
		name: "semantic_scholar",
		records: map[string][]types.PaperRecord{
			"robotics": {},
			"battery":  {paper("B1", types.SourceSemanticScholar, 5)},
		},
	}
	fallback := &scriptedClient{name: "openalex"}

	c := &Coordinator{Primary: primary, Fallback: fallback, Store: st}
	res, err := c.AcquireOne(context.Background(), []string{"robotics", "battery"}, 2024, io.Discard)
	require.NoError(t, err)

	assert.Empty(t, fallback.calls)
	assert.Equal(t, StatusSelected, res.Status)
	assert.Equal(t, types.SourceSemanticScholar, res.SourceUsed)
}

func TestAcquireOne_TransientWithPoolKeepsPrimaryResults(t *testing.T) {
	// Once candidates are in the pool, a later transient failure skips
	// that keyword instead of failing over.
	st := newTestStore(t)

	primary := &scriptedClient{
		name: "semantic_scholar",
		records: map[string][]types.PaperRecord{
			"robotics": {paper("B1", types.SourceSemanticScholar, 50)},
		},
		errs: map[string]error{
			"battery": fmt.Errorf("semantic_scholar: %w", source.ErrUnavailable),
		},
	}
	fallback := &scriptedClient{name: "openalex"}

	c := &Coordinator{Primary: primary, Fallback: fallback, Store: st}
	res, err := c.AcquireOne(context.Background(), []string{"robotics", "battery"}, 2024, io.Discard)
	require.NoError(t, err)

	assert.Empty(t, fallback.calls, "pool-level failover only fires on an empty pool")
	assert.Equal(t, StatusSelected, res.Status)
	assert.Equal(t, "B1", res.Selected.ProviderID)
	assert.NotEmpty(t, res.Notes)
}

func TestAcquireOne_PermanentFailureSkipsKeywordOnly(t *testing.T) {
	st := newTestStore(t)

	primary := &scriptedClient{
		name: "semantic_scholar",
		errs: map[string]error{
			"robotics": fmt.Errorf("semantic_scholar returned HTTP 400"),
		},
		records: map[string][]types.PaperRecord{
			"battery": {paper("B1", types.SourceSemanticScholar, 7)},
		},
	}
	fallback := &scriptedClient{name: "openalex"}

	c := &Coordinator{Primary: primary, Fallback: fallback, Store: st}
	res, err := c.AcquireOne(context.Background(), []string{"robotics", "battery"}, 2024, io.Discard)
	require.NoError(t, err)

	assert.Empty(t, fallback.calls, "permanent failures do not trigger failover")
	assert.Equal(t, []string{"robotics", "battery"}, primary.calls)
	assert.Equal(t, StatusSelected, res.Status)
}

func TestAcquireOne_NoNewPapersIsNormal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	stored := paper("B1", types.SourceSemanticScholar, 50)
	require.NoError(t, st.Insert(ctx, &stored))
	before, err := st.CountAll(ctx)
	require.NoError(t, err)

	primary := &scriptedClient{
		name: "semantic_scholar",
		records: map[string][]types.PaperRecord{
			"robotics": {paper("B1", types.SourceSemanticScholar, 50)},
		},
	}

	c := &Coordinator{Primary: primary, Fallback: &scriptedClient{name: "openalex"}, Store: st}
	res, err := c.AcquireOne(ctx, []string{"robotics"}, 2024, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, StatusNoNewPapers, res.Status)
	assert.Nil(t, res.Selected)

	after, err := st.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "nothing inserted")
}

func TestAcquireOne_BothProvidersDownIsFailure(t *testing.T) {
	st := newTestStore(t)

	primary := &scriptedClient{
		name: "semantic_scholar",
		errs: map[string]error{
			"robotics": fmt.Errorf("semantic_scholar: %w", source.ErrRateLimited),
		},
	}
	fallback := &scriptedClient{
		name: "openalex",
		errs: map[string]error{
			"robotics": fmt.Errorf("openalex: %w", source.ErrUnavailable),
		},
	}

	c := &Coordinator{Primary: primary, Fallback: fallback, Store: st}
	res, err := c.AcquireOne(context.Background(), []string{"robotics", "battery"}, 2024, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Selected)
	assert.Len(t, res.Notes, 2)
}

func TestAcquireOne_AllPermanentFailuresIsFailure(t *testing.T) {
	st := newTestStore(t)

	primary := &scriptedClient{
		name: "semantic_scholar",
		errs: map[string]error{
			"robotics": fmt.Errorf("semantic_scholar returned HTTP 400"),
			"battery":  fmt.Errorf("semantic_scholar returned HTTP 400"),
		},
	}

	c := &Coordinator{Primary: primary, Fallback: &scriptedClient{name: "openalex"}, Store: st}
	res, err := c.AcquireOne(context.Background(), []string{"robotics", "battery"}, 2024, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
}

// racingStore simulates losing an insert race: Exists says absent but the
// first insert hits the uniqueness constraint.
type racingStore struct {
	*store.Store
	raced bool
}

func (r *racingStore) Insert(ctx context.Context, rec *types.PaperRecord) error {
	if !r.raced {
		r.raced = true
		return fmt.Errorf("%w: %s/%s", store.ErrDuplicate, rec.Source, rec.ProviderID)
	}
	return r.Store.Insert(ctx, rec)
}

func TestAcquireOne_DuplicateRaceIsBenign(t *testing.T) {
	st := newTestStore(t)

	primary := &scriptedClient{
		name: "semantic_scholar",
		records: map[string][]types.PaperRecord{
			"robotics": {
				paper("B1", types.SourceSemanticScholar, 90),
				paper("B2", types.SourceSemanticScholar, 40),
			},
		},
	}

	c := &Coordinator{Primary: primary, Fallback: &scriptedClient{name: "openalex"}, Store: &racingStore{Store: st}}
	res, err := c.AcquireOne(context.Background(), []string{"robotics"}, 2024, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, StatusSelected, res.Status)
	assert.Equal(t, "B2", res.Selected.ProviderID, "losing the race moves on to the next candidate")
}

func TestAcquireOne_RequiresKeywords(t *testing.T) {
	c := &Coordinator{
		Primary:  &scriptedClient{name: "semantic_scholar"},
		Fallback: &scriptedClient{name: "openalex"},
		Store:    newTestStore(t),
	}
	_, err := c.AcquireOne(context.Background(), nil, 2024, io.Discard)
	assert.Error(t, err)
}
