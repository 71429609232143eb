// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-tracker/internal/store"
	"github.com/pdiddy/research-tracker/pkg/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "papers.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertEnriched(t *testing.T, st *store.Store, id string) {
	t.Helper()
	ctx := context.Background()
	rec := types.PaperRecord{
		ProviderID:    id,
		Source:        types.SourceSemanticScholar,
		Title:         "Paper " + id,
		Authors:       []string{"A. Author", "B. Author"},
		Year:          2025,
		Venue:         "NeurIPS",
		CitationCount: 42,
		URL:           "https://arxiv.org/abs/" + id,
	}
	require.NoError(t, st.Insert(ctx, &rec))
	require.NoError(t, st.MarkEnriched(ctx, id, rec.Source, "summary of "+id, "commentary on "+id))
}

func TestExportAll_WritesDigestAndSidecar(t *testing.T) {
	st := newTestStore(t)
	insertEnriched(t, st, "2501.01234")

	dir := t.TempDir()
	e := &Exporter{Store: st, OutputDir: dir}

	sum, err := e.ExportAll(context.Background(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, Summary{Published: 1}, sum)

	digest, err := os.ReadFile(filepath.Join(dir, "semantic_scholar-2501.01234.md"))
	require.NoError(t, err)
	assert.Contains(t, string(digest), "# Paper 2501.01234")
	assert.Contains(t, string(digest), "A. Author, B. Author")
	assert.Contains(t, string(digest), "NeurIPS (2025)")
	assert.Contains(t, string(digest), "## Summary\n\nsummary of 2501.01234")
	assert.Contains(t, string(digest), "## Investment Commentary\n\ncommentary on 2501.01234")

	raw, err := os.ReadFile(filepath.Join(dir, "semantic_scholar-2501.01234.yaml"))
	require.NoError(t, err)
	var meta sidecarMeta
	require.NoError(t, yaml.Unmarshal(raw, &meta))
	assert.Equal(t, "2501.01234", meta.ProviderID)
	assert.Equal(t, "semantic_scholar", meta.Source)
	assert.Equal(t, 42, meta.Citations)
}

func TestExportAll_MarksPublished(t *testing.T) {
	st := newTestStore(t)
	insertEnriched(t, st, "P1")
	ctx := context.Background()

	e := &Exporter{Store: st, OutputDir: t.TempDir()}

	_, err := e.ExportAll(ctx, io.Discard)
	require.NoError(t, err)

	pending, err := st.Publishable(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "published papers leave the queue")

	sum, err := e.ExportAll(ctx, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum, "second run is a no-op")
}

func TestExportAll_UnprocessedPapersAreNotPublishable(t *testing.T) {
	st := newTestStore(t)
	rec := types.PaperRecord{ProviderID: "RAW", Source: types.SourceOpenAlex, Title: "Raw"}
	require.NoError(t, st.Insert(context.Background(), &rec))

	e := &Exporter{Store: st, OutputDir: t.TempDir()}
	sum, err := e.ExportAll(context.Background(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

// failingStore fails MarkPublished for one key to exercise the per-paper
// failure accounting.
type failingStore struct {
	*store.Store
	failID string
}

func (f *failingStore) MarkPublished(ctx context.Context, providerID string, source types.Source) error {
	if providerID == f.failID {
		return fmt.Errorf("disk full")
	}
	return f.Store.MarkPublished(ctx, providerID, source)
}

func TestExportAll_PerPaperFailureIsCountedNotFatal(t *testing.T) {
	st := newTestStore(t)
	insertEnriched(t, st, "OK")
	insertEnriched(t, st, "BAD")

	e := &Exporter{Store: &failingStore{Store: st, failID: "BAD"}, OutputDir: t.TempDir()}

	sum, err := e.ExportAll(context.Background(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Published)
	assert.Equal(t, 1, sum.Failed)
}

func TestExportAll_RequiresConfiguration(t *testing.T) {
	_, err := (&Exporter{OutputDir: t.TempDir()}).ExportAll(context.Background(), io.Discard)
	assert.Error(t, err)

	_, err = (&Exporter{Store: newTestStore(t)}).ExportAll(context.Background(), io.Discard)
	assert.Error(t, err)
}

func TestDigestBasename_SanitizesProviderID(t *testing.T) {
	p := &types.PaperRecord{ProviderID: "W12/34:56", Source: types.SourceOpenAlex}
	assert.Equal(t, "openalex-W12-34-56", digestBasename(p))
}
