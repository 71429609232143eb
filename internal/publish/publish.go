// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish renders enriched papers into Markdown digests for
// downstream distribution. Each paper produces a digest plus a YAML
// metadata sidecar; a successful export marks the row published so the
// next run skips it.
package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-tracker/pkg/types"
)

// PaperStore is the slice of the store contract the exporter needs.
type PaperStore interface {
	Publishable(ctx context.Context) ([]types.PaperRecord, error)
	MarkPublished(ctx context.Context, providerID string, source types.Source) error
}

// Summary counts the outcome of one export run.
type Summary struct {
	Published int
	Failed    int
}

// Exporter writes one digest file per publishable paper.
type Exporter struct {
	Store     PaperStore
	OutputDir string
}

// ExportAll exports every enriched, not-yet-published paper. Per-paper
// failures are counted and logged but do not stop the run; the returned
// error covers setup problems only.
func (e *Exporter) ExportAll(ctx context.Context, w io.Writer) (Summary, error) {
	if e.Store == nil {
		return Summary{}, fmt.Errorf("exporter is missing a store")
	}
	if e.OutputDir == "" {
		return Summary{}, fmt.Errorf("no output directory configured")
	}
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory: %w", err)
	}

	papers, err := e.Store.Publishable(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing publishable papers: %w", err)
	}
	if len(papers) == 0 {
		fmt.Fprintln(w, "nothing to publish")
		return Summary{}, nil
	}

	var sum Summary
	for i := range papers {
		p := &papers[i]
		if err := e.exportOne(ctx, p); err != nil {
			sum.Failed++
			fmt.Fprintf(w, "warning: exporting %s/%s failed: %v\n", p.Source, p.ProviderID, err)
			continue
		}
		sum.Published++
		fmt.Fprintf(w, "published %q\n", p.Title)
	}
	return sum, nil
}

func (e *Exporter) exportOne(ctx context.Context, p *types.PaperRecord) error {
	base := digestBasename(p)

	digest := renderDigest(p)
	if err := os.WriteFile(filepath.Join(e.OutputDir, base+".md"), []byte(digest), 0o644); err != nil {
		return fmt.Errorf("writing digest: %w", err)
	}

	meta, err := yaml.Marshal(sidecar(p))
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(e.OutputDir, base+".yaml"), meta, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	if err := e.Store.MarkPublished(ctx, p.ProviderID, p.Source); err != nil {
		return fmt.Errorf("marking published: %w", err)
	}
	return nil
}

// digestBasename derives a filesystem-safe name from the dedup key.
func digestBasename(p *types.PaperRecord) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, p.ProviderID)
	return fmt.Sprintf("%s-%s", p.Source, id)
}

func renderDigest(p *types.PaperRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	if len(p.Authors) > 0 {
		fmt.Fprintf(&b, "**Authors:** %s\n\n", strings.Join(p.Authors, ", "))
	}
	if p.Venue != "" {
		fmt.Fprintf(&b, "**Venue:** %s (%d)\n\n", p.Venue, p.Year)
	} else if p.Year > 0 {
		fmt.Fprintf(&b, "**Year:** %d\n\n", p.Year)
	}
	fmt.Fprintf(&b, "**Citations:** %d\n\n", p.CitationCount)
	if p.URL != "" {
		fmt.Fprintf(&b, "**Link:** %s\n\n", p.URL)
	}

	fmt.Fprintf(&b, "## Summary\n\n%s\n\n", p.Summary)
	fmt.Fprintf(&b, "## Investment Commentary\n\n%s\n", p.InvestmentCommentary)

	return b.String()
}

// sidecarMeta is the YAML metadata written next to each digest.
type sidecarMeta struct {
	ProviderID string   `yaml:"provider_id"`
	Source     string   `yaml:"source"`
	Title      string   `yaml:"title"`
	Authors    []string `yaml:"authors,omitempty"`
	Year       int      `yaml:"year,omitempty"`
	Venue      string   `yaml:"venue,omitempty"`
	Citations  int      `yaml:"citations"`
	URL        string   `yaml:"url,omitempty"`
	PDFURL     string   `yaml:"pdf_url,omitempty"`
	FetchedAt  string   `yaml:"fetched_at,omitempty"`
}

func sidecar(p *types.PaperRecord) sidecarMeta {
	m := sidecarMeta{
		ProviderID: p.ProviderID,
		Source:     string(p.Source),
		Title:      p.Title,
		Authors:    p.Authors,
		Year:       p.Year,
		Venue:      p.Venue,
		Citations:  p.CitationCount,
		URL:        p.URL,
		PDFURL:     p.PDFURL,
	}
	if !p.FetchedAt.IsZero() {
		m.FetchedAt = p.FetchedAt.UTC().Format(time.RFC3339)
	}
	return m
}
