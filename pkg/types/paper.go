// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-tracker pipeline.
package types

import "time"

// Source identifies the metadata provider a paper came from. The pipeline
// queries a closed set of two providers: Semantic Scholar is the primary,
// OpenAlex the fallback.
type Source string

const (
	// SourceSemanticScholar is the primary metadata provider.
	SourceSemanticScholar Source = "semantic_scholar"

	// SourceOpenAlex is the fallback metadata provider.
	SourceOpenAlex Source = "openalex"
)

// PaperRecord is the unit of work flowing through the pipeline: acquired
// from a provider, stored, enriched, and finally exported.
type PaperRecord struct {
	// ProviderID is the identifier unique within the source provider.
	// Together with Source it forms the global dedup key. Immutable.
	ProviderID string `json:"provider_id" yaml:"provider_id"`

	// Source names the provider that supplied this record.
	Source Source `json:"source" yaml:"source"`

	// Title is the paper title as reported by the provider.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in provider order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year, zero when the provider omits it.
	Year int `json:"year" yaml:"year"`

	// Venue is the journal or conference name, best effort.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Abstract is the paper abstract, best effort.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// URL is the provider landing page for the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is an open-access PDF location when the provider reports one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// CitationCount is the provider-reported citation count, used for
	// ranking only. Never negative; defaults to zero when absent.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// Summary is the generated natural-language summary. Empty until the
	// enrichment engine fills it.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// InvestmentCommentary is the generated investment-oriented analysis.
	// Empty until the enrichment engine fills it.
	InvestmentCommentary string `json:"investment_commentary,omitempty" yaml:"investment_commentary,omitempty"`

	// Processed is true once both enrichment texts have been persisted
	// together. The store never sets it with only one of the two present.
	Processed bool `json:"processed" yaml:"processed"`

	// Published is flipped by the downstream export step, never by the
	// acquisition or enrichment stages.
	Published bool `json:"published" yaml:"published"`

	// FetchedAt is set once at insert and never updated.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Key returns the (provider_id, source) dedup key for the record.
func (p PaperRecord) Key() (string, Source) {
	return p.ProviderID, p.Source
}
